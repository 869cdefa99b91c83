package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wesm/msgreader/internal/textutil"
)

var scanJobs int

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Decode every .msg file under a directory",
	Long: `Walk a directory tree and decode every .msg file in it, printing one
line per file with its subject and attachment count, or the reason it
could not be decoded. Exits non-zero when any file fails.

Examples:
  msgreader scan ~/Archive
  msgreader scan ~/Archive --jobs 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := findMsgFiles(args[0])
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No .msg files found in %s\n", args[0])
			return nil
		}

		results, err := scanFiles(cmd.Context(), paths, scanJobs)
		if err != nil {
			return err
		}
		failed := printScanResults(cmd.OutOrStdout(), results)
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed to decode", failed, len(results))
		}
		return nil
	},
}

// scanResult is the outcome of decoding one file.
type scanResult struct {
	Path        string
	Subject     string
	Attachments int
	Recipients  int
	Err         error
}

// findMsgFiles returns the .msg files under root in lexical order.
func findMsgFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(path), ".msg") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}

// scanFiles decodes paths with at most jobs files in flight. Decode
// failures are recorded per file; only cancellation stops the scan.
func scanFiles(ctx context.Context, paths []string, jobs int) ([]scanResult, error) {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]scanResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = scanFile(path)
			logger.Debug("scanned message", "path", path, "error", results[i].Err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanFile(path string) scanResult {
	res := scanResult{Path: path}
	r, err := openMessage(path)
	if err != nil {
		res.Err = err
		return res
	}
	f, err := r.FileData()
	if err != nil {
		res.Err = err
		return res
	}
	res.Subject = f.Subject()
	res.Attachments = len(f.Attachments)
	res.Recipients = len(f.Recipients)
	return res
}

// printScanResults writes one line per result and a summary, and returns
// the number of failures.
func printScanResults(w io.Writer, results []scanResult) int {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(w, "FAIL  %s: %v\n", res.Path, res.Err)
			continue
		}
		subject := res.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		fmt.Fprintf(w, "ok    %s: %s [%d attachment(s), %d recipient(s)]\n",
			res.Path, textutil.TruncateWidth(textutil.FirstLine(subject), maxValueWidth),
			res.Attachments, res.Recipients)
	}
	fmt.Fprintf(w, "\nScanned %d file(s): %d ok, %d failed\n", len(results), len(results)-failed, failed)
	return failed
}

func init() {
	scanCmd.Flags().IntVarP(&scanJobs, "jobs", "j", runtime.NumCPU(), "number of files decoded in parallel")
	rootCmd.AddCommand(scanCmd)
}
