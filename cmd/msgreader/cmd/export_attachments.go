package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesm/msgreader/internal/export"
)

var (
	exportAttachmentsDir string
	exportAttachmentsZip string
)

var exportAttachmentsCmd = &cobra.Command{
	Use:   "export-attachments <file.msg>",
	Short: "Export every attachment of a message",
	Long: `Write every attachment of a .msg file to a directory, or into a zip
archive with --zip. File names are sanitized and never overwrite existing
files; duplicates get a numeric suffix. Embedded messages have no data
and are skipped.

The default directory is <attachments_dir>/<message name>, where
attachments_dir comes from [export] in config.toml.

Examples:
  msgreader export-attachments invoice.msg
  msgreader export-attachments invoice.msg -o ./out
  msgreader export-attachments invoice.msg --zip invoice.zip`,
	Args: cobra.ExactArgs(1),
	RunE: runExportAttachments,
}

func runExportAttachments(cmd *cobra.Command, args []string) error {
	if exportAttachmentsDir != "" && exportAttachmentsZip != "" {
		return fmt.Errorf("--output and --zip are mutually exclusive")
	}

	r, err := openMessage(args[0])
	if err != nil {
		return err
	}
	atts, skipped, err := export.Collect(r)
	if err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}
	for _, s := range skipped {
		logger.Warn("skipping attachment", "reason", s)
	}

	var stats export.ExportStats
	if exportAttachmentsZip != "" {
		stats = export.AttachmentsToZip(exportAttachmentsZip, atts)
	} else {
		dir := exportAttachmentsDir
		if dir == "" {
			dir = filepath.Join(cfg.AttachmentsDir(), messageBaseName(args[0]))
		}
		stats = export.AttachmentsToDir(dir, atts)
	}

	fmt.Fprintln(cmd.OutOrStdout(), export.FormatExportResult(stats))
	if stats.WriteError {
		return fmt.Errorf("export failed")
	}
	return nil
}

// messageBaseName is the file name of path without its extension.
func messageBaseName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name = export.SanitizeFilename(name); name == "" {
		return "message"
	}
	return name
}

func init() {
	exportAttachmentsCmd.Flags().StringVarP(&exportAttachmentsDir, "output", "o", "", "output directory")
	exportAttachmentsCmd.Flags().StringVar(&exportAttachmentsZip, "zip", "", "write a zip archive instead of a directory")
	rootCmd.AddCommand(exportAttachmentsCmd)
}
