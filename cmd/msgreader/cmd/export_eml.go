package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesm/msgreader/internal/export"
)

var (
	exportEMLOutput string
	exportEMLForce  bool
)

var exportEMLCmd = &cobra.Command{
	Use:   "export-eml <file.msg>",
	Short: "Convert a message to .eml",
	Long: `Render a .msg file as an RFC 5322 message. Addresses, dates and
threading headers come from the message properties and, where those are
missing, from the transport headers Outlook stored with the message.
Attachments with data are included.

Examples:
  msgreader export-eml invoice.msg > invoice.eml
  msgreader export-eml invoice.msg -o invoice.eml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openMessage(args[0])
		if err != nil {
			return err
		}
		fields, err := r.FileData()
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}
		atts, skipped, err := export.Collect(r)
		if err != nil {
			return fmt.Errorf("collect attachments: %w", err)
		}
		for _, s := range skipped {
			logger.Warn("attachment left out of .eml", "reason", s)
		}

		var buf bytes.Buffer
		if err := export.WriteEML(&buf, fields, atts); err != nil {
			return err
		}
		if exportEMLOutput == "" || exportEMLOutput == "-" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := export.WriteFile(exportEMLOutput, buf.Bytes(), exportEMLForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%s)\n", exportEMLOutput, export.FormatBytesLong(int64(buf.Len())))
		return nil
	},
}

func init() {
	exportEMLCmd.Flags().StringVarP(&exportEMLOutput, "output", "o", "", "output file path (- or empty for stdout)")
	exportEMLCmd.Flags().BoolVarP(&exportEMLForce, "force", "f", false, "overwrite an existing output file")
	rootCmd.AddCommand(exportEMLCmd)
}
