package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesm/msgreader/internal/cfb"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.msg>",
	Short: "Dump the compound-file header and directory tree",
	Long: `Print the low-level layout of a .msg file: the compound-file header
(sector size, FAT, mini FAT and DIFAT locations) and every directory entry
in tree order with its kind, start sector and size.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openMessage(args[0])
		if err != nil {
			return err
		}
		c, err := r.Container()
		if err != nil {
			return fmt.Errorf("inspect %s: %w", args[0], err)
		}
		printContainer(cmd.OutOrStdout(), c)
		return nil
	},
}

func printContainer(w io.Writer, c *cfb.Container) {
	h := c.Header()
	fmt.Fprintf(w, "Sector size:       %d\n", h.SectorSize)
	fmt.Fprintf(w, "FAT sectors:       %d (%d entries)\n", h.NumFATSectors, len(c.FAT()))
	fmt.Fprintf(w, "Directory start:   %s\n", sectorLabel(h.DirStart))
	fmt.Fprintf(w, "Mini FAT:          start %s, %d sectors\n", sectorLabel(h.MiniFATStart), h.NumMiniFATSectors)
	fmt.Fprintf(w, "DIFAT:             start %s, %d sectors\n", sectorLabel(h.DIFATStart), h.NumDIFATSectors)
	fmt.Fprintf(w, "Directory entries: %d\n\n", c.Directory().Len())

	c.Directory().Walk(func(e *cfb.Entry, depth int) {
		indent := strings.Repeat("  ", depth)
		switch e.Kind {
		case cfb.KindStream:
			fmt.Fprintf(w, "%s%s  [%d] stream start=%s size=%d\n", indent, e.Name, e.Index, sectorLabel(e.StartSector), e.Size)
		default:
			fmt.Fprintf(w, "%s%s  [%d] %s\n", indent, e.Name, e.Index, e.Kind)
		}
	})
}

func sectorLabel(n uint32) string {
	switch n {
	case cfb.EndOfChain:
		return "end-of-chain"
	case cfb.FreeSect:
		return "none"
	default:
		return fmt.Sprint(n)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
