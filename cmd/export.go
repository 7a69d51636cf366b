package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/worktracker75-ui/datanav/internal/dataset"
	"github.com/worktracker75-ui/datanav/internal/utils"
)

var (
	expFormat string
	expOutput string
	expSortBy string
	expDesc   bool
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Re-export a data file as CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := dataset.ParseFormat(expFormat)
		if err != nil {
			return err
		}
		d, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		if expSortBy != "" {
			if _, ok := d.ColumnIndex(expSortBy); !ok {
				return fmt.Errorf("--sort: unknown column %q", expSortBy)
			}
			d = d.Sort(expSortBy, !expDesc)
		}
		var buf bytes.Buffer
		if err := dataset.Write(&buf, d, f); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		path := expOutput
		if path == "" {
			path = dataset.ExportFilename(f, time.Now())
		} else if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rows to %s\n", d.Len(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&expFormat, "format", "csv", "export format: csv|xlsx")
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "output path (default data-export-<millis>.<ext>)")
	exportCmd.Flags().StringVar(&expSortBy, "sort", "", "column to sort rows by before export")
	exportCmd.Flags().BoolVar(&expDesc, "desc", false, "sort descending")
}
