package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/worktracker75-ui/datanav/internal/analysis"
	"github.com/worktracker75-ui/datanav/internal/dataset"
)

var (
	anaOutputPath string
	anaJSON       bool
	anaQuiet      bool
	anaSortBy     string
	anaDesc       bool
	anaPreview    int
	anaWorkers    int
)

type fileAnalysis struct {
	File    string            `json:"file"`
	Summary *analysis.Summary `json:"summary"`
	Metrics []analysis.Metric `json:"metrics"`

	data *dataset.Dataset
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <files...>",
	Short: "Summarize one or more CSV/XLSX files",
	Example: `  datanav analyze sales.csv
  datanav analyze "data/*.csv" --json -o summaries.json
  datanav analyze sales.xlsx --sort amount --desc --preview 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		results := make([]fileAnalysis, len(files))

		workers := anaWorkers
		if workers <= 0 {
			workers = 4
		}
		g, _ := errgroup.WithContext(cmd.Context())
		g.SetLimit(workers)
		for i, path := range files {
			g.Go(func() error {
				d, err := loadDataset(path)
				if err != nil {
					return err
				}
				results[i] = fileAnalysis{File: path, Summary: analysis.Summarize(d), Metrics: analysis.Metrics(d), data: d}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if anaJSON {
			return writeOutput("", results, outputOptions{JSON: true, OutputPath: anaOutputPath, Writer: out})
		}
		var sb strings.Builder
		for i, r := range results {
			if !anaQuiet && len(results) > 1 {
				fmt.Fprintf(out, "[%d/%d] %s\n", i+1, len(results), filepath.Base(r.File))
			}
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(r.Summary.Markdown())
			if anaPreview > 0 {
				preview := r.data
				if anaSortBy != "" {
					if _, ok := preview.ColumnIndex(anaSortBy); !ok {
						return fmt.Errorf("--sort: unknown column %q in %s", anaSortBy, filepath.Base(r.File))
					}
					preview = preview.Sort(anaSortBy, !anaDesc)
				}
				sb.WriteString("\n```\n")
				printTable(&sb, preview, anaPreview)
				sb.WriteString("```\n")
			}
		}
		return writeOutput(sb.String(), nil, outputOptions{OutputPath: anaOutputPath, Writer: out})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit summaries as JSON")
	analyzeCmd.Flags().BoolVar(&anaQuiet, "quiet", false, "suppress progress output")
	analyzeCmd.Flags().StringVar(&anaSortBy, "sort", "", "column to sort the preview by")
	analyzeCmd.Flags().BoolVar(&anaDesc, "desc", false, "sort the preview descending")
	analyzeCmd.Flags().IntVar(&anaPreview, "preview", 0, "number of rows to preview after the summary")
	analyzeCmd.Flags().IntVar(&anaWorkers, "workers", 4, "files analyzed in parallel")
}
