package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/worktracker75-ui/datanav/internal/ai"
	"github.com/worktracker75-ui/datanav/internal/report"
	"github.com/worktracker75-ui/datanav/internal/utils"
)

var (
	repPrompt     string
	repTitle      string
	repDir        string
	repPNG        bool
	repSession    string
	repModel      string
	repQuiet      bool
	repTimeoutSec int
)

const defaultReportPrompt = "Write a full analysis report of this data using the report format."

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Render a paginated PDF report with charts for a data file",
	Example: `  datanav report sales.csv
  datanav report sales.csv --prompt "focus on regional differences" --title "Q3 Sales"
  datanav report sales.csv --session ~/.datanav/sales.json --png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *currentConfig()
		if repDir != "" {
			dir, err := utils.ExpandHome(repDir)
			if err != nil {
				return err
			}
			c.ReportsDir = dir
		}
		out := cmd.OutOrStdout()
		d, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		var s ai.Streamer
		if repPrompt != "" {
			s = newStreamer()
		}
		ws, err := newWorkspace(&c, s, runtimeOptions{Model: repModel, Session: repSession})
		if err != nil {
			return err
		}
		defer ws.Close()
		ws.Load(d)

		if repPrompt != "" {
			timeout := time.Duration(repTimeoutSec) * time.Second
			if timeout <= 0 {
				timeout = 180 * time.Second
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if !repQuiet {
				fmt.Fprintln(out, "(streaming)")
			}
			_, err := ws.Ask(ctx, repPrompt, func(_, delta string) {
				if !repQuiet {
					fmt.Fprint(out, delta)
				}
			})
			if !repQuiet {
				fmt.Fprintln(out)
			}
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return fmt.Errorf("report narrative timed out: %w", err)
				}
				return errors.New(ai.UserMessage(err))
			}
			if repSession != "" {
				if err := ws.Conversation().Save(repSession); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: could not save session: %v\n", err)
				}
			}
		}

		title := repTitle
		if title == "" {
			title = "Data Analysis Report: " + d.Name
		}
		in := ws.ReportInput(title)
		path, err := report.Export(c.ReportsDir, in)
		if err != nil {
			var re *report.RenderError
			if errors.As(err, &re) {
				return fmt.Errorf("✗ report failed at %s: %w", re.Stage, re.Err)
			}
			return err
		}
		fmt.Fprintf(out, "✓ Report saved to %s\n", path)

		if repPNG {
			paths, err := report.ExportPNG(c.ReportsDir, in)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(out, "✓ Page preview %s\n", p)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&repPrompt, "prompt", "", "ask the assistant for a narrative first (e.g. \""+defaultReportPrompt+"\")")
	reportCmd.Flags().StringVar(&repTitle, "title", "", "report title")
	reportCmd.Flags().StringVar(&repDir, "dir", "", "output directory (defaults to config reports_dir)")
	reportCmd.Flags().BoolVar(&repPNG, "png", false, "also write one PNG preview per page")
	reportCmd.Flags().StringVar(&repSession, "session", "", "transcript file whose latest answer becomes the narrative")
	reportCmd.Flags().StringVar(&repModel, "model", "", "model name (defaults to config default_model)")
	reportCmd.Flags().BoolVar(&repQuiet, "quiet", false, "do not echo the streamed narrative")
	reportCmd.Flags().IntVar(&repTimeoutSec, "timeout-sec", 180, "narrative request timeout in seconds")
}
