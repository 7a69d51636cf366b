package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/worktracker75-ui/datanav/internal/ai"
	"github.com/worktracker75-ui/datanav/internal/query"
)

var (
	chatRun         bool
	chatModel       string
	chatMaxTokens   int
	chatTemp        float64
	chatSession     string
	chatTimeoutSec  int
	chatPrintPrompt bool
	chatDryRun      bool
	chatJSON        bool
)

// newStreamer is swapped in tests.
var newStreamer = func() ai.Streamer { return buildClient(currentConfig()) }

var chatCmd = &cobra.Command{
	Use:   "chat <file> [question...]",
	Short: "Ask the assistant a question about a data file",
	Example: `  datanav chat sales.csv "which region sells most?"
  datanav chat sales.csv "monthly totals" --run
  datanav chat sales.csv "and by product?" --session ~/.datanav/sales.json`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		d, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		question := strings.Join(args[1:], " ")

		ws, err := newWorkspace(c, newStreamer(), runtimeOptions{
			Model:       chatModel,
			MaxTokens:   chatMaxTokens,
			Temperature: chatTemp,
			Session:     chatSession,
		})
		if err != nil {
			return err
		}
		defer ws.Close()
		ws.Load(d)

		if chatDryRun || chatPrintPrompt {
			system, err := ws.SystemPrompt()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "--- system prompt ---")
			fmt.Fprintln(out, system)
			fmt.Fprintln(out, "--- end system prompt ---")
			if chatDryRun {
				fmt.Fprintln(out, "--dry-run: no API call was made.")
				return nil
			}
		}

		timeout := time.Duration(chatTimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 180 * time.Second
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		m, err := ws.Ask(ctx, question, func(_, delta string) {
			if !chatJSON {
				fmt.Fprint(out, delta)
			}
		})
		if !chatJSON {
			fmt.Fprintln(out)
		}
		if chatSession != "" && !errors.Is(err, ai.ErrMissingAPIKey) {
			if serr := ws.Conversation().Save(chatSession); serr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: could not save session: %v\n", serr)
			}
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("chat interrupted: %w", err)
			}
			return errors.New(ai.UserMessage(err))
		}

		result := map[string]any{"message": m}
		if m.Directive != nil && !chatJSON {
			fmt.Fprintf(out, "\n✓ Query: %s\n", m.Directive.Query)
			if m.Directive.Explanation != "" {
				fmt.Fprintf(out, "  %s\n", m.Directive.Explanation)
			}
		}
		if m.Directive != nil && chatRun {
			res, err := ws.Query(ctx, m.Directive.Query)
			if err != nil {
				var ve *query.ValidationError
				if errors.As(err, &ve) {
					return fmt.Errorf("✗ refusing to run generated query: %s", ve.Reason)
				}
				return err
			}
			result["result"] = res
			if !chatJSON {
				fmt.Fprintln(out)
				printTable(out, res.Dataset(), 50)
				if res.Truncated {
					fmt.Fprintf(out, "⚠ Result truncated to %d rows\n", res.RowCount)
				}
			}
		}
		if chatJSON {
			return writeOutput("", result, outputOptions{JSON: true, Writer: out})
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatRun, "run", false, "execute the query the assistant proposes")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "model name (defaults to config default_model)")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "max tokens for the answer")
	chatCmd.Flags().Float64Var(&chatTemp, "temperature", 0, "sampling temperature")
	chatCmd.Flags().StringVar(&chatSession, "session", "", "transcript file to resume and update")
	chatCmd.Flags().IntVar(&chatTimeoutSec, "timeout-sec", 180, "request timeout in seconds")
	chatCmd.Flags().BoolVar(&chatPrintPrompt, "print-prompt", false, "print the system prompt before sending")
	chatCmd.Flags().BoolVar(&chatDryRun, "dry-run", false, "print the system prompt and exit without calling the API")
	chatCmd.Flags().BoolVar(&chatJSON, "json", false, "emit the final message (and query result) as JSON")
}
