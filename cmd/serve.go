package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/worktracker75-ui/datanav/internal/server"
)

var (
	srvAddr    string
	srvData    string
	srvSession string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dataset, chat, query and report API over HTTP",
	Example: `  datanav serve --addr :8080
  datanav serve --data sales.csv --session ~/.datanav/web.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		addr := srvAddr
		if addr == "" {
			addr = c.ListenAddr
		}
		if addr == "" {
			addr = ":8080"
		}
		if c.APIKey == "" {
			log.Warn().Msg("api_key not set - chat will fail until it is configured")
		}

		ws, err := newWorkspace(c, newStreamer(), runtimeOptions{Session: srvSession})
		if err != nil {
			return err
		}
		if srvData != "" {
			d, err := loadDataset(srvData)
			if err != nil {
				return err
			}
			ws.Load(d)
		}
		srv := server.New(addr, ws)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on %s (Ctrl+C to stop)\n", addr)
		return serveThenSave(ctx, srv.Run, func() error {
			if srvSession == "" {
				return nil
			}
			if err := ws.Conversation().Save(srvSession); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			log.Info().Str("path", srvSession).Msg("session saved")
			return nil
		})
	},
}

// serveThenSave runs the server until ctx ends and in-flight requests have
// drained, then saves the transcript.
func serveThenSave(ctx context.Context, run func(context.Context) error, save func() error) error {
	runErr := run(ctx)
	saveErr := save()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return saveErr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (defaults to config listen_addr)")
	serveCmd.Flags().StringVar(&srvData, "data", "", "CSV/XLSX file to preload")
	serveCmd.Flags().StringVar(&srvSession, "session", "", "transcript file to resume and save on shutdown")
}
