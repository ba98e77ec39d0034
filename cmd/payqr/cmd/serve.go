package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/anvik-systems/payqr/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP scanning service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := buildScanner()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		cfg := globalConfig.Server
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Port = port
		}
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Host = host
		}

		srv := server.New(cfg, s)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case sig := <-stop:
			slog.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
	serveCmd.Flags().String("host", "", "listen host (default from config)")
	rootCmd.AddCommand(serveCmd)
}
