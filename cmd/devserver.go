package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/profile-wizard/internal/devbackend"
)

var devserverPort int

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Start a local generation backend for development",
	Long:  "Serves the generation job API locally. With an Anthropic key configured, fields are generated by Claude; otherwise canned fixtures are returned. Jobs resolve after a configurable latency so the polling path behaves like production.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var gen devbackend.Generator = devbackend.FixtureGenerator{}
		if cfg.Dev.AnthropicKey != "" {
			gen = devbackend.NewAnthropicGenerator(cfg.Dev.AnthropicKey, cfg.Dev.Model)
			zap.L().Info("using anthropic generator", zap.String("model", cfg.Dev.Model))
		} else {
			zap.L().Info("using fixture generator")
		}

		backend := devbackend.New(gen, time.Duration(cfg.Dev.LatencySecs)*time.Second)

		port := devserverPort
		if port == 0 {
			port = cfg.Dev.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: backend.Router(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down devserver")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting devserver", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "devserver listen")
		}

		return nil
	},
}

func init() {
	devserverCmd.Flags().IntVar(&devserverPort, "port", 0, "devserver port (default from config)")
	rootCmd.AddCommand(devserverCmd)
}
