package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"arcade"
	"arcade/internal/catalog"
	"arcade/internal/config"
	"arcade/internal/leaderboard"
	"arcade/internal/logging"
	"arcade/internal/relay"
	"arcade/internal/server"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "arcade-server",
	Short: "arcade web site and match relay server",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (optional)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger := logging.New("arcade", cfg.LogLevel)

	scores, err := leaderboard.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer scores.Close()

	webFS, err := fs.Sub(arcade.WebFS, "web")
	if err != nil {
		return err
	}

	dispatcher := relay.NewDispatcher(relay.NewStore(), logger, cfg.ChatMaxLen)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go dispatcher.Run(ctx)

	srv := server.New(catalog.Default(), scores, dispatcher, logger, webFS,
		cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	httpServer := &http.Server{Addr: cfg.Addr, Handler: srv}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
