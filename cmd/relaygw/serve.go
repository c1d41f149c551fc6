package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyon-ai/relaygw/internal/config"
	"github.com/halcyon-ai/relaygw/internal/logging"
	"github.com/halcyon-ai/relaygw/internal/server"
	"github.com/halcyon-ai/relaygw/internal/svc"
)

func runServe(cmd *cobra.Command, args []string) error {
	logging.SetDebug(debugFlag)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if portFlag != 0 {
		cfg.Port = portFlag
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Infof("received signal %v, shutting down", sig)
		cancel()
	}()

	svcCtx, err := svc.New(cfg)
	if err != nil {
		return fmt.Errorf("initializing service context: %w", err)
	}
	defer svcCtx.Close()

	go svcCtx.Run(ctx)

	httpServer := &http.Server{
		Addr:              listenAddr(cfg),
		Handler:           server.New(svcCtx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("relaygw listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

func listenAddr(cfg config.Config) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
