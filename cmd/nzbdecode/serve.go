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

	"github.com/usenetkit/nzbdecode/internal/config"
	"github.com/usenetkit/nzbdecode/internal/httpapi"
	"github.com/usenetkit/nzbdecode/internal/infra/logger"
	"github.com/usenetkit/nzbdecode/internal/jobstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the job status HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}

	store, err := jobstore.Open(cfg.JobStore.Path)
	if err != nil {
		return fmt.Errorf("job store error: %w", err)
	}
	defer store.Close()

	e := httpapi.New(store, log)

	srv := &http.Server{Addr: cfg.API.Addr, Handler: e}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown requested, draining connections")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Info("serving job API on %s", cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
