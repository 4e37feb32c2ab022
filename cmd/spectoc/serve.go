package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/spectoc/internal/api"
	"github.com/dgallion1/spectoc/internal/extract"
	"github.com/dgallion1/spectoc/internal/metrics"
	"github.com/dgallion1/spectoc/internal/pipeline"
	"github.com/dgallion1/spectoc/internal/search"
)

func newServeCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search and parse over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default from config)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	tocPath, contentPath, err := a.outputs()
	if err != nil {
		return err
	}

	m := metrics.New()
	stats := extract.NewLatencyStats(time.Hour)
	worker, err := a.newWorker(tocPath, contentPath, stats, m)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		WorkerCount:  a.cfg.WorkerCount,
		MaxQueueSize: a.cfg.MaxQueueSize,
		JobTTL:       a.cfg.JobTTL,
	}, worker, m, a.log)
	orch.Start(ctx)

	searcher := search.New(search.Options{
		TOCPath:        tocPath,
		ContentPath:    contentPath,
		MinQueryLength: a.cfg.MinQueryLength,
		MaxResults:     a.cfg.MaxResults,
		SearchContent:  a.cfg.SearchContent,
	}, a.log)
	go func() {
		if err := searcher.Watch(ctx); err != nil {
			a.log.Warn("toc watcher stopped, index refreshes on mtime only", "error", err)
		}
	}()

	srv := api.NewServer(orch, searcher, stats, m, a.log, a.cfg)
	httpServer := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		<-ctx.Done()
		a.log.Info("shutting down...")

		// Stop accepting submissions before the queue closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		close(stopped)
	}()

	a.log.Info("starting spectoc", "port", a.cfg.Port, "toc", tocPath, "auth", a.cfg.APIKey != "")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-stopped
		return err
	}
	<-stopped
	return nil
}
