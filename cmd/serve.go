package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/ytlinks/internal/server"
	"github.com/desertthunder/ytlinks/internal/tasks"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP server and refresh scheduler until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := r.newStack(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	config := st.config
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = port
	}

	if st.cache != nil {
		if n, err := st.cache.Purge(ctx, time.Now()); err != nil {
			r.logger.Warn("failed to purge expired audio cache", "error", err)
		} else if n > 0 {
			r.logger.Info("purged expired audio cache entries", "count", n)
		}
	}

	scheduler := tasks.NewScheduler(tasks.SchedulerOpts{
		Engine:   st.engine,
		Artists:  st.artists,
		Interval: config.Refresh.Interval.Duration,
		OnStart:  config.Refresh.OnStart && !cmd.Bool("no-refresh"),
		Logger:   r.logger,
	})
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Stop()

	var history server.RunHistory
	if st.runs != nil {
		history = st.runs
	}
	api := server.NewAPI(server.APIOpts{
		Links:   st.links,
		Artists: st.artists,
		Refresh: scheduler,
		History: history,
		Proxy:   r.proxy(config),
		Logger:  r.logger,
	})

	static := server.NewStaticHandler(config.Server.StaticDir).Hide(
		cmd.String("config"),
		config.Files.Artists,
		config.Extractor.Cookies,
		config.Database.Path,
		config.Credentials.YouTube.HeadersPath,
		config.Server.LogFile,
	)

	srv := &http.Server{
		Addr:              config.Server.Addr(),
		Handler:           server.NewHandler(api, static, r.logger, config.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", srv.Addr, "links", st.links.Path(), "artists", st.artists.Path())
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
