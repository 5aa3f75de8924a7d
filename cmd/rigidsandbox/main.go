package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mironco/rigidcore/internal/config"
	"github.com/mironco/rigidcore/internal/logging"
	"github.com/mironco/rigidcore/internal/sandbox"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults apply when empty)")
	listen := flag.String("listen", "", "override server.listen")
	scenePath := flag.String("scene", "", "JSON scene to load before starting")
	flag.Parse()

	if err := run(*configPath, *listen, *scenePath); err != nil {
		fmt.Fprintln(os.Stderr, "rigidsandbox:", err)
		os.Exit(1)
	}
}

func run(configPath, listen, scenePath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sim, err := sandbox.New(cfg, logger)
	if err != nil {
		return err
	}
	defer sim.Close()
	if scenePath != "" {
		if _, err := sim.LoadScene(scenePath); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           sandbox.NewRouter(sim),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sim.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("Shutting down", zap.Error(err))
	return err
}
