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

	"github.com/ananthvk/minikv"
	"github.com/ananthvk/minikv/cmd/kvserver/internal"
	"github.com/ananthvk/minikv/internal/config"
	"github.com/ananthvk/minikv/internal/logger"
	"github.com/ananthvk/minikv/internal/resp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var Version = "dev"

func main() {
	app := &cli.App{
		Name:    "kvserver",
		Usage:   "in-memory key value server speaking RESP",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"MINIKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "address",
				Aliases: []string{"a"},
				Usage:   "listen address, overrides server.address",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error, overrides log.level",
			},
			&cli.StringFlag{
				Name:  "metrics-address",
				Usage: "serve prometheus metrics on this address, overrides metrics.address and enables metrics",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "kvserver: %s\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(afero.NewOsFs(), c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("address") {
		cfg.Server.Address = c.String("address")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("metrics-address") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = c.String("metrics-address")
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		FileName:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxAge:     cfg.Log.MaxAge,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := minikv.NewStore()
	server := internal.New(store, internal.Options{
		Server: cfg.Server,
		Limits: resp.Limits{
			MaxDepth:      cfg.Limits.MaxDepth,
			MaxElements:   cfg.Limits.MaxElements,
			MaxBulkLength: cfg.Limits.MaxBulkLength,
			MaxBufferSize: cfg.Limits.MaxBufferSize,
		},
		Logger:     log,
		Registerer: registry,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.ListenAndServe()
		if errors.Is(err, internal.ErrServerClosed) {
			return nil
		}
		return err
	})

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info("metrics listening", zap.String("address", cfg.Metrics.Address))
			err := metricsServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		if metricsServer != nil {
			errs = append(errs, metricsServer.Shutdown(shutdownCtx))
		}
		errs = append(errs, server.Shutdown(shutdownCtx))
		return errors.Join(errs...)
	})

	return g.Wait()
}
