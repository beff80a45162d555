package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ib-77/mpsc/internal/config"
	"github.com/ib-77/mpsc/internal/logging"
	"github.com/ib-77/mpsc/internal/server"
	"github.com/ib-77/mpsc/pkg/pool"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "poolserver",
		Short:         "Serve static pages from a fixed-size worker pool",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := config.New(cfgFile)
			if err := bindFlags(v, cmd); err != nil {
				return err
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, v, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (yaml, toml or json)")
	flags.String("addr", "", "listen address")
	flags.Int("workers", 0, "number of pool workers")
	flags.String("response-dir", "", "directory holding the response pages")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-dir", "", "directory for the log file; stderr when empty")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

var flagKeys = map[string]string{
	"addr":         "server.addr",
	"workers":      "pool.workers",
	"response-dir": "server.response_dir",
	"log-level":    "logging.level",
	"log-dir":      "logging.dir",
	"metrics-addr": "metrics.addr",
}

// bindFlags makes explicitly set flags override file and env values.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func run(ctx context.Context, v *viper.Viper, cfg *config.Config) error {
	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Close()

	if v.ConfigFileUsed() != "" {
		config.Watch(v, func(next *config.Config, e fsnotify.Event) {
			logger.SetLevel(next.Logging.Level)
			logger.Info("config reloaded", "file", e.Name, "level", logger.Level())
		}, func(err error) {
			logger.Warn("ignoring invalid config change", "error", err)
		})
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p, err := pool.New(cfg.Pool.Name, cfg.Pool.Workers,
		pool.WithLogger(logger.With("pool", cfg.Pool.Name)),
		pool.WithRegisterer(reg),
		pool.WithResultHandler(func(r pool.Result) {
			if r.IsFailure() {
				logger.Error("connection handler failed", "job", r.ID().String(), "error", r.Err())
			}
		}),
	)
	if err != nil {
		return err
	}
	defer p.Close()

	if cfg.Metrics.Addr != "" {
		stopMetrics := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer stopMetrics()
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("unable to bind %s: %w", cfg.Server.Addr, err)
	}

	srv := server.New(afero.NewOsFs(), cfg.Server.ResponseDir, p, logger)
	if err := srv.Serve(ctx, ln); err != nil {
		return err
	}

	logger.Info("shutting down, draining pool", "pool", cfg.Pool.Name)
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	hs := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = hs.Shutdown(ctx)
	}
}
