// Command scormhostd serves the SCORM package pipeline and runtime API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"scormhost/internal/adapters/packagesapi"
	"scormhost/internal/adapters/runtimeapi"
	"scormhost/internal/blob"
	"scormhost/internal/config"
	"scormhost/internal/domain"
	"scormhost/internal/logging"
	"scormhost/internal/observability"
	"scormhost/internal/packages"
	"scormhost/internal/persistence/memory"
	"scormhost/internal/persistence/postgres"
	"scormhost/internal/persistence/sqlite"
	"scormhost/internal/runtime"
	"scormhost/internal/validation"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "scormhostd",
		Short:         "SCORM content hosting and runtime service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML configuration file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	sample := &cobra.Command{
		Use:   "sample-config",
		Short: "Print a sample configuration file",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.Sample())
		},
	}

	ver := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	root.AddCommand(serve, sample, ver)
	return root
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := blob.Open(ctx, blob.Options{
		Driver:      blob.Driver(cfg.Blob.Driver),
		FSRoot:      cfg.Blob.FSRoot,
		S3Bucket:    cfg.Blob.S3Bucket,
		S3Region:    cfg.Blob.S3Region,
		S3Endpoint:  cfg.Blob.S3Endpoint,
		S3PathStyle: cfg.Blob.S3PathStyle,
	})
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg.Persistence)
	if err != nil {
		return fmt.Errorf("open persistence: %w", err)
	}
	defer closeStore()

	metrics, err := observability.NewPrometheusRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	svc := packages.NewService(blobs, store,
		packages.WithLogger(logger),
		packages.WithMetrics(metrics),
		packages.WithValidator(validation.NewWithLimit(cfg.Limits.MaxPackageBytes)),
	)
	manager := runtime.NewManager(store, runtime.WithLogger(logger))

	mux := http.NewServeMux()
	packagesHandler := packagesapi.NewHandler(svc)
	mux.Handle("/api/v1/packages", packagesHandler)
	mux.Handle("/api/v1/packages/", packagesHandler)
	runtimeHandler := runtimeapi.NewHandler(manager)
	mux.Handle("/api/v1/runtime/", runtimeHandler)
	mux.Handle("/runtime/adapter.js", runtimeHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.Server.Bind,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "bind", cfg.Server.Bind, "blob_driver", string(blobs.Driver()), "persistence", cfg.Persistence.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Persistence) (domain.Store, func(), error) {
	switch strings.ToLower(cfg.Driver) {
	case "memory":
		return memory.New(), func() {}, nil
	case "", "sqlite":
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		s, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown persistence driver %q", cfg.Driver)
	}
}
