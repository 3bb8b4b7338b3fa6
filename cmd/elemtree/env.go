package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/elemtree/internal/config"
	"github.com/vango-dev/elemtree/internal/errors"
	"github.com/vango-dev/elemtree/pkg/build"
	"github.com/vango-dev/elemtree/pkg/registry"
	"github.com/vango-dev/elemtree/pkg/snapshot"
	"github.com/vango-dev/elemtree/pkg/source"
)

// env bundles what every command needs to run a build pass.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *prometheus.Registry
	loader  *source.Loader
	builder *source.Builder
	driver  *build.Driver
	snap    *snapshot.Snapshot
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return config.LoadFile(path)
	}
	if filepath.Base(path) == config.ConfigFileName {
		return config.LoadFile(path)
	}
	return config.LoadOrDefault(path)
}

func newEnv(cmd *cobra.Command, logOut io.Writer) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if !cfg.ColorEnabled() {
		errors.DisableColors()
	}

	logger := cfg.NewLogger(logOut)

	reg := registry.New()
	if err := source.RegisterDebug(reg); err != nil {
		return nil, err
	}

	e := &env{
		cfg:     cfg,
		logger:  logger,
		metrics: prometheus.NewRegistry(),
		loader: source.NewLoader(
			source.WithS3Client(source.NewS3Client(source.S3Config{
				Region:   cfg.Source.S3Region,
				Endpoint: cfg.Source.S3Endpoint,
			})),
			source.WithStdin(cmd.InOrStdin()),
		),
		builder: source.NewBuilder(source.DefaultKinds(), cfg.Source.MaxDepth),
		snap:    snapshot.New(reg),
	}

	opts := []build.Option{build.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		opts = append(opts, build.WithMetrics(build.NewMetrics(
			build.WithNamespace(cfg.Metrics.Namespace),
			build.WithRegistry(e.metrics),
		)))
	}
	if cfg.Tracing.Enabled {
		opts = append(opts, build.WithTracer(otel.Tracer(cfg.Tracing.TracerName)))
	}
	e.driver = build.New(opts...)

	return e, nil
}

// buildFrom loads uri and runs one build pass into e.snap.
func (e *env) buildFrom(ctx context.Context, uri string) (build.Stats, error) {
	doc, err := e.loader.Open(ctx, uri)
	if err != nil {
		return build.Stats{}, err
	}
	return e.driver.Run(ctx, e.snap, e.builder.Func(doc))
}
