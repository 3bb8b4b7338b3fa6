package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/elemtree/internal/errors"
	"github.com/vango-dev/elemtree/pkg/snapshot"
)

// Default tracer name for build passes.
const defaultTracerName = "elemtree"

const (
	statusOK      = "ok"
	statusAborted = "aborted"
	statusError   = "error"
)

// Func populates a cleared snapshot. Returning an error aborts the pass.
type Func func(ctx context.Context, snap *snapshot.Snapshot) error

// Stats describes one build pass. For failed passes the counts describe
// what had been built when the pass stopped.
type Stats struct {
	Elements     int
	Roots        int
	MissingDebug int
	Duration     time.Duration
}

// Driver runs build passes.
type Driver struct {
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	name    string
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. If unset, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithMetrics records every pass in m.
func WithMetrics(m *Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

// WithTracer sets the tracer. If unset, the global OpenTelemetry tracer
// provider is used.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Driver) {
		d.tracer = tracer
	}
}

// WithName labels passes in logs and spans, e.g. with the render target.
func WithName(name string) Option {
	return func(d *Driver) {
		d.name = name
	}
}

// New creates a Driver.
func New(opts ...Option) *Driver {
	d := &Driver{}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.tracer == nil {
		d.tracer = otel.Tracer(defaultTracerName)
	}
	return d
}

// Run clears snap and populates it with fn.
//
// If fn returns an error, violates the stack discipline, or returns with
// elements still open, snap is cleared and the error is returned. Panics
// other than stack-discipline violations are re-raised after clearing.
func (d *Driver) Run(ctx context.Context, snap *snapshot.Snapshot, fn Func) (Stats, error) {
	start := time.Now()
	snap.Clear()

	attrs := []attribute.KeyValue{}
	if d.name != "" {
		attrs = append(attrs, attribute.String("elemtree.target", d.name))
	}
	ctx, span := d.tracer.Start(ctx, "elemtree.build",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	err := runPass(ctx, snap, fn)

	stats := Stats{
		Elements:     snap.Len(),
		Roots:        len(snap.Roots()),
		MissingDebug: snap.MissingDebugTypes(),
		Duration:     time.Since(start),
	}
	span.SetAttributes(
		attribute.Int("elemtree.elements", stats.Elements),
		attribute.Int("elemtree.roots", stats.Roots),
	)

	if err == nil {
		span.SetStatus(codes.Ok, "")
		d.metrics.record(stats, statusOK, "")
		d.logger.Debug("build pass finished",
			"target", d.name,
			"elements", stats.Elements,
			"roots", stats.Roots,
			"missing_debug", stats.MissingDebug,
			"duration", stats.Duration,
		)
		return stats, nil
	}

	snap.Clear()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var te *errors.TreeError
	if stderrors.As(err, &te) && te.Category == errors.CategoryBuild {
		d.metrics.record(stats, statusAborted, te.Code)
		d.logger.Error("build pass aborted",
			"target", d.name,
			"code", te.Code,
			"error", err,
			"elements", stats.Elements,
		)
		return stats, err
	}

	d.metrics.record(stats, statusError, "")
	d.logger.Warn("build pass failed", "target", d.name, "error", err)
	return stats, err
}

func runPass(ctx context.Context, snap *snapshot.Snapshot, fn Func) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		te, ok := r.(*errors.TreeError)
		if !ok {
			snap.Clear()
			panic(r)
		}
		err = te
	}()

	if err := fn(ctx, snap); err != nil {
		return err
	}

	if snap.Depth() > 0 {
		open := snap.OpenChain()
		chain := make([]uint32, len(open))
		for i, id := range open {
			chain[i] = uint32(id)
		}
		return errors.New("E203").
			WithDetailf("%d element(s) still open when the build pass returned.", len(open)).
			WithStack(chain)
	}
	return nil
}
