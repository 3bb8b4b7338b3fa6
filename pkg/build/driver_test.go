package build

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/elemtree/internal/errors"
	"github.com/vango-dev/elemtree/pkg/registry"
	"github.com/vango-dev/elemtree/pkg/snapshot"
)

type node struct{}

type orphan struct{}

func testSnapshot() *snapshot.Snapshot {
	reg := registry.New()
	registry.MustRegisterType[node](reg, "node", func(s string) string { return s })
	return snapshot.New(reg)
}

func el(name string) snapshot.Element {
	return snapshot.NewElement[node](name)
}

func newTestDriver(t *testing.T) (*Driver, *Metrics, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	d := New(
		WithLogger(logger),
		WithMetrics(m),
		WithTracer(noop.NewTracerProvider().Tracer("test")),
		WithName("test"),
	)
	return d, m, &logs
}

func TestRunSuccess(t *testing.T) {
	d, m, logs := newTestDriver(t)
	snap := testSnapshot()

	stats, err := d.Run(context.Background(), snap, func(ctx context.Context, s *snapshot.Snapshot) error {
		a := s.Push(el("A"))
		b := s.Push(el("B"))
		s.Pop(b)
		s.Insert(el("C"))
		s.Pop(a)
		s.Insert(snapshot.NewElement[orphan](0))
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Elements != 4 || stats.Roots != 2 || stats.MissingDebug != 1 {
		t.Errorf("stats = %+v, want 4 elements, 2 roots, 1 missing", stats)
	}
	if snap.Len() != 4 {
		t.Errorf("snapshot Len() = %d, want 4", snap.Len())
	}

	if got := testutil.ToFloat64(m.passesTotal.WithLabelValues(statusOK)); got != 1 {
		t.Errorf("passes_total{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.elementsInserted); got != 4 {
		t.Errorf("elements_inserted_total = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.snapshotRoots); got != 2 {
		t.Errorf("snapshot_roots = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.missingDebug); got != 1 {
		t.Errorf("missing_debug_elements = %v, want 1", got)
	}
	if !strings.Contains(logs.String(), "build pass finished") {
		t.Errorf("logs = %q", logs.String())
	}
}

func TestRunClearsPreviousPass(t *testing.T) {
	d, _, _ := newTestDriver(t)
	snap := testSnapshot()
	snap.Push(el("stale"))

	_, err := d.Run(context.Background(), snap, func(ctx context.Context, s *snapshot.Snapshot) error {
		s.Insert(el("fresh"))
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if snap.Len() != 1 || snap.Depth() != 0 {
		t.Errorf("Len=%d Depth=%d, want 1, 0", snap.Len(), snap.Depth())
	}
	if line, _ := snap.DebugLine(0); !strings.Contains(line, "fresh") {
		t.Errorf("DebugLine(0) = %q", line)
	}
}

func TestRunStackViolations(t *testing.T) {
	tests := []struct {
		name  string
		build Func
		code  string
	}{
		{
			name: "pop empty stack",
			build: func(ctx context.Context, s *snapshot.Snapshot) error {
				s.Insert(el("a"))
				s.Pop(0)
				return nil
			},
			code: "E201",
		},
		{
			name: "pop wrong id",
			build: func(ctx context.Context, s *snapshot.Snapshot) error {
				a := s.Push(el("a"))
				s.Push(el("b"))
				s.Pop(a)
				return nil
			},
			code: "E202",
		},
		{
			name: "unbalanced push",
			build: func(ctx context.Context, s *snapshot.Snapshot) error {
				s.Push(el("a"))
				s.Push(el("b"))
				return nil
			},
			code: "E203",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m, logs := newTestDriver(t)
			snap := testSnapshot()

			stats, err := d.Run(context.Background(), snap, tt.build)
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("Run() error = %v, want %s", err, tt.code)
			}
			if stats.Elements == 0 {
				t.Error("stats should describe the partial build")
			}
			if snap.Len() != 0 || snap.Depth() != 0 || len(snap.Roots()) != 0 {
				t.Error("snapshot should be cleared after an aborted pass")
			}
			if got := testutil.ToFloat64(m.violations.WithLabelValues(tt.code)); got != 1 {
				t.Errorf("stack_violations_total{%s} = %v, want 1", tt.code, got)
			}
			if got := testutil.ToFloat64(m.passesTotal.WithLabelValues(statusAborted)); got != 1 {
				t.Errorf("passes_total{aborted} = %v, want 1", got)
			}
			if got := testutil.ToFloat64(m.elementsInserted); got != 0 {
				t.Errorf("elements_inserted_total = %v, want 0", got)
			}
			if !strings.Contains(logs.String(), "code="+tt.code) {
				t.Errorf("logs should name the code: %q", logs.String())
			}
		})
	}
}

func TestRunUnbalancedReportsOpenChain(t *testing.T) {
	d, _, _ := newTestDriver(t)
	_, err := d.Run(context.Background(), testSnapshot(), func(ctx context.Context, s *snapshot.Snapshot) error {
		s.Insert(el("root"))
		s.Push(el("a"))
		s.Push(el("b"))
		return nil
	})

	te := errors.FromError(err, "E203")
	if len(te.Stack) != 2 || te.Stack[0] != 1 || te.Stack[1] != 2 {
		t.Errorf("Stack = %v, want [1 2]", te.Stack)
	}
}

func TestRunBuildError(t *testing.T) {
	d, m, _ := newTestDriver(t)
	snap := testSnapshot()
	want := stderrors.New("source exhausted")

	_, err := d.Run(context.Background(), snap, func(ctx context.Context, s *snapshot.Snapshot) error {
		s.Insert(el("a"))
		return want
	})
	if !stderrors.Is(err, want) {
		t.Fatalf("Run() error = %v, want %v", err, want)
	}
	if snap.Len() != 0 {
		t.Error("snapshot should be cleared after a failed pass")
	}
	if got := testutil.ToFloat64(m.passesTotal.WithLabelValues(statusError)); got != 1 {
		t.Errorf("passes_total{error} = %v, want 1", got)
	}
}

func TestRunRepanicsForeignPanics(t *testing.T) {
	d, _, _ := newTestDriver(t)
	snap := testSnapshot()

	defer func() {
		r := recover()
		if r != "boom" {
			t.Errorf("recover() = %v, want boom", r)
		}
		if snap.Len() != 0 {
			t.Error("snapshot should be cleared before re-panicking")
		}
	}()

	d.Run(context.Background(), snap, func(ctx context.Context, s *snapshot.Snapshot) error {
		s.Insert(el("a"))
		panic("boom")
	})
}

func TestRunRecoversAfterAbort(t *testing.T) {
	d, m, _ := newTestDriver(t)
	snap := testSnapshot()

	_, _ = d.Run(context.Background(), snap, func(ctx context.Context, s *snapshot.Snapshot) error {
		s.Pop(0)
		return nil
	})

	stats, err := d.Run(context.Background(), snap, func(ctx context.Context, s *snapshot.Snapshot) error {
		s.Scope(el("a"), func(snapshot.ElementID) {
			s.Insert(el("b"))
		})
		return nil
	})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if stats.Elements != 2 {
		t.Errorf("Elements = %d, want 2", stats.Elements)
	}
	if got := testutil.ToFloat64(m.snapshotElements); got != 2 {
		t.Errorf("snapshot_elements = %v, want 2", got)
	}
}

func TestNewDefaults(t *testing.T) {
	d := New()
	if d.logger == nil || d.tracer == nil {
		t.Error("New() should default logger and tracer")
	}
	if d.metrics != nil {
		t.Error("metrics should be optional")
	}

	_, err := d.Run(context.Background(), testSnapshot(), func(ctx context.Context, s *snapshot.Snapshot) error {
		s.Insert(el("a"))
		return nil
	})
	if err != nil {
		t.Errorf("Run() without metrics error = %v", err)
	}
}

func TestMetricsOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(
		WithRegistry(reg),
		WithNamespace("ui"),
		WithSubsystem("tree"),
		WithConstLabels(prometheus.Labels{"target": "main"}),
		WithBuckets([]float64{1}),
	)
	m.record(Stats{Elements: 3}, statusOK, "")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "ui_tree_passes_total" {
			found = true
		}
	}
	if !found {
		t.Error("ui_tree_passes_total should be registered")
	}
}
