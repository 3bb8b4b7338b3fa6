package debugserver

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/elemtree/pkg/registry"
	"github.com/vango-dev/elemtree/pkg/snapshot"
)

type node struct{}

func testServer(t *testing.T, opts ...Option) (*Server, *snapshot.Snapshot) {
	t.Helper()
	reg := registry.New()
	registry.MustRegisterType[node](reg, "node", func(s string) string { return "Node(" + s + ")" })

	snap := snapshot.New(reg)
	a := snap.Push(snapshot.NewElement[node]("a"))
	snap.Insert(snapshot.NewElement[node]("b"))
	snap.Pop(a)
	snap.Insert(snapshot.NewElement[struct{}](0))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithLogger(logger), WithGatherer(prometheus.NewRegistry())}, opts...)
	return New(snap, opts...), snap
}

func get(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)
	rec := get(t, s, "GET", "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestSnapshotText(t *testing.T) {
	s, _ := testServer(t)

	for _, path := range []string{"/snapshot", "/snapshot?format=text"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, s, "GET", path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			body := rec.Body.String()
			for _, want := range []string{
				"roots: [0, 2]",
				`0: Node(a), children: [1]`,
				`2: "(could not find debug impl)", children: []`,
			} {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q:\n%s", want, body)
				}
			}
		})
	}
}

func TestSnapshotOutline(t *testing.T) {
	s, _ := testServer(t)
	rec := get(t, s, "GET", "/snapshot?format=outline")
	want := "0 Node(a)\n  1 Node(b)\n2 (could not find debug impl)\n"
	if rec.Body.String() != want {
		t.Errorf("outline =\n%s\nwant\n%s", rec.Body.String(), want)
	}
}

func TestSnapshotJSON(t *testing.T) {
	s, _ := testServer(t)
	rec := get(t, s, "GET", "/snapshot?format=json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var out snapshotJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Roots) != 2 || len(out.Elements) != 3 {
		t.Fatalf("got %d roots, %d elements", len(out.Roots), len(out.Elements))
	}
	if out.Elements[0].Debug != "Node(a)" || len(out.Elements[0].Children) != 1 {
		t.Errorf("element 0 = %+v", out.Elements[0])
	}
	if out.Elements[1].Children == nil {
		t.Error("leaf children should encode as []")
	}
}

func TestSnapshotUnknownFormat(t *testing.T) {
	s, _ := testServer(t)
	rec := get(t, s, "GET", "/snapshot?format=xml")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestElement(t *testing.T) {
	s, _ := testServer(t)

	tests := []struct {
		path   string
		status int
		debug  string
	}{
		{"/snapshot/elements/1", http.StatusOK, "Node(b)"},
		{"/snapshot/elements/3", http.StatusNotFound, ""},
		{"/snapshot/elements/x", http.StatusBadRequest, ""},
		{"/snapshot/elements/-1", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, "GET", tt.path)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			var el elementJSON
			if err := json.Unmarshal(rec.Body.Bytes(), &el); err != nil {
				t.Fatal(err)
			}
			if el.Debug != tt.debug {
				t.Errorf("Debug = %q, want %q", el.Debug, tt.debug)
			}
		})
	}
}

func TestRebuild(t *testing.T) {
	s, snap := testServer(t, WithRebuild(func(ctx context.Context, snap *snapshot.Snapshot) error {
		snap.Clear()
		snap.Insert(snapshot.NewElement[node]("fresh"))
		return nil
	}))

	rec := get(t, s, "POST", "/snapshot/rebuild")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"elements":1`) {
		t.Errorf("body = %q", rec.Body.String())
	}
	if snap.Len() != 1 {
		t.Errorf("Len() = %d after rebuild", snap.Len())
	}
}

func TestRebuildError(t *testing.T) {
	s, _ := testServer(t, WithRebuild(func(ctx context.Context, snap *snapshot.Snapshot) error {
		return stderrors.New("bad tree")
	}))

	rec := get(t, s, "POST", "/snapshot/rebuild")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"E221"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRebuildNotConfigured(t *testing.T) {
	s, _ := testServer(t)
	rec := get(t, s, "POST", "/snapshot/rebuild")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	s, _ := testServer(t, WithGatherer(reg))
	rec := get(t, s, "GET", "/metrics")
	if !strings.Contains(rec.Body.String(), "test_total 1") {
		t.Errorf("metrics body = %q", rec.Body.String())
	}
}

func TestServeShutdown(t *testing.T) {
	s, _ := testServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func readListing(t *testing.T, conn *websocket.Conn) watchMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg watchMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return msg
}

func TestWatchPushesAfterRebuild(t *testing.T) {
	s, _ := testServer(t, WithRebuild(func(ctx context.Context, snap *snapshot.Snapshot) error {
		snap.Clear()
		snap.Insert(snapshot.NewElement[node]("fresh"))
		return nil
	}))
	ts := httptest.NewServer(s)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/snapshot/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readListing(t, conn)
	if first.Type != "snapshot" || len(first.Snapshot.Elements) != 3 {
		t.Fatalf("initial frame = %+v", first)
	}
	if first.Snapshot.Elements[0].Debug != "Node(a)" {
		t.Errorf("initial element 0 = %+v", first.Snapshot.Elements[0])
	}

	resp, err := http.Post(ts.URL+"/snapshot/rebuild", "", nil)
	if err != nil {
		t.Fatalf("POST /snapshot/rebuild: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rebuild status = %d", resp.StatusCode)
	}

	second := readListing(t, conn)
	if len(second.Snapshot.Elements) != 1 || second.Snapshot.Elements[0].Debug != "Node(fresh)" {
		t.Errorf("frame after rebuild = %+v", second)
	}
	if len(second.Snapshot.Roots) != 1 || second.Snapshot.Roots[0] != 0 {
		t.Errorf("roots after rebuild = %v", second.Snapshot.Roots)
	}
}

func TestWatchFailedRebuildSendsNothing(t *testing.T) {
	s, _ := testServer(t, WithRebuild(func(ctx context.Context, snap *snapshot.Snapshot) error {
		return stderrors.New("bad tree")
	}))
	ts := httptest.NewServer(s)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/snapshot/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readListing(t, conn)

	resp, err := http.Post(ts.URL+"/snapshot/rebuild", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("received a frame after a failed rebuild")
	}
}

func TestWatchDropsClosedSubscriber(t *testing.T) {
	s, _ := testServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/snapshot/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readListing(t, conn)
	if n := s.feed.count(); n != 1 {
		t.Fatalf("subscribers = %d, want 1", n)
	}
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for s.feed.count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed subscriber was not removed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
