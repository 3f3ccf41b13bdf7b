package preview

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/generator"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

type fakeBuilder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeBuilder) Generate(_ context.Context, _, output string) (*generator.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(output, "index.html"), []byte("<p>home</p>"), 0o644); err != nil {
		return nil, err
	}
	return &generator.Report{}, nil
}

func (f *fakeBuilder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestShouldIgnoreEvent(t *testing.T) {
	require.True(t, shouldIgnoreEvent("/tmp/.hidden.md"))
	require.True(t, shouldIgnoreEvent("/tmp/#foo#"))
	require.True(t, shouldIgnoreEvent("/tmp/foo.swp"))
	require.True(t, shouldIgnoreEvent("/tmp/foo.md~"))
	require.True(t, shouldIgnoreEvent("/tmp/.DS_Store"))
	require.False(t, shouldIgnoreEvent("/tmp/visible.md"))
	require.False(t, shouldIgnoreEvent("/tmp/_post.html"))
}

func TestDebouncerCoalesces(t *testing.T) {
	var fired atomic.Int32
	d := newDebouncer(30*time.Millisecond, func() { fired.Add(1) })
	for range 10 {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())

	d.Trigger()
	d.Stop()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestNew_RequiresInputDir(t *testing.T) {
	_, err := New(&fakeBuilder{}, filepath.Join(t.TempDir(), "missing"), t.TempDir(), Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestHandler(t *testing.T) {
	reg := prom.NewRegistry()
	metrics.NewPrometheusRecorder(reg).IncFunctionCall("file")

	b := &fakeBuilder{}
	s, err := New(b, t.TempDir(), t.TempDir(), Options{Registry: reg})
	require.NoError(t, err)
	h := s.Handler()

	code, _ := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)

	s.build(context.Background(), "test")
	code, body := get(t, h, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<p>home</p>", body)

	code, body = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "sitegen_function_calls_total")

	b.err = stderrors.New("boom")
	s.build(context.Background(), "test")
	code, body = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "last rebuild failed: boom")
}

func TestHandler_NoGoodBuild(t *testing.T) {
	b := &fakeBuilder{err: stderrors.New("broken template")}
	s, err := New(b, t.TempDir(), t.TempDir(), Options{})
	require.NoError(t, err)
	s.build(context.Background(), "initial")

	code, body := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "broken template")

	code, _ = get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRun_RebuildsOnChange(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	b := &fakeBuilder{}
	s, err := New(b, in, out, Options{Host: "127.0.0.1", Port: 0, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return b.Calls() >= 1 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(in, "page.md"), []byte(time.Now().String()), 0o644)
		return b.Calls() >= 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ScheduledRebuild(t *testing.T) {
	b := &fakeBuilder{}
	s, err := New(b, t.TempDir(), filepath.Join(t.TempDir(), "out"), Options{
		Host:            "127.0.0.1",
		RebuildInterval: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return b.Calls() >= 3 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
