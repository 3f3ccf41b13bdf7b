// Package preview builds a site, serves the output over HTTP and rebuilds
// whenever the content tree changes.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/generator"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Builder runs one generation.
type Builder interface {
	Generate(ctx context.Context, input, output string) (*generator.Report, error)
}

// Options configures a Server.
type Options struct {
	Host     string
	Port     int
	Debounce time.Duration
	// RebuildInterval schedules periodic full rebuilds; zero disables them.
	RebuildInterval time.Duration
	// Registry, when set, is exposed on /metrics.
	Registry *prom.Registry
	Logger   *slog.Logger
}

// Server is a local preview of a content tree.
type Server struct {
	builder Builder
	input   string
	output  string
	opts    Options
	logger  *slog.Logger
	status  buildStatus
	rebuild chan string
}

// New returns a Server for input rendered into output.
func New(builder Builder, input, output string, opts Options) (*Server, error) {
	absIn, err := resolveDir(input)
	if err != nil {
		return nil, err
	}
	absOut, err := filepath.Abs(output)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve output directory").
			WithContext("path", output).
			Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		builder: builder,
		input:   absIn,
		output:  absOut,
		opts:    opts,
		logger:  logger,
		rebuild: make(chan string, 1),
	}, nil
}

// resolveDir returns the absolute path of dir, which must exist.
func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryConfig, "resolve input directory").
			WithContext("path", dir).
			Build()
	}
	if st, statErr := os.Stat(abs); statErr != nil || !st.IsDir() {
		return "", ferrors.ConfigError("input directory not found or not a directory").
			WithContext("path", abs).
			WithCause(statErr).
			Build()
	}
	return abs, nil
}

// Run builds once and then serves, watches and rebuilds until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.build(ctx, "initial")

	watcher, err := newWatcher(s.input, s.output, s.logger)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	sched, err := s.startScheduler()
	if err != nil {
		return err
	}
	if sched != nil {
		defer func() {
			if err := sched.Shutdown(); err != nil {
				s.logger.Warn("Scheduler shutdown error", logfields.Error(err))
			}
		}()
	}

	addr := net.JoinHostPort(s.opts.Host, fmt.Sprint(s.opts.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egctx := errgroup.WithContext(ctx)
	srv.BaseContext = func(net.Listener) context.Context { return egctx }

	eg.Go(func() error {
		s.logger.Info("Preview server listening", slog.String("url", "http://"+addr), logfields.Output(s.output))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return ferrors.WrapError(err, ferrors.CategoryNetwork, "preview server failed").
				WithContext("addr", addr).
				Fatal().
				Build()
		}
		return nil
	})
	eg.Go(func() error {
		s.rebuildLoop(egctx)
		return nil
	})
	eg.Go(func() error {
		deb := newDebouncer(s.opts.Debounce, func() { s.requestRebuild("change") })
		defer deb.Stop()
		return watcher.Run(egctx, deb.Trigger)
	})
	eg.Go(func() error {
		<-egctx.Done()
		s.logger.Info("Shutting down preview server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = eg.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// requestRebuild queues a rebuild. Requests arriving while one is queued
// are coalesced.
func (s *Server) requestRebuild(reason string) {
	select {
	case s.rebuild <- reason:
	default:
	}
}

func (s *Server) rebuildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-s.rebuild:
			s.build(ctx, reason)
		}
	}
}

func (s *Server) build(ctx context.Context, reason string) {
	s.logger.Info("Rebuilding site", slog.String("reason", reason))
	report, err := s.builder.Generate(ctx, s.input, s.output)
	if err != nil {
		s.logger.Warn("Rebuild failed", logfields.Error(err))
		s.status.setError(err)
		return
	}
	s.status.setSuccess()
	s.logger.Info("Rebuild done", slog.String("summary", report.Summary()))
}

// buildStatus tracks the last build for the status endpoint.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
	builds       int
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
	bs.builds++
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
	bs.builds++
}

func (bs *buildStatus) get() (err error, hasGoodBuild bool, builds int) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.hasGoodBuild, bs.builds
}
