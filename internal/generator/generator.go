package generator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitegen/internal/cascade"
	"git.home.luguber.info/inful/sitegen/internal/expand"
	ferrors "git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/scope"
	"git.home.luguber.info/inful/sitegen/internal/writer"
)

// Converter renders Markdown to HTML.
type Converter interface {
	Convert(ctx context.Context, src []byte) (string, error)
}

// Config holds the run settings.
type Config struct {
	// Concurrency bounds the entries processed at once per directory level.
	Concurrency int
	// Clean removes the output directory before generating.
	Clean bool
	// Globals are the lowest priority variables, below any _globals.yaml.
	Globals map[string]any
}

// Generator produces an output tree from a content tree.
type Generator struct {
	cfg      Config
	expander *expand.Expander
	markdown Converter
	writer   *writer.Writer
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithWriter replaces the default writer.
func WithWriter(w *writer.Writer) Option {
	return func(g *Generator) { g.writer = w }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New returns a Generator.
func New(cfg Config, expander *expand.Expander, markdown Converter, opts ...Option) *Generator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	g := &Generator{
		cfg:      cfg,
		expander: expander,
		markdown: markdown,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.writer == nil {
		g.writer = writer.New(writer.WithLogger(g.logger))
	}
	return g
}

// run carries the state shared by one Generate call.
type run struct {
	*Generator
	cascade *cascade.Cascade
	report  *Report
	logger  *slog.Logger
	globals *scope.Scope
	// nested is the absolute output directory when it lies inside the
	// input. The walk never descends into it.
	nested string
}

// Generate processes input into output. Page failures are recorded in the
// report; the returned error is set only when the run was aborted.
func (g *Generator) Generate(ctx context.Context, input, output string) (*Report, error) {
	input, output = filepath.Clean(input), filepath.Clean(output)
	runID := uuid.NewString()
	report := newReport(runID, input, output)
	logger := g.logger.With(logfields.RunID(runID))

	err := g.prepare(input, output)
	if err == nil {
		g.recorder.SetConcurrency(g.cfg.Concurrency)
		logger.Info("Generation started",
			logfields.Dir(input),
			logfields.Output(output),
			slog.Int("concurrency", g.cfg.Concurrency))

		r := &run{
			Generator: g,
			cascade:   cascade.New(input),
			report:    report,
			logger:    logger,
			globals:   scope.New(g.cfg.Globals),
			nested:    nestedOutput(input, output),
		}
		err = r.directory(ctx, input, output)
	}

	canceled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	report.finish(err, canceled)
	g.recorder.ObserveBuildDuration(report.Duration())
	g.recorder.IncBuildOutcome(buildOutcome(report.Outcome))

	if err != nil {
		logger.Error("Generation aborted", logfields.Error(err), logfields.Since(report.Start))
		return report, err
	}
	logger.Info("Generation complete",
		logfields.Count(report.Total()),
		slog.Int("failed", len(report.Failures())),
		logfields.Since(report.Start))
	return report, nil
}

func (g *Generator) prepare(input, output string) error {
	info, err := os.Stat(input)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "input directory not accessible").
			WithContext("path", input).
			Fatal().
			Build()
	}
	if !info.IsDir() {
		return ferrors.ConfigError("input is not a directory").
			WithContext("path", input).
			Build()
	}
	if within(output, input) {
		return ferrors.ConfigError("output directory must not contain the input directory").
			WithContext("path", output).
			Build()
	}
	if g.cfg.Clean {
		if err := os.RemoveAll(output); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clean output directory").
				WithContext("path", output).
				Fatal().
				Build()
		}
	}
	return nil
}

// directory processes every entry of dir concurrently and returns after all
// of them settled.
func (r *run) directory(ctx context.Context, dir, out string) error {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read content directory").
			WithContext("path", dir).
			Fatal().
			Build()
	}

	globals, err := r.cascade.FindGlobals(dir)
	if err != nil {
		return err
	}
	sc := r.globals.Merge(globals)

	// Work is started with gctx so a fatal error stops new entries, but runs
	// with ctx so entries already in flight are allowed to finish.
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.cfg.Concurrency)
	for _, d := range dirents {
		entry := Classify(dir, d)
		if entry.Hidden {
			r.report.recordSkipped()
			continue
		}
		if r.isOutput(entry) {
			r.logger.Debug("Skipping output directory", logfields.Path(entry.Path))
			continue
		}
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return r.entry(ctx, entry, sc, out)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// entry runs the pipeline for one entry. Only errors that must abort the run
// are returned.
func (r *run) entry(ctx context.Context, e Entry, sc *scope.Scope, out string) error {
	if e.Kind == KindDirectory {
		err := r.directory(ctx, e.Path, filepath.Join(out, e.Name))
		if err == nil {
			r.report.recordWritten(KindDirectory)
		}
		return err
	}

	start := time.Now()
	written, err := r.file(ctx, e, sc, out)
	r.recorder.ObserveEntryDuration(string(e.Kind), time.Since(start))

	switch {
	case err == nil:
		r.report.recordWritten(e.Kind)
		r.recorder.IncEntryResult(string(e.Kind), metrics.ResultSuccess)
		r.logger.Debug("Wrote entry",
			logfields.Path(e.Path),
			logfields.Output(written),
			logfields.Kind(string(e.Kind)),
			logfields.Since(start))
		return nil
	case ctx.Err() != nil:
		r.recorder.IncEntryResult(string(e.Kind), metrics.ResultCanceled)
		return ctx.Err()
	case ferrors.HasCategory(err, ferrors.CategoryConfig):
		r.recorder.IncEntryResult(string(e.Kind), metrics.ResultFailed)
		return err
	default:
		r.report.recordFailure(Failure{Path: e.Path, Kind: e.Kind, Err: err})
		r.recorder.IncEntryResult(string(e.Kind), metrics.ResultFailed)
		r.logger.Error("Failed to process entry",
			logfields.Path(e.Path),
			logfields.Kind(string(e.Kind)),
			logfields.Error(err))
		return nil
	}
}

func (r *run) file(ctx context.Context, e Entry, sc *scope.Scope, out string) (string, error) {
	switch e.Kind {
	case KindMarkdown:
		return r.markdownPage(ctx, e, sc, out)
	case KindHTML:
		return r.htmlPage(ctx, e, sc, out)
	case KindAsset:
		return r.asset(ctx, e, sc, out)
	default:
		dst := filepath.Join(out, e.Name)
		return dst, r.writer.CopyFile(e.Path, dst)
	}
}

// nestedOutput returns the absolute output path when output lies strictly
// inside input, else "".
func nestedOutput(input, output string) string {
	absIn, err := filepath.Abs(input)
	if err != nil {
		return ""
	}
	absOut, err := filepath.Abs(output)
	if err != nil || absIn == absOut || !within(absIn, absOut) {
		return ""
	}
	return absOut
}

func (r *run) isOutput(e Entry) bool {
	if r.nested == "" || e.Kind != KindDirectory {
		return false
	}
	abs, err := filepath.Abs(e.Path)
	return err == nil && abs == r.nested
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func buildOutcome(o Outcome) metrics.BuildOutcomeLabel {
	switch o {
	case OutcomeSuccess:
		return metrics.BuildOutcomeSuccess
	case OutcomeWarning:
		return metrics.BuildOutcomeWarning
	case OutcomeCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}
