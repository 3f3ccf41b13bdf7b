package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/expand"
	"git.home.luguber.info/inful/sitegen/internal/fetch"
	"git.home.luguber.info/inful/sitegen/internal/functions"
	"git.home.luguber.info/inful/sitegen/internal/generator"
	"git.home.luguber.info/inful/sitegen/internal/highlight"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/minify"
	"git.home.luguber.info/inful/sitegen/internal/writer"
)

// Global is shared state passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: sitegen.yaml when present)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Generate the output tree from a content directory"`
	Serve ServeCmd `cmd:"" help:"Build, serve the output and rebuild on changes"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing and installs a logger until the
// configuration selects the final one.
func (c *CLI) AfterApply(g *Global) error {
	level := config.LogLevelInfo
	if c.Verbose {
		level = config.LogLevelDebug
	}
	g.Logger = newLogger(os.Stderr, level, config.LogFormatText)
	slog.SetDefault(g.Logger)
	return nil
}

// loadConfig loads the configuration and replaces the logger with the
// configured one. -v always wins over logging.level.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, used, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.Verbose {
		cfg.Logging.Level = config.LogLevelDebug
	}
	g.Logger = newLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(g.Logger)
	if used != "" {
		g.Logger.Debug("Loaded configuration", logfields.Path(used))
	}
	return cfg, nil
}

func newLogger(w io.Writer, level config.LogLevel, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newGenerator wires the converter, functions, writer and recorder for one
// process.
func newGenerator(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) (*generator.Generator, error) {
	mdOpts := markdown.Options{
		GFM:       cfg.Markdown.GFM,
		HardWraps: cfg.Markdown.HardWraps,
		Unsafe:    cfg.Markdown.Unsafe,
	}
	if len(cfg.Highlight.Command) > 0 {
		hl, err := highlight.NewCommand(cfg.Highlight.Command, cfg.Highlight.Timeout, highlight.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		mdOpts.Highlighter = hl
	}
	conv := markdown.NewConverter(mdOpts)

	exp := expand.New(
		functions.Builtins(functions.Deps{
			Markdown:  conv,
			Fetcher:   fetch.NewClient(cfg.Fetch.Timeout, cfg.Fetch.UserAgent, fetch.WithRetry(cfg.Fetch.RetryPolicy())),
			MinifyCSS: minify.CSS,
		}),
		expand.WithObserver(func(name expand.Name) { recorder.IncFunctionCall(string(name)) }),
	)

	w := writer.New(writer.WithCompression(cfg.Build.Compress), writer.WithLogger(logger))
	return generator.New(generator.Config{
		Concurrency: cfg.Build.Concurrency,
		Clean:       cfg.Build.Clean,
		Globals:     cfg.Site.Globals,
	}, exp, conv,
		generator.WithWriter(w),
		generator.WithRecorder(recorder),
		generator.WithLogger(logger),
	), nil
}
