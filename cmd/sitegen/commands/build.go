package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitegen/internal/config"
	ferrors "git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/generator"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Input       string `arg:"" type:"existingdir" help:"Content directory"`
	Output      string `arg:"" help:"Output directory"`
	Clean       bool   `help:"Remove the output directory before building (overrides build.clean)"`
	Compress    bool   `help:"Write .gz files next to documents (overrides build.compress)"`
	Concurrency int    `short:"j" help:"Entries processed at once per directory (overrides build.concurrency)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	b.apply(cfg)

	gen, err := newGenerator(cfg, g.Logger, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	report, err := gen.Generate(ctx, b.Input, b.Output)
	if err != nil {
		return err
	}
	fmt.Println(report.Summary())
	return failuresError(report)
}

func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Clean {
		cfg.Build.Clean = true
	}
	if b.Compress {
		cfg.Build.Compress = true
	}
	if b.Concurrency > 0 {
		cfg.Build.Concurrency = b.Concurrency
	}
}

// failuresError turns recorded page failures into a non-zero exit. The
// output tree is still complete for every other entry.
func failuresError(report *generator.Report) error {
	failures := report.Failures()
	if len(failures) == 0 {
		return nil
	}
	return ferrors.RenderError(fmt.Sprintf("%d entries failed", len(failures))).
		WithContext("path", failures[0].Path).
		WithCause(failures[0].Err).
		Warning().
		Build()
}
