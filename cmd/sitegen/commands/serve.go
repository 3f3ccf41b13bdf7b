package commands

import (
	"context"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/preview"
)

// ServeCmd builds the site, serves the output and rebuilds on changes.
type ServeCmd struct {
	Input     string `arg:"" type:"existingdir" help:"Content directory to watch"`
	Output    string `arg:"" help:"Output directory to serve"`
	Host      string `help:"Listen address (overrides serve.host)"`
	Port      int    `short:"p" help:"Listen port (overrides serve.port)"`
	NoMetrics bool   `name:"no-metrics" help:"Do not expose /metrics"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if s.Host != "" {
		cfg.Serve.Host = s.Host
	}
	if s.Port > 0 {
		cfg.Serve.Port = s.Port
	}

	var (
		reg      *prom.Registry
		recorder metrics.Recorder = metrics.NoopRecorder{}
	)
	if cfg.Serve.Metrics && !s.NoMetrics {
		reg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	gen, err := newGenerator(cfg, g.Logger, recorder)
	if err != nil {
		return err
	}
	srv, err := preview.New(gen, s.Input, s.Output, preview.Options{
		Host:            cfg.Serve.Host,
		Port:            cfg.Serve.Port,
		Debounce:        cfg.Serve.Debounce,
		RebuildInterval: cfg.Serve.RebuildInterval,
		Registry:        reg,
		Logger:          g.Logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
