package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/quantarch/tradesim/pkg/data/duckdb"
	"github.com/quantarch/tradesim/pkg/datasource"
	"github.com/quantarch/tradesim/pkg/datasource/historical"
	"github.com/quantarch/tradesim/pkg/datasource/synthetic"
)

// BuildTickSource materializes the configured tick feed. The returned closer
// releases whatever the source holds open and is safe to defer immediately.
func BuildTickSource(ctx context.Context, cfg SourceConfig) (datasource.TickDataSource, func(), error) {
	switch cfg.Kind {
	case "synthetic":
		return buildSynthetic(cfg)
	case "historical":
		return buildHistorical(cfg)
	case "duckdb":
		return buildDuckdb(ctx, cfg)
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

func buildSynthetic(cfg SourceConfig) (datasource.TickDataSource, func(), error) {
	if cfg.Symbol != "EURUSD" {
		return nil, nil, fmt.Errorf("no synthetic generator preset for %q", cfg.Symbol)
	}
	duration, err := time.ParseDuration(cfg.Duration)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid source duration: %w", err)
	}

	start := time.Now().UTC().Truncate(time.Hour)
	if cfg.From != "" {
		if start, err = time.Parse(time.DateTime, cfg.From); err != nil {
			return nil, nil, fmt.Errorf("invalid source from: %w", err)
		}
	}

	generator := synthetic.NewEURUSDGenerator(cfg.Seed, start, duration, cfg.Drift, cfg.Volatility)
	return generator, func() {}, nil
}

func buildHistorical(cfg SourceConfig) (datasource.TickDataSource, func(), error) {
	window, err := cfg.Window()
	if err != nil {
		return nil, nil, err
	}

	source := historical.NewSource[historical.BinaryTick](cfg.Path)
	if err := source.Open(); err != nil {
		return nil, nil, err
	}

	reader := historical.NewTickReader(source, cfg.Symbol, window[0], window[1])
	return reader, source.Close, nil
}

func buildDuckdb(ctx context.Context, cfg SourceConfig) (datasource.TickDataSource, func(), error) {
	window, err := cfg.Window()
	if err != nil {
		return nil, nil, err
	}

	reader := duckdb.NewReader(cfg.Path)
	if err := reader.Connect(); err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	// The whole window is buffered up front, so the connection does not
	// outlive this call.
	source, err := duckdb.NewTickSource(ctx, reader, cfg.Symbol, window[0], window[1])
	if err != nil {
		return nil, nil, err
	}
	return source, func() {}, nil
}
