package stats

import (
	"context"

	"github.com/samber/lo"

	"github.com/verte-zerg/codetype/internal/model"
)

// Source is the data a Report is built from.
type Source interface {
	ListResults(ctx context.Context, cfg model.StatsConfig) ([]model.ResultAggregate, error)
	ListCharAggregatesForResults(ctx context.Context, resultIDs []string) ([]model.CharAggregate, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Results         []model.ResultAggregate
	WindowResultIDs []string
	CharAggsAll     []model.CharAggregate
	CharAggsWindow  []model.CharAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	results, err := src.ListResults(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(results) > cfg.Last {
		results = results[len(results)-cfg.Last:]
	}

	allIDs := resultIDs(results)
	windowIDs := allIDs
	if cfg.CurveWindow > 0 && len(results) > cfg.CurveWindow {
		windowIDs = resultIDs(results[len(results)-cfg.CurveWindow:])
	}
	charAggsAll, err := src.ListCharAggregatesForResults(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	charAggsWindow, err := src.ListCharAggregatesForResults(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Results:         results,
		WindowResultIDs: windowIDs,
		CharAggsAll:     charAggsAll,
		CharAggsWindow:  charAggsWindow,
	}, nil
}

func resultIDs(results []model.ResultAggregate) []string {
	return lo.Map(results, func(r model.ResultAggregate, _ int) string { return r.ResultID })
}
