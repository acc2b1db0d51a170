package portal

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"skillroad/server/internal/model"
)

// Aggregator fans one search out to every configured adapter concurrently
// and merges the results.
//
// The join is fault-isolating: every adapter's outcome is collected
// independently, a failing adapter contributes zero listings, and nothing
// cancels the siblings. Each adapter call runs under its own timeout so a
// hung provider cannot stall the join.
type Aggregator struct {
	adapters   []Adapter
	timeout    time.Duration
	sampleSize int
	logger     *zap.Logger
}

// Stats reports the fan-out outcome of one search for observability.
type Stats struct {
	Adapters int `json:"adapters"`
	Failures int `json:"failures"`
}

// NewAggregator wires the configured adapters. sampleSize is the fixed
// batch fetched for market analysis.
func NewAggregator(adapters []Adapter, timeout time.Duration, sampleSize int, logger *zap.Logger) *Aggregator {
	if sampleSize < 1 {
		sampleSize = 100
	}
	return &Aggregator{
		adapters:   adapters,
		timeout:    timeout,
		sampleSize: sampleSize,
		logger:     logger,
	}
}

// SearchAllPortals queries every adapter with a per-adapter cap of
// ceil(limit / adapters), merges the results sorted by posting date
// descending and truncates to limit. Ties keep adapter order, then each
// adapter's own result order. With no adapters configured, or all of them
// failing, the result is simply empty.
func (a *Aggregator) SearchAllPortals(ctx context.Context, q Query, limit int) ([]model.JobListing, Stats) {
	stats := Stats{Adapters: len(a.adapters)}
	if len(a.adapters) == 0 || limit < 1 {
		return []model.JobListing{}, stats
	}

	perAdapter := (limit + len(a.adapters) - 1) / len(a.adapters)

	type outcome struct {
		jobs []model.JobListing
		err  error
	}
	outcomes := make([]outcome, len(a.adapters))

	var wg sync.WaitGroup
	for i, adapter := range a.adapters {
		wg.Add(1)
		go func(i int, adapter Adapter) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			jobs, err := adapter.Search(callCtx, q, perAdapter)
			outcomes[i] = outcome{jobs: jobs, err: err}
		}(i, adapter)
	}
	wg.Wait()

	merged := make([]model.JobListing, 0, limit)
	for i, out := range outcomes {
		if out.err != nil {
			stats.Failures++
			a.logger.Warn("portal search failed",
				zap.String("source", string(a.adapters[i].Source())),
				zap.String("role", q.Role),
				zap.Error(out.err),
			)
			continue
		}
		merged = append(merged, out.jobs...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].DatePosted.After(merged[j].DatePosted)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	a.logger.Debug("portal search complete",
		zap.String("role", q.Role),
		zap.Int("adapters", stats.Adapters),
		zap.Int("failures", stats.Failures),
		zap.Int("results", len(merged)),
	)
	return merged, stats
}

// AnalyzeJobMarket fetches one bounded sample (sampleSize listings) and
// summarizes it. Statistics are approximated from that single fetch, not an
// exhaustive corpus scan, and are documented as sample-limited.
func (a *Aggregator) AnalyzeJobMarket(ctx context.Context, jobRole, location string) *model.JobMarketData {
	jobs, _ := a.SearchAllPortals(ctx, Query{Role: jobRole, Location: location}, a.sampleSize)
	return Analyze(jobs, jobRole, location)
}
