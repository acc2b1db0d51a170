package portal

import (
	"context"

	"go.uber.org/zap"

	"skillroad/server/internal/model"
)

// NaukriAdapter is a stub: Naukri has no public API, so searches always
// return an empty list. Keeping the adapter in the fan-out preserves the
// source enum and makes adding a real integration a local change.
type NaukriAdapter struct {
	logger *zap.Logger
}

func NewNaukriAdapter(logger *zap.Logger) *NaukriAdapter {
	return &NaukriAdapter{logger: logger}
}

func (a *NaukriAdapter) Source() model.Source { return model.SourceNaukri }

func (a *NaukriAdapter) Search(_ context.Context, q Query, _ int) ([]model.JobListing, error) {
	a.logger.Debug("naukri search requested, no public API available",
		zap.String("role", q.Role),
		zap.String("location", q.Location),
	)
	return []model.JobListing{}, nil
}
