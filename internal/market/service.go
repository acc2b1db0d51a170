// Package market contains the job-market business logic: running portal
// searches, persisting listings, and serving freshness-bounded market
// snapshots. It is transport-agnostic.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"skillroad/server/internal/model"
	"skillroad/server/internal/portal"
	"skillroad/server/internal/store"
)

const (
	defaultSearchLimit = 25
	maxSearchLimit     = 100
	defaultTrendLimit  = 20

	refreshChannel = "market.refreshed"
)

// Store is the persistence surface the service needs.
type Store interface {
	UpsertJobListing(ctx context.Context, l *model.JobListing) error
	UpsertJobListings(ctx context.Context, listings []model.JobListing) (int, error)
	GetJobListings(ctx context.Context, f store.ListingFilter) ([]model.JobListing, error)
	SaveUserSearch(ctx context.Context, search *model.UserJobSearch) error
	GetUserSearches(ctx context.Context, userID string) ([]model.UserJobSearch, error)
	GetActiveSearches(ctx context.Context) ([]model.UserJobSearch, error)
	InsertMarketSnapshot(ctx context.Context, data *model.JobMarketData) error
	LatestMarketSnapshot(ctx context.Context, jobRole, location string) (*model.JobMarketData, error)
	TrendingSkills(ctx context.Context, limit int) ([]model.TrendingSkill, error)
}

// Searcher is the portal fan-out surface, implemented by portal.Aggregator.
type Searcher interface {
	SearchAllPortals(ctx context.Context, q portal.Query, limit int) ([]model.JobListing, portal.Stats)
	AnalyzeJobMarket(ctx context.Context, jobRole, location string) *model.JobMarketData
}

// Service encapsulates job-market business logic.
type Service struct {
	store     Store
	searcher  Searcher
	rdb       *redis.Client
	freshness time.Duration
	logger    *zap.Logger
}

// NewService wires the market service. freshness bounds how old a stored
// snapshot may be before a read triggers recomputation.
func NewService(st Store, searcher Searcher, rdb *redis.Client, freshness time.Duration, logger *zap.Logger) *Service {
	if freshness <= 0 {
		freshness = 24 * time.Hour
	}
	return &Service{
		store:     st,
		searcher:  searcher,
		rdb:       rdb,
		freshness: freshness,
		logger:    logger,
	}
}

// Search fans the query out to every portal, records the search for the
// user, and persists the fetched listings. Persistence failures do not fail
// the search; the fresh results are still returned. When the fan-out comes
// back empty, previously stored listings matching the query are served
// instead.
func (s *Service) Search(ctx context.Context, userID string, q portal.Query, limit int) ([]model.JobListing, portal.Stats, error) {
	q.Role = strings.TrimSpace(q.Role)
	if q.Role == "" {
		return nil, portal.Stats{}, &model.ValidationError{Msg: "jobRole is required"}
	}
	if limit < 1 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	listings, stats := s.searcher.SearchAllPortals(ctx, q, limit)

	if _, err := s.store.UpsertJobListings(ctx, listings); err != nil {
		s.logger.Warn("persist listings failed", zap.String("role", q.Role), zap.Error(err))
	}

	if len(listings) == 0 {
		listings = s.storedListings(ctx, q, limit, stats)
	}

	if userID != "" {
		search := &model.UserJobSearch{
			UserID:          userID,
			JobRole:         q.Role,
			Location:        q.Location,
			ExperienceLevel: q.ExperienceLevel,
		}
		if err := s.store.SaveUserSearch(ctx, search); err != nil {
			s.logger.Warn("save user search failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return listings, stats, nil
}

// storedListings serves persisted listings for a query whose live fan-out
// produced nothing. Fallback failures leave the result empty.
func (s *Service) storedListings(ctx context.Context, q portal.Query, limit int, stats portal.Stats) []model.JobListing {
	filter := store.ListingFilter{
		JobRole:  q.Role,
		Location: q.Location,
		Limit:    limit,
	}
	if lvl, err := model.ParseExperienceLevel(q.ExperienceLevel); err == nil {
		filter.ExperienceLevel = lvl
	}

	stored, err := s.store.GetJobListings(ctx, filter)
	if err != nil {
		s.logger.Warn("stored listings fallback failed", zap.String("role", q.Role), zap.Error(err))
		return nil
	}
	if len(stored) > 0 {
		s.logger.Info("serving stored listings",
			zap.String("role", q.Role),
			zap.Int("count", len(stored)),
			zap.Int("portal_failures", stats.Failures),
		)
	}
	return stored
}

// SaveListing validates and persists one externally supplied listing,
// applying the canonical enum defaults the adapters use.
func (s *Service) SaveListing(ctx context.Context, l model.JobListing) (*model.JobListing, error) {
	l.ExternalID = strings.TrimSpace(l.ExternalID)
	l.Title = strings.TrimSpace(l.Title)
	if l.ExternalID == "" || l.Title == "" {
		return nil, &model.ValidationError{Msg: "externalId and title are required"}
	}
	if _, err := model.ParseSource(string(l.Source)); err != nil {
		return nil, &model.ValidationError{Msg: err.Error()}
	}

	if l.JobType == "" {
		l.JobType = model.JobTypeFullTime
	} else if _, err := model.ParseJobType(string(l.JobType)); err != nil {
		return nil, &model.ValidationError{Msg: err.Error()}
	}
	if l.ExperienceLevel == "" {
		l.ExperienceLevel = model.ExperienceMid
	} else if _, err := model.ParseExperienceLevel(string(l.ExperienceLevel)); err != nil {
		return nil, &model.ValidationError{Msg: err.Error()}
	}
	if l.DatePosted.IsZero() {
		l.DatePosted = time.Now().UTC()
	}
	if l.Requirements == nil {
		l.Requirements = []string{}
	}

	if err := s.store.UpsertJobListing(ctx, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// MarketData serves the market snapshot for a (role, location) pair. A
// stored snapshot younger than the freshness window is served as-is; a
// stale or missing one is recomputed from a fresh portal sample and
// persisted before being returned.
func (s *Service) MarketData(ctx context.Context, jobRole, location string) (*model.JobMarketData, error) {
	jobRole = strings.TrimSpace(jobRole)
	if jobRole == "" {
		return nil, &model.ValidationError{Msg: "jobRole is required"}
	}

	if cached := s.cacheGet(ctx, jobRole, location); cached != nil {
		return cached, nil
	}

	snapshot, err := s.store.LatestMarketSnapshot(ctx, jobRole, location)
	switch {
	case err == nil:
		age := time.Since(snapshot.LastUpdated)
		if age < s.freshness {
			s.logger.Debug("serving stored market snapshot",
				zap.String("role", jobRole),
				zap.Duration("age", age),
			)
			s.cacheSet(ctx, snapshot, s.freshness-age)
			return snapshot, nil
		}
	case errors.Is(err, store.ErrNotFound):
		// fall through to recompute
	default:
		return nil, err
	}

	return s.refreshSnapshot(ctx, jobRole, location)
}

// Refresh recomputes snapshots for every active saved search. Pairs shared
// by several users are computed once. Per-pair failures are counted and
// logged, never aborting the sweep.
func (s *Service) Refresh(ctx context.Context) (refreshed, failed int, err error) {
	searches, err := s.store.GetActiveSearches(ctx)
	if err != nil {
		return 0, 0, err
	}

	seen := make(map[string]bool)
	for _, search := range searches {
		key := strings.ToLower(search.JobRole) + "\x00" + strings.ToLower(search.Location)
		if seen[key] {
			continue
		}
		seen[key] = true

		if _, err := s.refreshSnapshot(ctx, search.JobRole, search.Location); err != nil {
			failed++
			s.logger.Warn("snapshot refresh failed",
				zap.String("role", search.JobRole),
				zap.String("location", search.Location),
				zap.Error(err),
			)
			continue
		}
		refreshed++
	}
	return refreshed, failed, nil
}

// TrendingSkills returns the most demanded skills across recently stored
// listings.
func (s *Service) TrendingSkills(ctx context.Context, limit int) ([]model.TrendingSkill, error) {
	if limit < 1 {
		limit = defaultTrendLimit
	}
	return s.store.TrendingSkills(ctx, limit)
}

// Searches returns a user's saved searches.
func (s *Service) Searches(ctx context.Context, userID string) ([]model.UserJobSearch, error) {
	return s.store.GetUserSearches(ctx, userID)
}

func (s *Service) refreshSnapshot(ctx context.Context, jobRole, location string) (*model.JobMarketData, error) {
	data := s.searcher.AnalyzeJobMarket(ctx, jobRole, location)
	if err := s.store.InsertMarketSnapshot(ctx, data); err != nil {
		return nil, err
	}

	s.cacheSet(ctx, data, s.freshness)
	s.publishRefresh(ctx, data)

	s.logger.Info("market snapshot refreshed",
		zap.String("role", jobRole),
		zap.String("location", location),
		zap.Int("total_jobs", data.TotalJobs),
	)
	return data, nil
}

// cacheKey is lowercase so repeated lookups of the same pair share one
// entry regardless of input casing.
func cacheKey(jobRole, location string) string {
	return "market:" + strings.ToLower(jobRole) + ":" + strings.ToLower(location)
}

// cacheGet serves the redis snapshot copy when present. Cache failures are
// invisible; the store remains the source of truth.
func (s *Service) cacheGet(ctx context.Context, jobRole, location string) *model.JobMarketData {
	if s.rdb == nil {
		return nil
	}

	raw, err := s.rdb.Get(ctx, cacheKey(jobRole, location)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("market cache read failed", zap.Error(err))
		}
		return nil
	}

	var data model.JobMarketData
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Warn("market cache entry corrupt", zap.Error(err))
		return nil
	}
	return &data
}

// cacheSet stores a snapshot copy expiring when the snapshot goes stale.
func (s *Service) cacheSet(ctx context.Context, data *model.JobMarketData, ttl time.Duration) {
	if s.rdb == nil || ttl <= 0 {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, cacheKey(data.JobRole, data.Location), raw, ttl).Err(); err != nil {
		s.logger.Warn("market cache write failed", zap.Error(err))
	}
}

// publishRefresh notifies subscribers that a snapshot changed (non-fatal).
func (s *Service) publishRefresh(ctx context.Context, data *model.JobMarketData) {
	if s.rdb == nil {
		return
	}

	event, _ := json.Marshal(map[string]any{
		"jobRole":   data.JobRole,
		"location":  data.Location,
		"totalJobs": data.TotalJobs,
		"updatedAt": data.LastUpdated.UTC().Format(time.RFC3339),
	})
	if err := s.rdb.Publish(ctx, refreshChannel, event).Err(); err != nil {
		s.logger.Warn("publish market refresh failed", zap.Error(err))
	}
}
