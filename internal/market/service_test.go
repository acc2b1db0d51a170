package market_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"skillroad/server/internal/market"
	"skillroad/server/internal/model"
	"skillroad/server/internal/portal"
	"skillroad/server/internal/store"
)

type fakeStore struct {
	snapshot    *model.JobMarketData
	snapshotErr error
	inserted    []*model.JobMarketData
	insertErr   error

	upserted  []model.JobListing
	upsertErr error
	stored    []model.JobListing
	storedErr error
	gotFilter store.ListingFilter
	searches  []*model.UserJobSearch
	active    []model.UserJobSearch
	trending  []model.TrendingSkill
}

func (f *fakeStore) UpsertJobListing(_ context.Context, l *model.JobListing) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	l.ID = len(f.upserted) + 1
	f.upserted = append(f.upserted, *l)
	return nil
}

func (f *fakeStore) UpsertJobListings(_ context.Context, listings []model.JobListing) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.upserted = append(f.upserted, listings...)
	return len(listings), nil
}

func (f *fakeStore) GetJobListings(_ context.Context, fl store.ListingFilter) ([]model.JobListing, error) {
	f.gotFilter = fl
	if f.storedErr != nil {
		return nil, f.storedErr
	}
	return f.stored, nil
}

func (f *fakeStore) SaveUserSearch(_ context.Context, search *model.UserJobSearch) error {
	f.searches = append(f.searches, search)
	return nil
}

func (f *fakeStore) GetUserSearches(context.Context, string) ([]model.UserJobSearch, error) {
	return nil, nil
}

func (f *fakeStore) GetActiveSearches(context.Context) ([]model.UserJobSearch, error) {
	return f.active, nil
}

func (f *fakeStore) InsertMarketSnapshot(_ context.Context, data *model.JobMarketData) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, data)
	return nil
}

func (f *fakeStore) LatestMarketSnapshot(context.Context, string, string) (*model.JobMarketData, error) {
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return f.snapshot, nil
}

func (f *fakeStore) TrendingSkills(context.Context, int) ([]model.TrendingSkill, error) {
	return f.trending, nil
}

type fakeSearcher struct {
	listings []model.JobListing
	stats    portal.Stats
	analyzed *model.JobMarketData
	calls    int
}

func (f *fakeSearcher) SearchAllPortals(context.Context, portal.Query, int) ([]model.JobListing, portal.Stats) {
	f.calls++
	return f.listings, f.stats
}

func (f *fakeSearcher) AnalyzeJobMarket(_ context.Context, jobRole, location string) *model.JobMarketData {
	f.calls++
	if f.analyzed != nil {
		return f.analyzed
	}
	return &model.JobMarketData{JobRole: jobRole, Location: location}
}

func newService(st *fakeStore, se *fakeSearcher) *market.Service {
	return market.NewService(st, se, nil, 24*time.Hour, zap.NewNop())
}

func TestMarketData_FreshSnapshotServed(t *testing.T) {
	st := &fakeStore{snapshot: &model.JobMarketData{
		JobRole:     "backend developer",
		TotalJobs:   42,
		LastUpdated: time.Now().Add(-23 * time.Hour),
	}}
	se := &fakeSearcher{}
	svc := newService(st, se)

	data, err := svc.MarketData(context.Background(), "backend developer", "berlin")
	if err != nil {
		t.Fatalf("MarketData() error: %v", err)
	}
	if data.TotalJobs != 42 {
		t.Errorf("TotalJobs = %d, want cached 42", data.TotalJobs)
	}
	if se.calls != 0 {
		t.Errorf("searcher called %d times for a fresh snapshot, want 0", se.calls)
	}
}

func TestMarketData_StaleSnapshotRecomputed(t *testing.T) {
	st := &fakeStore{snapshot: &model.JobMarketData{
		JobRole:     "backend developer",
		TotalJobs:   42,
		LastUpdated: time.Now().Add(-25 * time.Hour),
	}}
	se := &fakeSearcher{analyzed: &model.JobMarketData{JobRole: "backend developer", TotalJobs: 7}}
	svc := newService(st, se)

	data, err := svc.MarketData(context.Background(), "backend developer", "")
	if err != nil {
		t.Fatalf("MarketData() error: %v", err)
	}
	if data.TotalJobs != 7 {
		t.Errorf("TotalJobs = %d, want recomputed 7", data.TotalJobs)
	}
	if len(st.inserted) != 1 {
		t.Errorf("inserted %d snapshots, want 1", len(st.inserted))
	}
}

func TestMarketData_MissingSnapshotComputed(t *testing.T) {
	st := &fakeStore{snapshotErr: store.ErrNotFound}
	se := &fakeSearcher{}
	svc := newService(st, se)

	if _, err := svc.MarketData(context.Background(), "data analyst", ""); err != nil {
		t.Fatalf("MarketData() error: %v", err)
	}
	if len(st.inserted) != 1 {
		t.Errorf("inserted %d snapshots, want 1", len(st.inserted))
	}
}

func TestMarketData_EmptyRoleRejected(t *testing.T) {
	svc := newService(&fakeStore{}, &fakeSearcher{})

	_, err := svc.MarketData(context.Background(), "  ", "")
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestSearch_PersistsListingsAndSearch(t *testing.T) {
	st := &fakeStore{}
	se := &fakeSearcher{listings: []model.JobListing{
		{ExternalID: "a1", Source: model.SourceLinkedIn},
	}}
	svc := newService(st, se)

	listings, _, err := svc.Search(context.Background(), "user-1", portal.Query{Role: "backend developer"}, 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("len(listings) = %d, want 1", len(listings))
	}
	if len(st.upserted) != 1 {
		t.Errorf("upserted %d listings, want 1", len(st.upserted))
	}
	if len(st.searches) != 1 || st.searches[0].JobRole != "backend developer" {
		t.Errorf("saved searches = %+v", st.searches)
	}
}

func TestSearch_PersistFailureStillReturnsResults(t *testing.T) {
	st := &fakeStore{upsertErr: errors.New("db down")}
	se := &fakeSearcher{listings: []model.JobListing{{ExternalID: "a1"}}}
	svc := newService(st, se)

	listings, _, err := svc.Search(context.Background(), "user-1", portal.Query{Role: "dev"}, 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(listings) != 1 {
		t.Errorf("len(listings) = %d, want 1", len(listings))
	}
}

func TestSearch_EmptyFanOutServesStoredListings(t *testing.T) {
	st := &fakeStore{stored: []model.JobListing{{ExternalID: "s1", Title: "Backend Engineer"}}}
	se := &fakeSearcher{stats: portal.Stats{Adapters: 3, Failures: 3}}
	svc := newService(st, se)

	listings, _, err := svc.Search(context.Background(), "user-1", portal.Query{Role: "backend developer"}, 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(listings) != 1 || listings[0].ExternalID != "s1" {
		t.Fatalf("listings = %+v, want stored fallback", listings)
	}
	if st.gotFilter.JobRole != "backend developer" || st.gotFilter.Limit != 10 {
		t.Errorf("filter = %+v", st.gotFilter)
	}
}

func TestSearch_StoredFallbackFailureTolerated(t *testing.T) {
	st := &fakeStore{storedErr: errors.New("db down")}
	se := &fakeSearcher{}
	svc := newService(st, se)

	listings, _, err := svc.Search(context.Background(), "user-1", portal.Query{Role: "dev"}, 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("listings = %+v, want empty when fallback fails too", listings)
	}
}

func TestSearch_EmptyRoleRejected(t *testing.T) {
	svc := newService(&fakeStore{}, &fakeSearcher{})

	_, _, err := svc.Search(context.Background(), "user-1", portal.Query{}, 10)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestSaveListing_AppliesDefaults(t *testing.T) {
	st := &fakeStore{}
	svc := newService(st, &fakeSearcher{})

	saved, err := svc.SaveListing(context.Background(), model.JobListing{
		ExternalID: "x1",
		Title:      "Backend Engineer",
		Source:     model.SourceLinkedIn,
	})
	if err != nil {
		t.Fatalf("SaveListing() error: %v", err)
	}

	if saved.ID == 0 {
		t.Error("saved listing should carry its row ID")
	}
	if saved.JobType != model.JobTypeFullTime || saved.ExperienceLevel != model.ExperienceMid {
		t.Errorf("defaults not applied: %+v", saved)
	}
	if saved.DatePosted.IsZero() {
		t.Error("DatePosted should default to now")
	}
}

func TestSaveListing_InvalidInputRejected(t *testing.T) {
	svc := newService(&fakeStore{}, &fakeSearcher{})

	cases := []model.JobListing{
		{Title: "no external id", Source: model.SourceIndeed},
		{ExternalID: "x", Title: "bad source", Source: "monster"},
		{ExternalID: "x", Title: "bad type", Source: model.SourceIndeed, JobType: "gig"},
	}
	for _, l := range cases {
		_, err := svc.SaveListing(context.Background(), l)
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("SaveListing(%+v) error = %v, want ValidationError", l, err)
		}
	}
}

func TestRefresh_DedupesPairs(t *testing.T) {
	st := &fakeStore{active: []model.UserJobSearch{
		{UserID: "u1", JobRole: "Backend Developer", Location: "Berlin"},
		{UserID: "u2", JobRole: "backend developer", Location: "berlin"},
		{UserID: "u3", JobRole: "data analyst", Location: ""},
	}}
	se := &fakeSearcher{}
	svc := newService(st, se)

	refreshed, failed, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if refreshed != 2 || failed != 0 {
		t.Errorf("refreshed = %d, failed = %d, want 2/0", refreshed, failed)
	}
	if len(st.inserted) != 2 {
		t.Errorf("inserted %d snapshots, want 2", len(st.inserted))
	}
}

func TestRefresh_CountsFailures(t *testing.T) {
	st := &fakeStore{
		active: []model.UserJobSearch{
			{UserID: "u1", JobRole: "backend developer"},
			{UserID: "u2", JobRole: "data analyst"},
		},
		insertErr: errors.New("db down"),
	}
	svc := newService(st, &fakeSearcher{})

	refreshed, failed, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if refreshed != 0 || failed != 2 {
		t.Errorf("refreshed = %d, failed = %d, want 0/2", refreshed, failed)
	}
}
