package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"skillroad/server/internal/model"
)

// UpsertJobListings stores a fetched batch. (external_id, source) is the
// identity: re-fetched listings update in place. Returns the number of rows
// written.
func (s *Store) UpsertJobListings(ctx context.Context, listings []model.JobListing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, l := range listings {
		batch.Queue(
			`INSERT INTO job_listings
			   (external_id, title, company, location, description, requirements,
			    salary, job_type, experience_level, date_posted, url, source)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (external_id, source) DO UPDATE
			 SET title            = EXCLUDED.title,
			     company          = EXCLUDED.company,
			     location         = EXCLUDED.location,
			     description      = EXCLUDED.description,
			     requirements     = EXCLUDED.requirements,
			     salary           = EXCLUDED.salary,
			     job_type         = EXCLUDED.job_type,
			     experience_level = EXCLUDED.experience_level,
			     date_posted      = EXCLUDED.date_posted,
			     url              = EXCLUDED.url`,
			l.ExternalID, l.Title, l.Company, l.Location, l.Description, l.Requirements,
			l.Salary, string(l.JobType), string(l.ExperienceLevel), l.DatePosted, l.URL, string(l.Source),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range listings {
		if _, err := results.Exec(); err != nil {
			return written, fmt.Errorf("upsert job listing: %w", err)
		}
		written++
	}
	return written, nil
}

// UpsertJobListing stores one listing and fills its row ID. Same identity
// rule as the batch path.
func (s *Store) UpsertJobListing(ctx context.Context, l *model.JobListing) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO job_listings
		   (external_id, title, company, location, description, requirements,
		    salary, job_type, experience_level, date_posted, url, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (external_id, source) DO UPDATE
		 SET title            = EXCLUDED.title,
		     company          = EXCLUDED.company,
		     location         = EXCLUDED.location,
		     description      = EXCLUDED.description,
		     requirements     = EXCLUDED.requirements,
		     salary           = EXCLUDED.salary,
		     job_type         = EXCLUDED.job_type,
		     experience_level = EXCLUDED.experience_level,
		     date_posted      = EXCLUDED.date_posted,
		     url              = EXCLUDED.url
		 RETURNING id`,
		l.ExternalID, l.Title, l.Company, l.Location, l.Description, l.Requirements,
		l.Salary, string(l.JobType), string(l.ExperienceLevel), l.DatePosted, l.URL, string(l.Source),
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("upsert job listing: %w", err)
	}
	return nil
}

// ListingFilter narrows GetJobListings. Zero-valued fields are skipped.
type ListingFilter struct {
	JobRole         string
	Location        string
	ExperienceLevel model.ExperienceLevel
	Source          model.Source
	Limit           int
}

// GetJobListings returns stored listings newest first. Role and location
// match case-insensitively against title and location.
func (s *Store) GetJobListings(ctx context.Context, f ListingFilter) ([]model.JobListing, error) {
	q := psql.Select(
		"id", "external_id", "title", "company", "location", "description",
		"requirements", "salary", "job_type", "experience_level", "date_posted", "url", "source",
	).From("job_listings").OrderBy("date_posted DESC")

	if f.JobRole != "" {
		q = q.Where(sq.ILike{"title": "%" + f.JobRole + "%"})
	}
	if f.Location != "" {
		q = q.Where(sq.ILike{"location": "%" + f.Location + "%"})
	}
	if f.ExperienceLevel != "" {
		q = q.Where(sq.Eq{"experience_level": string(f.ExperienceLevel)})
	}
	if f.Source != "" {
		q = q.Where(sq.Eq{"source": string(f.Source)})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build listings query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listings query: %w", err)
	}
	defer rows.Close()

	listings := make([]model.JobListing, 0)
	for rows.Next() {
		var l model.JobListing
		if err := rows.Scan(
			&l.ID, &l.ExternalID, &l.Title, &l.Company, &l.Location, &l.Description,
			&l.Requirements, &l.Salary, &l.JobType, &l.ExperienceLevel, &l.DatePosted, &l.URL, &l.Source,
		); err != nil {
			return nil, fmt.Errorf("listings scan: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// TrendingSkills rolls up requirement frequencies across recently stored
// listings, most demanded first. Ties break alphabetically so the order is
// stable.
func (s *Store) TrendingSkills(ctx context.Context, limit int) ([]model.TrendingSkill, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT skill, COUNT(*) AS cnt
		 FROM job_listings, unnest(requirements) AS skill
		 WHERE created_at > NOW() - INTERVAL '30 days'
		 GROUP BY skill
		 ORDER BY cnt DESC, skill ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("trending skills query: %w", err)
	}
	defer rows.Close()

	skills := make([]model.TrendingSkill, 0)
	for rows.Next() {
		var t model.TrendingSkill
		if err := rows.Scan(&t.Skill, &t.Count); err != nil {
			return nil, fmt.Errorf("trending skills scan: %w", err)
		}
		skills = append(skills, t)
	}
	return skills, rows.Err()
}

// SaveUserSearch records that a user ran a search. Repeating the same
// (user, role, location) search refreshes the existing row.
func (s *Store) SaveUserSearch(ctx context.Context, search *model.UserJobSearch) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO user_job_searches (user_id, job_role, location, experience_level)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, job_role, location) DO UPDATE
		 SET experience_level = EXCLUDED.experience_level,
		     is_active        = TRUE,
		     last_searched    = NOW()
		 RETURNING id, is_active, last_searched`,
		search.UserID, search.JobRole, search.Location, search.ExperienceLevel,
	).Scan(&search.ID, &search.IsActive, &search.LastSearched)
	if err != nil {
		return fmt.Errorf("save user search: %w", err)
	}
	return nil
}

// GetUserSearches returns a user's saved searches, most recent first.
func (s *Store) GetUserSearches(ctx context.Context, userID string) ([]model.UserJobSearch, error) {
	return s.querySearches(ctx,
		`SELECT id, user_id, job_role, location, experience_level, is_active, last_searched
		 FROM user_job_searches
		 WHERE user_id = $1
		 ORDER BY last_searched DESC`,
		userID,
	)
}

// GetActiveSearches returns every active saved search across users. The
// scheduler uses this set to decide which market snapshots to refresh.
func (s *Store) GetActiveSearches(ctx context.Context) ([]model.UserJobSearch, error) {
	return s.querySearches(ctx,
		`SELECT id, user_id, job_role, location, experience_level, is_active, last_searched
		 FROM user_job_searches
		 WHERE is_active
		 ORDER BY last_searched DESC`,
	)
}

func (s *Store) querySearches(ctx context.Context, sql string, args ...any) ([]model.UserJobSearch, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("searches query: %w", err)
	}
	defer rows.Close()

	searches := make([]model.UserJobSearch, 0)
	for rows.Next() {
		var u model.UserJobSearch
		if err := rows.Scan(
			&u.ID, &u.UserID, &u.JobRole, &u.Location, &u.ExperienceLevel, &u.IsActive, &u.LastSearched,
		); err != nil {
			return nil, fmt.Errorf("searches scan: %w", err)
		}
		searches = append(searches, u)
	}
	return searches, rows.Err()
}

// InsertMarketSnapshot persists one analysis result. Old snapshots for the
// same (role, location) are kept as history; readers take the latest.
func (s *Store) InsertMarketSnapshot(ctx context.Context, data *model.JobMarketData) error {
	skillDemand, err := json.Marshal(data.SkillDemand)
	if err != nil {
		return fmt.Errorf("marshal skill demand: %w", err)
	}
	locations, err := json.Marshal(data.Locations)
	if err != nil {
		return fmt.Errorf("marshal locations: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO job_market_data
		   (job_role, location, total_jobs, skill_demand, top_companies, average_salary, locations)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, last_updated`,
		data.JobRole, data.Location, data.TotalJobs, skillDemand, data.TopCompanies, data.AverageSalary, locations,
	).Scan(&data.ID, &data.LastUpdated)
	if err != nil {
		return fmt.Errorf("insert market snapshot: %w", err)
	}
	return nil
}

// LatestMarketSnapshot returns the freshest snapshot for a (role, location)
// pair, or ErrNotFound when none was ever computed.
func (s *Store) LatestMarketSnapshot(ctx context.Context, jobRole, location string) (*model.JobMarketData, error) {
	var (
		data        model.JobMarketData
		skillDemand []byte
		locations   []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, job_role, location, total_jobs, skill_demand, top_companies, average_salary, locations, last_updated
		 FROM job_market_data
		 WHERE LOWER(job_role) = LOWER($1) AND LOWER(location) = LOWER($2)
		 ORDER BY last_updated DESC
		 LIMIT 1`,
		jobRole, location,
	).Scan(
		&data.ID, &data.JobRole, &data.Location, &data.TotalJobs,
		&skillDemand, &data.TopCompanies, &data.AverageSalary, &locations, &data.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest market snapshot: %w", err)
	}

	if err := json.Unmarshal(skillDemand, &data.SkillDemand); err != nil {
		return nil, fmt.Errorf("unmarshal skill demand: %w", err)
	}
	if err := json.Unmarshal(locations, &data.Locations); err != nil {
		return nil, fmt.Errorf("unmarshal locations: %w", err)
	}
	return &data, nil
}
