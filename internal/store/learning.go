package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"skillroad/server/internal/model"
)

// CreateRoadmap inserts a roadmap shell and fills the generated fields.
func (s *Store) CreateRoadmap(ctx context.Context, r *model.Roadmap) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO roadmaps (user_id, title, description, job_role, experience_level, estimated_hours)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, is_completed, created_at, updated_at`,
		r.UserID, r.Title, r.Description, r.JobRole, r.ExperienceLevel, r.EstimatedHours,
	).Scan(&r.ID, &r.IsCompleted, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create roadmap: %w", err)
	}
	return nil
}

// GetRoadmapsByUser returns a user's roadmaps, newest first.
func (s *Store) GetRoadmapsByUser(ctx context.Context, userID string) ([]model.Roadmap, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, title, description, job_role, experience_level,
		        estimated_hours, is_completed, created_at, updated_at
		 FROM roadmaps
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("roadmaps query: %w", err)
	}
	defer rows.Close()

	roadmaps := make([]model.Roadmap, 0)
	for rows.Next() {
		var r model.Roadmap
		if err := scanRoadmap(rows, &r); err != nil {
			return nil, fmt.Errorf("roadmap scan: %w", err)
		}
		roadmaps = append(roadmaps, r)
	}
	return roadmaps, rows.Err()
}

// GetRoadmap returns one roadmap, validating ownership.
func (s *Store) GetRoadmap(ctx context.Context, id int, userID string) (*model.Roadmap, error) {
	var r model.Roadmap
	err := scanRoadmap(s.pool.QueryRow(ctx,
		`SELECT id, user_id, title, description, job_role, experience_level,
		        estimated_hours, is_completed, created_at, updated_at
		 FROM roadmaps
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	), &r)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("roadmap scan: %w", err)
	}
	return &r, nil
}

type roadmapScanner interface{ Scan(dest ...any) error }

func scanRoadmap(row roadmapScanner, r *model.Roadmap) error {
	return row.Scan(
		&r.ID, &r.UserID, &r.Title, &r.Description, &r.JobRole, &r.ExperienceLevel,
		&r.EstimatedHours, &r.IsCompleted, &r.CreatedAt, &r.UpdatedAt,
	)
}

// CreateModule inserts one roadmap module and fills the generated fields.
func (s *Store) CreateModule(ctx context.Context, m *model.Module) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO modules (roadmap_id, title, description, order_index, estimated_hours, is_locked)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, is_completed, created_at`,
		m.RoadmapID, m.Title, m.Description, m.OrderIndex, m.EstimatedHours, m.IsLocked,
	).Scan(&m.ID, &m.IsCompleted, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	return nil
}

// GetModule returns one module by ID.
func (s *Store) GetModule(ctx context.Context, id int) (*model.Module, error) {
	var m model.Module
	err := s.pool.QueryRow(ctx,
		`SELECT id, roadmap_id, title, description, order_index, estimated_hours,
		        is_completed, is_locked, created_at
		 FROM modules
		 WHERE id = $1`,
		id,
	).Scan(
		&m.ID, &m.RoadmapID, &m.Title, &m.Description, &m.OrderIndex, &m.EstimatedHours,
		&m.IsCompleted, &m.IsLocked, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("module query: %w", err)
	}
	return &m, nil
}

// GetModulesByRoadmap returns a roadmap's modules in unlock order.
func (s *Store) GetModulesByRoadmap(ctx context.Context, roadmapID int) ([]model.Module, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, roadmap_id, title, description, order_index, estimated_hours,
		        is_completed, is_locked, created_at
		 FROM modules
		 WHERE roadmap_id = $1
		 ORDER BY order_index ASC`,
		roadmapID,
	)
	if err != nil {
		return nil, fmt.Errorf("modules query: %w", err)
	}
	defer rows.Close()

	modules := make([]model.Module, 0)
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(
			&m.ID, &m.RoadmapID, &m.Title, &m.Description, &m.OrderIndex, &m.EstimatedHours,
			&m.IsCompleted, &m.IsLocked, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("modules scan: %w", err)
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// CompleteModule marks a module completed. Unlocking the successor is a
// separate step so a failed unlock never loses the completion.
func (s *Store) CompleteModule(ctx context.Context, moduleID int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE modules SET is_completed = TRUE WHERE id = $1`, moduleID)
	if err != nil {
		return fmt.Errorf("complete module: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UnlockNextModule unlocks the module directly after afterIndex. Missing
// successors (last module of the roadmap) are not an error.
func (s *Store) UnlockNextModule(ctx context.Context, roadmapID, afterIndex int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE modules SET is_locked = FALSE
		 WHERE roadmap_id = $1 AND order_index = $2`,
		roadmapID, afterIndex+1,
	)
	if err != nil {
		return fmt.Errorf("unlock next module: %w", err)
	}
	return nil
}

// RefreshRoadmapCompletion recomputes a roadmap's completion flag from its
// modules.
func (s *Store) RefreshRoadmapCompletion(ctx context.Context, roadmapID int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE roadmaps
		 SET is_completed = NOT EXISTS (
		       SELECT 1 FROM modules WHERE roadmap_id = $1 AND NOT is_completed
		     ),
		     updated_at = NOW()
		 WHERE id = $1`,
		roadmapID,
	)
	if err != nil {
		return fmt.Errorf("refresh roadmap completion: %w", err)
	}
	return nil
}

// CreateResource inserts one learning resource and fills the generated
// fields.
func (s *Store) CreateResource(ctx context.Context, r *model.Resource) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO resources (module_id, title, type, url, provider, duration)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		r.ModuleID, r.Title, r.Type, r.URL, r.Provider, r.Duration,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// ResourcesByRoadmap returns every resource of a roadmap keyed by module.
func (s *Store) ResourcesByRoadmap(ctx context.Context, roadmapID int) (map[int][]model.Resource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.module_id, r.title, r.type, r.url, r.provider, r.duration, r.created_at
		 FROM resources r
		 JOIN modules m ON m.id = r.module_id
		 WHERE m.roadmap_id = $1
		 ORDER BY r.id ASC`,
		roadmapID,
	)
	if err != nil {
		return nil, fmt.Errorf("resources query: %w", err)
	}
	defer rows.Close()

	byModule := make(map[int][]model.Resource)
	for rows.Next() {
		var r model.Resource
		if err := rows.Scan(
			&r.ID, &r.ModuleID, &r.Title, &r.Type, &r.URL, &r.Provider, &r.Duration, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("resources scan: %w", err)
		}
		byModule[r.ModuleID] = append(byModule[r.ModuleID], r)
	}
	return byModule, rows.Err()
}

// CreateAssessment inserts a module quiz; questions are stored as JSONB.
func (s *Store) CreateAssessment(ctx context.Context, a *model.Assessment) error {
	questions, err := json.Marshal(a.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO assessments (module_id, title, description, questions, passing_score)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		a.ModuleID, a.Title, a.Description, questions, a.PassingScore,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// GetAssessment returns one assessment with its questions decoded.
func (s *Store) GetAssessment(ctx context.Context, id int) (*model.Assessment, error) {
	var (
		a         model.Assessment
		questions []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, module_id, title, description, questions, passing_score, created_at
		 FROM assessments
		 WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.ModuleID, &a.Title, &a.Description, &questions, &a.PassingScore, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("assessment query: %w", err)
	}

	if err := json.Unmarshal(questions, &a.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	return &a, nil
}

// AssessmentsByRoadmap returns every assessment of a roadmap keyed by
// module.
func (s *Store) AssessmentsByRoadmap(ctx context.Context, roadmapID int) (map[int][]model.Assessment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.module_id, a.title, a.description, a.questions, a.passing_score, a.created_at
		 FROM assessments a
		 JOIN modules m ON m.id = a.module_id
		 WHERE m.roadmap_id = $1
		 ORDER BY a.id ASC`,
		roadmapID,
	)
	if err != nil {
		return nil, fmt.Errorf("assessments query: %w", err)
	}
	defer rows.Close()

	byModule := make(map[int][]model.Assessment)
	for rows.Next() {
		var (
			a         model.Assessment
			questions []byte
		)
		if err := rows.Scan(
			&a.ID, &a.ModuleID, &a.Title, &a.Description, &questions, &a.PassingScore, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("assessments scan: %w", err)
		}
		if err := json.Unmarshal(questions, &a.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions: %w", err)
		}
		byModule[a.ModuleID] = append(byModule[a.ModuleID], a)
	}
	return byModule, rows.Err()
}

// UpsertProgress records a user's progress on a module. A user has one
// progress row per module; re-submitting merges into it, keeping the best
// score and the earliest completion timestamp.
func (s *Store) UpsertProgress(ctx context.Context, p *model.UserProgress) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO user_progress (user_id, module_id, completed_at, time_spent, score)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, module_id) DO UPDATE
		 SET completed_at = COALESCE(user_progress.completed_at, EXCLUDED.completed_at),
		     time_spent   = user_progress.time_spent + EXCLUDED.time_spent,
		     score        = GREATEST(COALESCE(user_progress.score, EXCLUDED.score), COALESCE(EXCLUDED.score, user_progress.score))
		 RETURNING id, completed_at, time_spent, score, created_at`,
		p.UserID, p.ModuleID, p.CompletedAt, p.TimeSpent, p.Score,
	).Scan(&p.ID, &p.CompletedAt, &p.TimeSpent, &p.Score, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// ProgressByRoadmap returns the user's progress rows for a roadmap keyed by
// module.
func (s *Store) ProgressByRoadmap(ctx context.Context, userID string, roadmapID int) (map[int]model.UserProgress, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.user_id, p.module_id, p.completed_at, p.time_spent, p.score, p.created_at
		 FROM user_progress p
		 JOIN modules m ON m.id = p.module_id
		 WHERE p.user_id = $1 AND m.roadmap_id = $2`,
		userID, roadmapID,
	)
	if err != nil {
		return nil, fmt.Errorf("progress query: %w", err)
	}
	defer rows.Close()

	byModule := make(map[int]model.UserProgress)
	for rows.Next() {
		var p model.UserProgress
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.ModuleID, &p.CompletedAt, &p.TimeSpent, &p.Score, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("progress scan: %w", err)
		}
		byModule[p.ModuleID] = p
	}
	return byModule, rows.Err()
}
