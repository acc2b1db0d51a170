package learning

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"skillroad/server/internal/ai"
	"skillroad/server/internal/model"
)

// defaultPassingScore is the percentage needed to pass a generated
// assessment and complete its module through it.
const defaultPassingScore = 70

// Store is the persistence surface the service needs.
type Store interface {
	CreateRoadmap(ctx context.Context, r *model.Roadmap) error
	GetRoadmapsByUser(ctx context.Context, userID string) ([]model.Roadmap, error)
	GetRoadmap(ctx context.Context, id int, userID string) (*model.Roadmap, error)
	CreateModule(ctx context.Context, m *model.Module) error
	GetModule(ctx context.Context, id int) (*model.Module, error)
	GetModulesByRoadmap(ctx context.Context, roadmapID int) ([]model.Module, error)
	CompleteModule(ctx context.Context, moduleID int) error
	UnlockNextModule(ctx context.Context, roadmapID, afterIndex int) error
	RefreshRoadmapCompletion(ctx context.Context, roadmapID int) error
	CreateResource(ctx context.Context, r *model.Resource) error
	ResourcesByRoadmap(ctx context.Context, roadmapID int) (map[int][]model.Resource, error)
	CreateAssessment(ctx context.Context, a *model.Assessment) error
	GetAssessment(ctx context.Context, id int) (*model.Assessment, error)
	AssessmentsByRoadmap(ctx context.Context, roadmapID int) (map[int][]model.Assessment, error)
	UpsertProgress(ctx context.Context, p *model.UserProgress) error
	ProgressByRoadmap(ctx context.Context, userID string, roadmapID int) (map[int]model.UserProgress, error)
}

// ContentGenerator is the AI surface, implemented by ai.Generator.
type ContentGenerator interface {
	GenerateRoadmap(ctx context.Context, jobRole, experienceLevel string) (*ai.GeneratedRoadmap, error)
	GenerateAssessment(ctx context.Context, moduleTitle string, skills []string, jobRole string) (*ai.GeneratedAssessment, error)
	GenerateResources(ctx context.Context, moduleTitle string, skills []string, jobRole string) ([]ai.ResourceRecommendation, error)
}

// Service encapsulates roadmap business logic.
type Service struct {
	store     Store
	generator ContentGenerator
	logger    *zap.Logger
}

func NewService(st Store, gen ContentGenerator, logger *zap.Logger) *Service {
	return &Service{store: st, generator: gen, logger: logger}
}

// GenerateRoadmap creates a full roadmap for a user: the AI module plan,
// one stored module per plan entry (only the first unlocked), and
// per-module resources and assessments.
//
// Content generation degrades gracefully: a module whose resources or
// assessment fail to generate is kept without them rather than failing the
// whole roadmap. Only the roadmap plan itself is load-bearing.
func (s *Service) GenerateRoadmap(ctx context.Context, userID, jobRole, experienceLevel string) (*model.RoadmapDetail, error) {
	jobRole = strings.TrimSpace(jobRole)
	if jobRole == "" {
		return nil, &model.ValidationError{Msg: "jobRole is required"}
	}
	if experienceLevel = strings.TrimSpace(experienceLevel); experienceLevel == "" {
		experienceLevel = "beginner"
	}

	plan, err := s.generator.GenerateRoadmap(ctx, jobRole, experienceLevel)
	if err != nil {
		return nil, fmt.Errorf("generate roadmap plan: %w", err)
	}

	roadmap := &model.Roadmap{
		UserID:          userID,
		Title:           plan.Title,
		Description:     plan.Description,
		JobRole:         jobRole,
		ExperienceLevel: experienceLevel,
		EstimatedHours:  plan.TotalEstimatedHours,
	}
	if err := s.store.CreateRoadmap(ctx, roadmap); err != nil {
		return nil, err
	}

	for i, planned := range plan.Modules {
		mod := &model.Module{
			RoadmapID:      roadmap.ID,
			Title:          planned.Title,
			Description:    planned.Description,
			OrderIndex:     i,
			EstimatedHours: planned.EstimatedHours,
			IsLocked:       i > 0,
		}
		if err := s.store.CreateModule(ctx, mod); err != nil {
			return nil, err
		}

		s.attachResources(ctx, mod, planned.Skills, jobRole)
		s.attachAssessment(ctx, mod, planned.Skills, jobRole)
	}

	s.logger.Info("roadmap generated",
		zap.String("user_id", userID),
		zap.String("role", jobRole),
		zap.Int("roadmap_id", roadmap.ID),
		zap.Int("modules", len(plan.Modules)),
	)
	return s.RoadmapDetail(ctx, userID, roadmap.ID)
}

func (s *Service) attachResources(ctx context.Context, mod *model.Module, skills []string, jobRole string) {
	recs, err := s.generator.GenerateResources(ctx, mod.Title, skills, jobRole)
	if err != nil {
		s.logger.Warn("resource generation failed, module kept without resources",
			zap.Int("module_id", mod.ID), zap.Error(err))
		return
	}

	for _, rec := range recs {
		res := &model.Resource{
			ModuleID: mod.ID,
			Title:    rec.Title,
			Type:     normalizeResourceType(rec.Type),
			URL:      SearchURL(rec.Provider, rec.SearchQuery),
			Provider: rec.Provider,
			Duration: rec.EstimatedDuration,
		}
		if err := s.store.CreateResource(ctx, res); err != nil {
			s.logger.Warn("store resource failed", zap.Int("module_id", mod.ID), zap.Error(err))
		}
	}
}

func (s *Service) attachAssessment(ctx context.Context, mod *model.Module, skills []string, jobRole string) {
	generated, err := s.generator.GenerateAssessment(ctx, mod.Title, skills, jobRole)
	if err != nil {
		s.logger.Warn("assessment generation failed, module kept without assessment",
			zap.Int("module_id", mod.ID), zap.Error(err))
		return
	}

	assessment := &model.Assessment{
		ModuleID:     mod.ID,
		Title:        generated.Title,
		Description:  generated.Description,
		Questions:    generated.Questions,
		PassingScore: defaultPassingScore,
	}
	if err := s.store.CreateAssessment(ctx, assessment); err != nil {
		s.logger.Warn("store assessment failed", zap.Int("module_id", mod.ID), zap.Error(err))
	}
}

// Roadmaps returns a user's roadmaps.
func (s *Service) Roadmaps(ctx context.Context, userID string) ([]model.Roadmap, error) {
	return s.store.GetRoadmapsByUser(ctx, userID)
}

// RoadmapDetail assembles one roadmap with modules, their resources and
// assessments, and the requesting user's progress.
func (s *Service) RoadmapDetail(ctx context.Context, userID string, roadmapID int) (*model.RoadmapDetail, error) {
	roadmap, err := s.store.GetRoadmap(ctx, roadmapID, userID)
	if err != nil {
		return nil, err
	}

	modules, err := s.store.GetModulesByRoadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	resources, err := s.store.ResourcesByRoadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	assessments, err := s.store.AssessmentsByRoadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	progress, err := s.store.ProgressByRoadmap(ctx, userID, roadmapID)
	if err != nil {
		return nil, err
	}

	detail := &model.RoadmapDetail{
		Roadmap: *roadmap,
		Modules: make([]model.ModuleDetail, 0, len(modules)),
	}
	for _, m := range modules {
		md := model.ModuleDetail{
			Module:      m,
			Resources:   orEmptyResources(resources[m.ID]),
			Assessments: orEmptyAssessments(assessments[m.ID]),
		}
		if p, ok := progress[m.ID]; ok {
			p := p
			md.Progress = &p
		}
		detail.Modules = append(detail.Modules, md)
	}
	return detail, nil
}

// ProgressSummary is the per-roadmap progress rollup.
type ProgressSummary struct {
	RoadmapID        int                  `json:"roadmapId"`
	TotalModules     int                  `json:"totalModules"`
	CompletedModules int                  `json:"completedModules"`
	PercentComplete  int                  `json:"percentComplete"`
	Modules          []model.UserProgress `json:"modules"`
}

// Progress summarizes a user's progress on one roadmap.
func (s *Service) Progress(ctx context.Context, userID string, roadmapID int) (*ProgressSummary, error) {
	if _, err := s.store.GetRoadmap(ctx, roadmapID, userID); err != nil {
		return nil, err
	}

	modules, err := s.store.GetModulesByRoadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	progress, err := s.store.ProgressByRoadmap(ctx, userID, roadmapID)
	if err != nil {
		return nil, err
	}

	summary := &ProgressSummary{
		RoadmapID:    roadmapID,
		TotalModules: len(modules),
		Modules:      make([]model.UserProgress, 0, len(progress)),
	}
	for _, m := range modules {
		p, ok := progress[m.ID]
		if !ok {
			continue
		}
		summary.Modules = append(summary.Modules, p)
		if p.CompletedAt != nil {
			summary.CompletedModules++
		}
	}
	if summary.TotalModules > 0 {
		summary.PercentComplete = int(math.Round(
			float64(summary.CompletedModules) / float64(summary.TotalModules) * 100))
	}
	return summary, nil
}

// ProgressUpdate is one client-reported progress entry for a module.
// CompletedAt non-nil means the module was finished; nil records partial
// work (time spent, a practice score) without completing it.
type ProgressUpdate struct {
	ModuleID    int        `json:"moduleId"`
	CompletedAt *time.Time `json:"completedAt"`
	TimeSpent   int        `json:"timeSpent"`
	Score       *int       `json:"score"`
}

// RecordProgress upserts a user's progress on a module. Completing a module
// requires it to be unlocked and not yet completed, and unlocks its
// successor. timeSpent is accumulated in minutes across updates.
func (s *Service) RecordProgress(ctx context.Context, userID string, upd ProgressUpdate) (*model.UserProgress, error) {
	if upd.ModuleID < 1 {
		return nil, &model.ValidationError{Msg: "moduleId is required"}
	}
	mod, err := s.ownedModule(ctx, userID, upd.ModuleID)
	if err != nil {
		return nil, err
	}

	if upd.CompletedAt != nil {
		if !IsTransitionAllowed(StateOf(mod.IsCompleted, mod.IsLocked), StateCompleted) {
			return nil, &model.ValidationError{
				Msg: fmt.Sprintf("module %d cannot be completed from state %s", mod.ID, StateOf(mod.IsCompleted, mod.IsLocked)),
			}
		}
		return s.recordCompletion(ctx, userID, mod, upd.CompletedAt, upd.TimeSpent, upd.Score)
	}

	if mod.IsLocked && !mod.IsCompleted {
		return nil, &model.ValidationError{Msg: fmt.Sprintf("module %d is locked", mod.ID)}
	}
	progress := &model.UserProgress{
		UserID:    userID,
		ModuleID:  mod.ID,
		TimeSpent: upd.TimeSpent,
		Score:     upd.Score,
	}
	if err := s.store.UpsertProgress(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// QuestionResult is the per-question outcome of a submitted assessment.
type QuestionResult struct {
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correctIndex"`
	Explanation  string `json:"explanation"`
}

// AssessmentResult is the graded outcome of one submission.
type AssessmentResult struct {
	AssessmentID   int              `json:"assessmentId"`
	ModuleID       int              `json:"moduleId"`
	Score          int              `json:"score"`
	Passed         bool             `json:"passed"`
	PassingScore   int              `json:"passingScore"`
	CorrectAnswers int              `json:"correctAnswers"`
	TotalQuestions int              `json:"totalQuestions"`
	Results        []QuestionResult `json:"results"`

	// Progress is the user's progress row after this submission was
	// recorded.
	Progress *model.UserProgress `json:"progress"`
}

// SubmitAssessment grades a submission. answers holds one selected option
// index per question, in question order. A passing score completes the
// module and unlocks its successor; a failing one records the attempt and
// leaves the module open for retries.
func (s *Service) SubmitAssessment(ctx context.Context, userID string, assessmentID int, answers []int) (*AssessmentResult, error) {
	assessment, err := s.store.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	mod, err := s.ownedModule(ctx, userID, assessment.ModuleID)
	if err != nil {
		return nil, err
	}
	if len(answers) != len(assessment.Questions) {
		return nil, &model.ValidationError{
			Msg: fmt.Sprintf("expected %d answers, got %d", len(assessment.Questions), len(answers)),
		}
	}
	if mod.IsLocked && !mod.IsCompleted {
		return nil, &model.ValidationError{Msg: fmt.Sprintf("module %d is locked", mod.ID)}
	}

	result := &AssessmentResult{
		AssessmentID:   assessment.ID,
		ModuleID:       mod.ID,
		PassingScore:   assessment.PassingScore,
		TotalQuestions: len(assessment.Questions),
		Results:        make([]QuestionResult, 0, len(assessment.Questions)),
	}
	for i, q := range assessment.Questions {
		qr := QuestionResult{CorrectIndex: correctIndex(q.Options), Explanation: q.Explanation}
		if answers[i] >= 0 && answers[i] < len(q.Options) && q.Options[answers[i]].IsCorrect {
			qr.Correct = true
			result.CorrectAnswers++
		}
		result.Results = append(result.Results, qr)
	}

	result.Score = int(math.Round(
		float64(result.CorrectAnswers) / float64(result.TotalQuestions) * 100))
	result.Passed = result.Score >= assessment.PassingScore

	score := result.Score
	if result.Passed && !mod.IsCompleted {
		now := time.Now().UTC()
		progress, err := s.recordCompletion(ctx, userID, mod, &now, 0, &score)
		if err != nil {
			return nil, err
		}
		result.Progress = progress
	} else {
		progress := &model.UserProgress{UserID: userID, ModuleID: mod.ID, Score: &score}
		if err := s.store.UpsertProgress(ctx, progress); err != nil {
			return nil, err
		}
		result.Progress = progress
	}

	s.logger.Info("assessment submitted",
		zap.String("user_id", userID),
		zap.Int("assessment_id", assessment.ID),
		zap.Int("score", result.Score),
		zap.Bool("passed", result.Passed),
	)
	return result, nil
}

// recordCompletion persists a module completion: the progress row, the
// module flag, the successor unlock and the roadmap rollup.
func (s *Service) recordCompletion(ctx context.Context, userID string, mod *model.Module, completedAt *time.Time, timeSpent int, score *int) (*model.UserProgress, error) {
	progress := &model.UserProgress{
		UserID:      userID,
		ModuleID:    mod.ID,
		CompletedAt: completedAt,
		TimeSpent:   timeSpent,
		Score:       score,
	}
	if err := s.store.UpsertProgress(ctx, progress); err != nil {
		return nil, err
	}
	if err := s.store.CompleteModule(ctx, mod.ID); err != nil {
		return nil, err
	}
	if err := s.store.UnlockNextModule(ctx, mod.RoadmapID, mod.OrderIndex); err != nil {
		return nil, err
	}
	if err := s.store.RefreshRoadmapCompletion(ctx, mod.RoadmapID); err != nil {
		return nil, err
	}
	return progress, nil
}

// ownedModule loads a module and verifies the roadmap it belongs to is the
// user's.
func (s *Service) ownedModule(ctx context.Context, userID string, moduleID int) (*model.Module, error) {
	mod, err := s.store.GetModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetRoadmap(ctx, mod.RoadmapID, userID); err != nil {
		return nil, err
	}
	return mod, nil
}

func correctIndex(options []model.QuestionOption) int {
	for i, o := range options {
		if o.IsCorrect {
			return i
		}
	}
	return -1
}

func normalizeResourceType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "video":
		return "video"
	case "documentation", "docs":
		return "documentation"
	default:
		return "article"
	}
}

// SearchURL turns a provider hint and query into a clickable search link.
// Unknown providers fall back to a web search.
func SearchURL(provider, query string) string {
	q := url.QueryEscape(strings.TrimSpace(query))
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "youtube":
		return "https://www.youtube.com/results?search_query=" + q
	default:
		return "https://www.google.com/search?q=" + q
	}
}

func orEmptyResources(rs []model.Resource) []model.Resource {
	if rs == nil {
		return []model.Resource{}
	}
	return rs
}

func orEmptyAssessments(as []model.Assessment) []model.Assessment {
	if as == nil {
		return []model.Assessment{}
	}
	return as
}
