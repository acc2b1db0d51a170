// Package model defines the canonical entities shared across the service.
//
// Enum values mirror the CHECK constraints in migrations/0001_init.sql.
package model

import (
	"fmt"
	"time"
)

// ─── Enums ───────────────────────────────────────────────────────────────────

// JobType is the canonical employment-type enum for a listing.
type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
)

// ExperienceLevel is the canonical seniority enum for a listing.
type ExperienceLevel string

const (
	ExperienceEntry  ExperienceLevel = "entry"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
)

// Source identifies the job portal a listing was fetched from.
type Source string

const (
	SourceLinkedIn  Source = "linkedin"
	SourceIndeed    Source = "indeed"
	SourceGlassdoor Source = "glassdoor"
	SourceNaukri    Source = "naukri"
)

// ParseJobType converts a raw string to a JobType, returning an error for
// unknown values. Provider adapters map their native enums through explicit
// lookup tables instead; this is for validating client input.
func ParseJobType(s string) (JobType, error) {
	jt := JobType(s)
	switch jt {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship:
		return jt, nil
	}
	return "", fmt.Errorf("unknown job type %q", s)
}

// ParseExperienceLevel converts a raw string to an ExperienceLevel.
func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	el := ExperienceLevel(s)
	switch el {
	case ExperienceEntry, ExperienceMid, ExperienceSenior:
		return el, nil
	}
	return "", fmt.Errorf("unknown experience level %q", s)
}

// ParseSource converts a raw string to a Source.
func ParseSource(s string) (Source, error) {
	src := Source(s)
	switch src {
	case SourceLinkedIn, SourceIndeed, SourceGlassdoor, SourceNaukri:
		return src, nil
	}
	return "", fmt.Errorf("unknown job source %q", s)
}

// ─── Job market ──────────────────────────────────────────────────────────────

// JobListing is a normalized job posting fetched from an external portal.
// (ExternalID, Source) is the upsert identity: re-fetching the same listing
// updates the stored row in place instead of duplicating it.
type JobListing struct {
	ID              int             `json:"id,omitempty"`
	ExternalID      string          `json:"externalId"`
	Title           string          `json:"title"`
	Company         string          `json:"company"`
	Location        string          `json:"location"`
	Description     string          `json:"description"`
	Requirements    []string        `json:"requirements"`
	Salary          string          `json:"salary,omitempty"`
	JobType         JobType         `json:"jobType"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
	DatePosted      time.Time       `json:"datePosted"`
	URL             string          `json:"url"`
	Source          Source          `json:"source"`
}

// SkillDemand is the per-skill frequency statistic of one analysis batch.
// Percentage is computed against the batch size, not a global corpus.
type SkillDemand struct {
	Skill      string   `json:"skill"`
	Count      int      `json:"count"`
	Percentage int      `json:"percentage"`
	Companies  []string `json:"companies"`
}

// LocationCount pairs a raw location string with its listing count.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// JobMarketData is one persisted market-analysis snapshot for a
// (job role, location) pair. A snapshot older than 24 hours is stale and
// must be regenerated rather than served.
//
// AverageSalary is declared for API compatibility but never computed — no
// salary parsing exists, so the field is always absent.
type JobMarketData struct {
	ID            int             `json:"id,omitempty"`
	JobRole       string          `json:"jobRole"`
	Location      string          `json:"location"`
	TotalJobs     int             `json:"totalJobs"`
	SkillDemand   []SkillDemand   `json:"skillDemand"`
	TopCompanies  []string        `json:"topCompanies"`
	AverageSalary string          `json:"averageSalary,omitempty"`
	Locations     []LocationCount `json:"locations"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

// UserJobSearch records one saved search a user ran.
type UserJobSearch struct {
	ID              int       `json:"id"`
	UserID          string    `json:"userId"`
	JobRole         string    `json:"jobRole"`
	Location        string    `json:"location"`
	ExperienceLevel string    `json:"experienceLevel,omitempty"`
	IsActive        bool      `json:"isActive"`
	LastSearched    time.Time `json:"lastSearched"`
}

// TrendingSkill is one entry of the trending-skills rollup over persisted
// listings.
type TrendingSkill struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// ─── Learning path ───────────────────────────────────────────────────────────

// Roadmap is an ordered curriculum generated for one (job role, experience
// level) pair.
type Roadmap struct {
	ID              int       `json:"id"`
	UserID          string    `json:"userId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	JobRole         string    `json:"jobRole"`
	ExperienceLevel string    `json:"experienceLevel"`
	EstimatedHours  int       `json:"estimatedHours"`
	IsCompleted     bool      `json:"isCompleted"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Module is one ordered unit of a roadmap. OrderIndex is unique within a
// roadmap and drives unlock sequencing: module N+1 unlocks only when module
// N has a completion timestamp.
type Module struct {
	ID             int       `json:"id"`
	RoadmapID      int       `json:"roadmapId"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	OrderIndex     int       `json:"orderIndex"`
	EstimatedHours int       `json:"estimatedHours"`
	IsCompleted    bool      `json:"isCompleted"`
	IsLocked       bool      `json:"isLocked"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Resource is one learning resource attached to a module.
type Resource struct {
	ID        int       `json:"id"`
	ModuleID  int       `json:"moduleId"`
	Title     string    `json:"title"`
	Type      string    `json:"type"` // video, article, documentation
	URL       string    `json:"url"`
	Provider  string    `json:"provider,omitempty"`
	Duration  string    `json:"duration,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuestionOption is one answer choice of an assessment question.
type QuestionOption struct {
	Option    string `json:"option"`
	IsCorrect bool   `json:"isCorrect"`
}

// AssessmentQuestion is one multiple-choice question with exactly one
// correct option.
type AssessmentQuestion struct {
	Question    string           `json:"question"`
	Options     []QuestionOption `json:"options"`
	Explanation string           `json:"explanation"`
}

// Assessment is a module's quiz. Questions are stored as JSONB.
type Assessment struct {
	ID           int                  `json:"id"`
	ModuleID     int                  `json:"moduleId"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Questions    []AssessmentQuestion `json:"questions"`
	PassingScore int                  `json:"passingScore"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// UserProgress ties a (user, module) pair to completion state. A user has
// at most one progress row per module (upsert identity).
type UserProgress struct {
	ID          int        `json:"id"`
	UserID      string     `json:"userId"`
	ModuleID    int        `json:"moduleId"`
	CompletedAt *time.Time `json:"completedAt"`
	TimeSpent   int        `json:"timeSpent"` // minutes
	Score       *int       `json:"score"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ModuleDetail is a module with its nested resources, assessments and the
// requesting user's progress.
type ModuleDetail struct {
	Module
	Resources   []Resource    `json:"resources"`
	Assessments []Assessment  `json:"assessments"`
	Progress    *UserProgress `json:"progress,omitempty"`
}

// RoadmapDetail is the full API shape of one roadmap.
type RoadmapDetail struct {
	Roadmap
	Modules []ModuleDetail `json:"modules"`
}
