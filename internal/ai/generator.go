// Package ai generates roadmap, assessment and resource content through an
// LLM provider. The Generator owns prompts and response parsing; providers
// only implement Complete.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"skillroad/server/internal/logger"
	"skillroad/server/internal/model"
)

// Completer is one LLM backend. Implementations return the raw textual
// response for a (system, user) prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

// RoadmapModule is one generated unit of a roadmap.
type RoadmapModule struct {
	Title          string   `json:"title" mapstructure:"title"`
	Description    string   `json:"description" mapstructure:"description"`
	EstimatedHours int      `json:"estimatedHours" mapstructure:"estimatedHours"`
	Skills         []string `json:"skills" mapstructure:"skills"`
}

// GeneratedRoadmap is the parsed roadmap-generation response.
type GeneratedRoadmap struct {
	Title               string          `json:"title" mapstructure:"title"`
	Description         string          `json:"description" mapstructure:"description"`
	TotalEstimatedHours int             `json:"totalEstimatedHours" mapstructure:"totalEstimatedHours"`
	Modules             []RoadmapModule `json:"modules" mapstructure:"modules"`
}

// GeneratedAssessment is the parsed assessment-generation response.
type GeneratedAssessment struct {
	Title       string                     `json:"title" mapstructure:"title"`
	Description string                     `json:"description" mapstructure:"description"`
	Questions   []model.AssessmentQuestion `json:"questions" mapstructure:"questions"`
}

// ResourceRecommendation is one generated learning-resource suggestion.
// SearchQuery is turned into a provider search URL by the learning service.
type ResourceRecommendation struct {
	Title             string `json:"title" mapstructure:"title"`
	Type              string `json:"type" mapstructure:"type"` // video, article, documentation
	SearchQuery       string `json:"searchQuery" mapstructure:"searchQuery"`
	Provider          string `json:"provider" mapstructure:"provider"`
	EstimatedDuration string `json:"estimatedDuration" mapstructure:"estimatedDuration"`
}

//go:embed prompts/roadmap.md
var roadmapPrompt string

//go:embed prompts/assessment.md
var assessmentPrompt string

//go:embed prompts/resources.md
var resourcesPrompt string

const (
	roadmapSystem    = "You are an expert career advisor and curriculum designer. Create detailed, practical learning roadmaps that prepare students for real-world jobs."
	assessmentSystem = "You are an expert educator and assessment designer. Create challenging but fair assessments that test practical knowledge and job readiness."
	resourcesSystem  = "You are an expert learning-resource curator. Recommend high-quality, findable resources for each topic."

	logPreviewLen = 200
)

// Generator produces validated learning content from a Completer.
type Generator struct {
	completer Completer
	logger    *zap.Logger
}

func NewGenerator(completer Completer, log *zap.Logger) *Generator {
	return &Generator{completer: completer, logger: log}
}

// GenerateRoadmap produces an ordered module plan for a job role and
// experience level.
func (g *Generator) GenerateRoadmap(ctx context.Context, jobRole, experienceLevel string) (*GeneratedRoadmap, error) {
	prompt := fill(roadmapPrompt, map[string]string{
		"JOB_ROLE":         jobRole,
		"EXPERIENCE_LEVEL": experienceLevel,
	})

	raw, err := g.complete(ctx, roadmapSystem, prompt)
	if err != nil {
		return nil, err
	}

	var roadmap GeneratedRoadmap
	if err := decodeResponse(raw, &roadmap); err != nil {
		return nil, fmt.Errorf("parse roadmap response: %w", err)
	}
	if roadmap.Title == "" || len(roadmap.Modules) == 0 {
		return nil, fmt.Errorf("generator returned an empty roadmap")
	}
	return &roadmap, nil
}

// GenerateAssessment produces a multiple-choice quiz for one module.
func (g *Generator) GenerateAssessment(ctx context.Context, moduleTitle string, skills []string, jobRole string) (*GeneratedAssessment, error) {
	prompt := fill(assessmentPrompt, map[string]string{
		"MODULE_TITLE": moduleTitle,
		"SKILLS":       strings.Join(skills, ", "),
		"JOB_ROLE":     jobRole,
	})

	raw, err := g.complete(ctx, assessmentSystem, prompt)
	if err != nil {
		return nil, err
	}

	var assessment GeneratedAssessment
	if err := decodeResponse(raw, &assessment); err != nil {
		return nil, fmt.Errorf("parse assessment response: %w", err)
	}
	if len(assessment.Questions) == 0 {
		return nil, fmt.Errorf("generator returned an assessment without questions")
	}
	return &assessment, nil
}

// GenerateResources produces learning-resource recommendations for one
// module.
func (g *Generator) GenerateResources(ctx context.Context, moduleTitle string, skills []string, jobRole string) ([]ResourceRecommendation, error) {
	prompt := fill(resourcesPrompt, map[string]string{
		"MODULE_TITLE": moduleTitle,
		"SKILLS":       strings.Join(skills, ", "),
		"JOB_ROLE":     jobRole,
	})

	raw, err := g.complete(ctx, resourcesSystem, prompt)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Resources []ResourceRecommendation `json:"resources" mapstructure:"resources"`
	}
	if err := decodeResponse(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("parse resources response: %w", err)
	}
	return wrapper.Resources, nil
}

func (g *Generator) complete(ctx context.Context, system, prompt string) (string, error) {
	g.logger.Debug("content generation request",
		zap.String("model", g.completer.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, logPreviewLen)),
	)

	raw, err := g.completer.Complete(ctx, system, prompt)
	if err != nil {
		return "", err
	}

	g.logger.Debug("content generation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, logPreviewLen)),
	)
	return raw, nil
}

func fill(template string, vars map[string]string) string {
	out := template
	for key, val := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", val)
	}
	return out
}

// decodeResponse strips markdown fences, parses the JSON and decodes it
// weakly typed, so numeric fields arriving as strings still land.
func decodeResponse(raw string, out any) error {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}

// extractJSON strips the ```json fences LLMs wrap responses in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
