package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// fakeCompleter returns a canned response, recording the prompt it was
// given.
type fakeCompleter struct {
	response  string
	err       error
	gotSystem string
	gotPrompt string
}

func (f *fakeCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	f.gotSystem = system
	f.gotPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeCompleter) Model() string { return "fake-model" }

const roadmapResponse = `{
  "title": "Backend Developer Roadmap",
  "description": "From fundamentals to production services",
  "totalEstimatedHours": 120,
  "modules": [
    {"title": "Go Fundamentals", "description": "Syntax and tooling", "estimatedHours": 20, "skills": ["go", "git"]},
    {"title": "Databases", "description": "SQL and modeling", "estimatedHours": 25, "skills": ["sql", "postgresql"]}
  ]
}`

func TestGenerateRoadmap_ParsesResponse(t *testing.T) {
	fake := &fakeCompleter{response: roadmapResponse}
	gen := NewGenerator(fake, zap.NewNop())

	roadmap, err := gen.GenerateRoadmap(context.Background(), "backend developer", "beginner")
	if err != nil {
		t.Fatalf("GenerateRoadmap() error: %v", err)
	}

	if roadmap.Title != "Backend Developer Roadmap" {
		t.Errorf("Title = %q", roadmap.Title)
	}
	if roadmap.TotalEstimatedHours != 120 {
		t.Errorf("TotalEstimatedHours = %d, want 120", roadmap.TotalEstimatedHours)
	}
	if len(roadmap.Modules) != 2 {
		t.Fatalf("len(Modules) = %d, want 2", len(roadmap.Modules))
	}
	if roadmap.Modules[1].Skills[1] != "postgresql" {
		t.Errorf("Modules[1].Skills = %v", roadmap.Modules[1].Skills)
	}

	if !strings.Contains(fake.gotPrompt, "backend developer") || !strings.Contains(fake.gotPrompt, "beginner") {
		t.Errorf("prompt missing interpolated values: %q", fake.gotPrompt)
	}
}

func TestGenerateRoadmap_FencedResponse(t *testing.T) {
	fake := &fakeCompleter{response: "```json\n" + roadmapResponse + "\n```"}
	gen := NewGenerator(fake, zap.NewNop())

	roadmap, err := gen.GenerateRoadmap(context.Background(), "backend developer", "beginner")
	if err != nil {
		t.Fatalf("GenerateRoadmap() error: %v", err)
	}
	if len(roadmap.Modules) != 2 {
		t.Errorf("len(Modules) = %d, want 2", len(roadmap.Modules))
	}
}

func TestGenerateRoadmap_WeaklyTypedNumbers(t *testing.T) {
	fake := &fakeCompleter{response: `{
	  "title": "R", "description": "d", "totalEstimatedHours": "90",
	  "modules": [{"title": "M", "description": "d", "estimatedHours": "15", "skills": ["go"]}]
	}`}
	gen := NewGenerator(fake, zap.NewNop())

	roadmap, err := gen.GenerateRoadmap(context.Background(), "dev", "beginner")
	if err != nil {
		t.Fatalf("GenerateRoadmap() error: %v", err)
	}
	if roadmap.TotalEstimatedHours != 90 || roadmap.Modules[0].EstimatedHours != 15 {
		t.Errorf("string numbers not coerced: %+v", roadmap)
	}
}

func TestGenerateRoadmap_EmptyRoadmapRejected(t *testing.T) {
	fake := &fakeCompleter{response: `{"title": "", "modules": []}`}
	gen := NewGenerator(fake, zap.NewNop())

	if _, err := gen.GenerateRoadmap(context.Background(), "dev", "beginner"); err == nil {
		t.Error("expected error for empty roadmap")
	}
}

func TestGenerateRoadmap_CompleterErrorPropagates(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("rate limited")}
	gen := NewGenerator(fake, zap.NewNop())

	if _, err := gen.GenerateRoadmap(context.Background(), "dev", "beginner"); err == nil {
		t.Error("expected completer error to propagate")
	}
}

func TestGenerateAssessment_ParsesQuestions(t *testing.T) {
	fake := &fakeCompleter{response: `{
	  "title": "Go Fundamentals Quiz",
	  "description": "Checks the basics",
	  "questions": [
	    {
	      "question": "What does go vet do?",
	      "options": [
	        {"option": "Formats code", "isCorrect": false},
	        {"option": "Reports suspicious constructs", "isCorrect": true}
	      ],
	      "explanation": "vet is a static checker"
	    }
	  ]
	}`}
	gen := NewGenerator(fake, zap.NewNop())

	assessment, err := gen.GenerateAssessment(context.Background(), "Go Fundamentals", []string{"go"}, "backend developer")
	if err != nil {
		t.Fatalf("GenerateAssessment() error: %v", err)
	}
	if len(assessment.Questions) != 1 {
		t.Fatalf("len(Questions) = %d, want 1", len(assessment.Questions))
	}
	q := assessment.Questions[0]
	if !q.Options[1].IsCorrect || q.Options[0].IsCorrect {
		t.Errorf("options decoded wrong: %+v", q.Options)
	}
}

func TestGenerateAssessment_NoQuestionsRejected(t *testing.T) {
	fake := &fakeCompleter{response: `{"title": "Quiz", "questions": []}`}
	gen := NewGenerator(fake, zap.NewNop())

	if _, err := gen.GenerateAssessment(context.Background(), "M", nil, "dev"); err == nil {
		t.Error("expected error for assessment without questions")
	}
}

func TestGenerateResources_ParsesWrapper(t *testing.T) {
	fake := &fakeCompleter{response: `{
	  "resources": [
	    {"title": "Intro video", "type": "video", "searchQuery": "go tutorial", "provider": "youtube", "estimatedDuration": "1h"}
	  ]
	}`}
	gen := NewGenerator(fake, zap.NewNop())

	resources, err := gen.GenerateResources(context.Background(), "Go Fundamentals", []string{"go"}, "backend developer")
	if err != nil {
		t.Fatalf("GenerateResources() error: %v", err)
	}
	if len(resources) != 1 || resources[0].SearchQuery != "go tutorial" {
		t.Errorf("resources = %+v", resources)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"stray backticks", "`{\"a\":1}`", `{"a":1}`},
		{"padded", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := extractJSON(c.in); got != c.want {
				t.Errorf("extractJSON(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
