package portal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillroad/server/internal/model"
	"skillroad/server/internal/portal"
)

const indeedPayload = `{
  "results": [
    {
      "jobkey": "abc",
      "jobtitle": "Junior React Developer",
      "company": "Globex",
      "formattedLocation": "Austin, TX",
      "snippet": "Work with React, TypeScript and GraphQL.",
      "date": "2025-06-03T00:00:00Z",
      "url": "https://indeed.com/viewjob?jk=abc"
    },
    {
      "jobkey": "def",
      "jobtitle": "Staff Platform Engineer",
      "company": "Initech",
      "formattedLocation": "Remote",
      "snippet": "Kubernetes and AWS at scale.",
      "date": "2025-06-01T00:00:00Z",
      "url": "https://indeed.com/viewjob?jk=def"
    }
  ]
}`

func TestIndeedSearch_NormalizesListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("publisher"); got != "pub-7" {
			t.Errorf("publisher = %q", got)
		}
		if got := q.Get("q"); got != "frontend developer" {
			t.Errorf("q = %q", got)
		}
		if got := q.Get("format"); got != "json" {
			t.Errorf("format = %q", got)
		}
		w.Write([]byte(indeedPayload))
	}))
	defer srv.Close()

	adapter := portal.NewIndeedAdapter("pub-7", newExtractor(t), time.Second)
	adapter.BaseURL = srv.URL

	jobs, err := adapter.Search(context.Background(), portal.Query{Role: "frontend developer"}, 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}

	junior, staff := jobs[0], jobs[1]
	if junior.ExperienceLevel != model.ExperienceEntry {
		t.Errorf("junior title inferred %s, want entry", junior.ExperienceLevel)
	}
	if staff.ExperienceLevel != model.ExperienceSenior {
		t.Errorf("staff title inferred %s, want senior", staff.ExperienceLevel)
	}
	for _, j := range jobs {
		if j.JobType != model.JobTypeFullTime {
			t.Errorf("JobType = %s, want full-time", j.JobType)
		}
		if j.Source != model.SourceIndeed {
			t.Errorf("Source = %s, want indeed", j.Source)
		}
	}

	wantSkills := []string{"react", "typescript", "graphql"}
	if len(junior.Requirements) != len(wantSkills) {
		t.Fatalf("Requirements = %v, want %v", junior.Requirements, wantSkills)
	}
}

func TestIndeedSearch_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	adapter := portal.NewIndeedAdapter("pub-7", newExtractor(t), time.Second)
	adapter.BaseURL = srv.URL

	jobs, err := adapter.Search(context.Background(), portal.Query{Role: "dev"}, 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("len(jobs) = %d, want 0", len(jobs))
	}
}
