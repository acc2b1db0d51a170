// Package portal implements job-listing providers, the concurrent
// aggregator that fans out across them, and the market analyzer.
package portal

import (
	"context"
	"strings"
	"time"

	"skillroad/server/internal/model"
)

// Query carries the search parameters shared by every provider.
type Query struct {
	Role            string
	Location        string
	ExperienceLevel string
}

// Adapter normalizes one external job portal into canonical listings.
//
// Implementations must not surface provider failures as partial results: a
// failed fetch returns (nil, err) and the aggregator isolates it. A portal
// without API access is a legitimate adapter that always returns an empty
// list.
type Adapter interface {
	Source() model.Source
	Search(ctx context.Context, q Query, limit int) ([]model.JobListing, error)
}

// parsePostedDate accepts the date formats the portals emit. Listings with
// unparseable dates sort as just-posted rather than being dropped.
func parsePostedDate(raw string) time.Time {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
		time.RFC1123Z,
		time.RFC1123,
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// inferExperienceLevel guesses seniority from a job title for portals that
// do not expose a structured level. Defaults to mid.
func inferExperienceLevel(title string) model.ExperienceLevel {
	lower := strings.ToLower(title)
	switch {
	case containsAny(lower, "senior", "lead", "principal", "staff"):
		return model.ExperienceSenior
	case containsAny(lower, "junior", "entry", "intern", "graduate", "trainee"):
		return model.ExperienceEntry
	default:
		return model.ExperienceMid
	}
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
