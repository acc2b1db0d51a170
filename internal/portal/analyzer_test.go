package portal_test

import (
	"reflect"
	"testing"
	"time"

	"skillroad/server/internal/model"
	"skillroad/server/internal/portal"
)

func day(n int) time.Time {
	return time.Date(2025, 6, n, 0, 0, 0, 0, time.UTC)
}

func TestAnalyze_EmptyBatch(t *testing.T) {
	got := portal.Analyze(nil, "backend developer", "")

	if got.TotalJobs != 0 {
		t.Errorf("TotalJobs = %d, want 0", got.TotalJobs)
	}
	if len(got.SkillDemand) != 0 {
		t.Errorf("SkillDemand = %v, want empty", got.SkillDemand)
	}
	if len(got.TopCompanies) != 0 {
		t.Errorf("TopCompanies = %v, want empty", got.TopCompanies)
	}
	if len(got.Locations) != 0 {
		t.Errorf("Locations = %v, want empty", got.Locations)
	}
}

func TestAnalyze_ReferenceScenario(t *testing.T) {
	jobs := []model.JobListing{
		{Company: "Acme", Requirements: []string{"python", "sql"}, DatePosted: day(2)},
		{Company: "Acme", Requirements: []string{"python"}, DatePosted: day(1)},
	}

	got := portal.Analyze(jobs, "data engineer", "")

	if got.TotalJobs != 2 {
		t.Fatalf("TotalJobs = %d, want 2", got.TotalJobs)
	}

	wantSkills := []model.SkillDemand{
		{Skill: "python", Count: 2, Percentage: 100, Companies: []string{"Acme"}},
		{Skill: "sql", Count: 1, Percentage: 50, Companies: []string{"Acme"}},
	}
	if !reflect.DeepEqual(got.SkillDemand, wantSkills) {
		t.Errorf("SkillDemand = %+v, want %+v", got.SkillDemand, wantSkills)
	}

	if !reflect.DeepEqual(got.TopCompanies, []string{"Acme"}) {
		t.Errorf("TopCompanies = %v, want [Acme]", got.TopCompanies)
	}
}

func TestAnalyze_PercentageIsIndependentlyRounded(t *testing.T) {
	// 3 listings: 1/3 rounds to 33, 2/3 rounds to 67.
	jobs := []model.JobListing{
		{Company: "A", Requirements: []string{"go", "sql"}},
		{Company: "B", Requirements: []string{"go"}},
		{Company: "C", Requirements: []string{}},
	}

	got := portal.Analyze(jobs, "backend", "")

	byName := map[string]model.SkillDemand{}
	for _, sd := range got.SkillDemand {
		byName[sd.Skill] = sd
	}
	if byName["go"].Percentage != 67 {
		t.Errorf("go percentage = %d, want 67", byName["go"].Percentage)
	}
	if byName["sql"].Percentage != 33 {
		t.Errorf("sql percentage = %d, want 33", byName["sql"].Percentage)
	}
}

func TestAnalyze_TieBreakIsInputOrder(t *testing.T) {
	jobs := []model.JobListing{
		{Company: "First", Location: "Berlin", Requirements: []string{"docker"}},
		{Company: "Second", Location: "Madrid", Requirements: []string{"aws"}},
		{Company: "Third", Location: "Lisbon", Requirements: []string{"git"}},
	}

	got := portal.Analyze(jobs, "devops", "")

	wantCompanies := []string{"First", "Second", "Third"}
	if !reflect.DeepEqual(got.TopCompanies, wantCompanies) {
		t.Errorf("TopCompanies = %v, want %v (ties keep input order)", got.TopCompanies, wantCompanies)
	}

	wantSkills := []string{"docker", "aws", "git"}
	for i, sd := range got.SkillDemand {
		if sd.Skill != wantSkills[i] {
			t.Errorf("SkillDemand[%d] = %s, want %s", i, sd.Skill, wantSkills[i])
		}
	}

	wantLocations := []string{"Berlin", "Madrid", "Lisbon"}
	for i, lc := range got.Locations {
		if lc.Location != wantLocations[i] {
			t.Errorf("Locations[%d] = %s, want %s", i, lc.Location, wantLocations[i])
		}
	}
}

func TestAnalyze_TruncatesRollups(t *testing.T) {
	var jobs []model.JobListing
	for i := 0; i < 30; i++ {
		jobs = append(jobs, model.JobListing{
			Company:      string(rune('A' + i%26)),
			Location:     string(rune('a' + i%26)),
			Requirements: []string{"skill-" + string(rune('a'+i))},
		})
	}

	got := portal.Analyze(jobs, "any", "")

	if len(got.SkillDemand) != 20 {
		t.Errorf("len(SkillDemand) = %d, want 20", len(got.SkillDemand))
	}
	if len(got.TopCompanies) != 10 {
		t.Errorf("len(TopCompanies) = %d, want 10", len(got.TopCompanies))
	}
	if len(got.Locations) != 10 {
		t.Errorf("len(Locations) = %d, want 10", len(got.Locations))
	}
}

func TestAnalyze_DistinctCompaniesPerSkill(t *testing.T) {
	jobs := []model.JobListing{
		{Company: "Acme", Requirements: []string{"react"}},
		{Company: "Acme", Requirements: []string{"react"}},
		{Company: "Globex", Requirements: []string{"react"}},
	}

	got := portal.Analyze(jobs, "frontend", "")

	if len(got.SkillDemand) != 1 {
		t.Fatalf("len(SkillDemand) = %d, want 1", len(got.SkillDemand))
	}
	sd := got.SkillDemand[0]
	if sd.Count != 3 {
		t.Errorf("count = %d, want 3", sd.Count)
	}
	want := []string{"Acme", "Globex"}
	if !reflect.DeepEqual(sd.Companies, want) {
		t.Errorf("companies = %v, want %v", sd.Companies, want)
	}
}
