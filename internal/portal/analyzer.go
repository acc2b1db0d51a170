package portal

import (
	"math"
	"sort"
	"time"

	"skillroad/server/internal/model"
)

const (
	topSkills    = 20
	topCompanies = 10
	topLocations = 10
)

// Analyze computes descriptive statistics over one batch of listings:
// skill demand (top 20), top companies (top 10, names only) and location
// counts (top 10). Percentages are rounded against the batch size. Sorting
// is stable, so equal counts keep first-occurrence order of the input —
// there is no secondary key.
//
// An empty batch yields zero totals and empty rollups.
func Analyze(jobs []model.JobListing, jobRole, location string) *model.JobMarketData {
	type skillTally struct {
		count     int
		companies []string
		seen      map[string]bool
	}

	skillCounts := make(map[string]*skillTally)
	companyCounts := make(map[string]int)
	locationCounts := make(map[string]int)

	// Orders record first occurrence so ties stay reproducible.
	var skillOrder, companyOrder, locationOrder []string

	for _, job := range jobs {
		for _, skill := range job.Requirements {
			tally, ok := skillCounts[skill]
			if !ok {
				tally = &skillTally{seen: make(map[string]bool)}
				skillCounts[skill] = tally
				skillOrder = append(skillOrder, skill)
			}
			tally.count++
			if !tally.seen[job.Company] {
				tally.seen[job.Company] = true
				tally.companies = append(tally.companies, job.Company)
			}
		}

		if _, ok := companyCounts[job.Company]; !ok {
			companyOrder = append(companyOrder, job.Company)
		}
		companyCounts[job.Company]++

		if _, ok := locationCounts[job.Location]; !ok {
			locationOrder = append(locationOrder, job.Location)
		}
		locationCounts[job.Location]++
	}

	total := len(jobs)

	skillDemand := make([]model.SkillDemand, 0, len(skillOrder))
	for _, skill := range skillOrder {
		tally := skillCounts[skill]
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(tally.count) / float64(total) * 100))
		}
		skillDemand = append(skillDemand, model.SkillDemand{
			Skill:      skill,
			Count:      tally.count,
			Percentage: pct,
			Companies:  tally.companies,
		})
	}
	sort.SliceStable(skillDemand, func(i, j int) bool {
		return skillDemand[i].Count > skillDemand[j].Count
	})
	if len(skillDemand) > topSkills {
		skillDemand = skillDemand[:topSkills]
	}

	sort.SliceStable(companyOrder, func(i, j int) bool {
		return companyCounts[companyOrder[i]] > companyCounts[companyOrder[j]]
	})
	companies := companyOrder
	if len(companies) > topCompanies {
		companies = companies[:topCompanies]
	}

	locations := make([]model.LocationCount, 0, len(locationOrder))
	for _, loc := range locationOrder {
		locations = append(locations, model.LocationCount{Location: loc, Count: locationCounts[loc]})
	}
	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].Count > locations[j].Count
	})
	if len(locations) > topLocations {
		locations = locations[:topLocations]
	}

	return &model.JobMarketData{
		JobRole:      jobRole,
		Location:     location,
		TotalJobs:    total,
		SkillDemand:  skillDemand,
		TopCompanies: companies,
		Locations:    locations,
		LastUpdated:  time.Now().UTC(),
	}
}
