package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"skillroad/server/internal/model"
	"skillroad/server/internal/skills"
)

const linkedInBaseURL = "https://api.linkedin.com"

// LinkedInAdapter fetches listings from the LinkedIn Jobs API.
type LinkedInAdapter struct {
	apiKey    string
	extractor *skills.Extractor
	client    *http.Client

	// BaseURL is overridable in tests.
	BaseURL string
}

// NewLinkedInAdapter constructs the adapter with a shared timeout client.
func NewLinkedInAdapter(apiKey string, extractor *skills.Extractor, timeout time.Duration) *LinkedInAdapter {
	return &LinkedInAdapter{
		apiKey:    apiKey,
		extractor: extractor,
		client:    &http.Client{Timeout: timeout},
		BaseURL:   linkedInBaseURL,
	}
}

func (a *LinkedInAdapter) Source() model.Source { return model.SourceLinkedIn }

// linkedInResponse mirrors the top-level LinkedIn job search payload.
type linkedInResponse struct {
	Elements []linkedInJob `json:"elements"`
}

type linkedInJob struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Company         linkedInCompany `json:"company"`
	Location        linkedInName    `json:"location"`
	Description     string          `json:"description"`
	Salary          linkedInName    `json:"salary"`
	EmploymentType  string          `json:"employmentType"`
	ExperienceLevel string          `json:"experienceLevel"`
	PostedDate      string          `json:"postedDate"`
	JobURL          string          `json:"jobUrl"`
}

type linkedInCompany struct {
	Name string `json:"name"`
}

type linkedInName struct {
	DisplayName string `json:"displayName"`
}

// linkedInJobTypes maps LinkedIn employment types onto the canonical enum.
// Unrecognized values fall back to full-time.
var linkedInJobTypes = map[string]model.JobType{
	"FULL_TIME":  model.JobTypeFullTime,
	"PART_TIME":  model.JobTypePartTime,
	"CONTRACT":   model.JobTypeContract,
	"INTERNSHIP": model.JobTypeInternship,
}

// linkedInExperienceLevels maps LinkedIn seniority onto the canonical enum.
// Unrecognized values fall back to mid.
var linkedInExperienceLevels = map[string]model.ExperienceLevel{
	"ENTRY_LEVEL":      model.ExperienceEntry,
	"MID_SENIOR_LEVEL": model.ExperienceMid,
	"SENIOR_LEVEL":     model.ExperienceSenior,
	"EXECUTIVE":        model.ExperienceSenior,
}

// Search fetches up to limit listings matching q.
func (a *LinkedInAdapter) Search(ctx context.Context, q Query, limit int) ([]model.JobListing, error) {
	params := url.Values{}
	params.Set("keywords", q.Role)
	params.Set("location", q.Location)
	params.Set("experience", q.ExperienceLevel)
	params.Set("count", strconv.Itoa(limit))

	reqURL := a.BaseURL + "/v2/jobSearch?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("linkedin returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp linkedInResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	listings := make([]model.JobListing, 0, len(apiResp.Elements))
	for _, j := range apiResp.Elements {
		listings = append(listings, a.normalize(j, q))
	}
	return listings, nil
}

func (a *LinkedInAdapter) normalize(j linkedInJob, q Query) model.JobListing {
	company := j.Company.Name
	if company == "" {
		company = "Unknown Company"
	}
	location := j.Location.DisplayName
	if location == "" {
		location = q.Location
	}
	jobURL := j.JobURL
	if jobURL == "" {
		jobURL = "https://linkedin.com/jobs/view/" + j.ID
	}

	jobType, ok := linkedInJobTypes[j.EmploymentType]
	if !ok {
		jobType = model.JobTypeFullTime
	}
	level, ok := linkedInExperienceLevels[j.ExperienceLevel]
	if !ok {
		level = model.ExperienceMid
	}

	return model.JobListing{
		ExternalID:      j.ID,
		Title:           j.Title,
		Company:         company,
		Location:        location,
		Description:     j.Description,
		Requirements:    a.extractor.Extract(j.Description),
		Salary:          j.Salary.DisplayName,
		JobType:         jobType,
		ExperienceLevel: level,
		DatePosted:      parsePostedDate(j.PostedDate),
		URL:             jobURL,
		Source:          model.SourceLinkedIn,
	}
}
