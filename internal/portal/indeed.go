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

const indeedBaseURL = "https://api.indeed.com"

// IndeedAdapter fetches listings from the Indeed publisher API.
//
// Indeed does not expose structured job type or seniority through this API:
// job type is always full-time (the search is filtered that way) and the
// experience level is inferred from the title.
type IndeedAdapter struct {
	publisherID string
	extractor   *skills.Extractor
	client      *http.Client

	// BaseURL is overridable in tests.
	BaseURL string
}

// NewIndeedAdapter constructs the adapter with a shared timeout client.
func NewIndeedAdapter(publisherID string, extractor *skills.Extractor, timeout time.Duration) *IndeedAdapter {
	return &IndeedAdapter{
		publisherID: publisherID,
		extractor:   extractor,
		client:      &http.Client{Timeout: timeout},
		BaseURL:     indeedBaseURL,
	}
}

func (a *IndeedAdapter) Source() model.Source { return model.SourceIndeed }

// indeedResponse mirrors the publisher API payload.
type indeedResponse struct {
	Results []indeedJob `json:"results"`
}

type indeedJob struct {
	JobKey            string `json:"jobkey"`
	JobTitle          string `json:"jobtitle"`
	Company           string `json:"company"`
	FormattedLocation string `json:"formattedLocation"`
	Snippet           string `json:"snippet"`
	Date              string `json:"date"`
	URL               string `json:"url"`
}

// Search fetches up to limit listings matching q.
func (a *IndeedAdapter) Search(ctx context.Context, q Query, limit int) ([]model.JobListing, error) {
	params := url.Values{}
	params.Set("publisher", a.publisherID)
	params.Set("q", q.Role)
	params.Set("l", q.Location)
	params.Set("sort", "date")
	params.Set("radius", "25")
	params.Set("st", "jobsite")
	params.Set("jt", "fulltime")
	params.Set("start", "0")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("format", "json")
	params.Set("v", "2")

	reqURL := a.BaseURL + "/ads/apisearch?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
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
		return nil, fmt.Errorf("indeed returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp indeedResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	listings := make([]model.JobListing, 0, len(apiResp.Results))
	for _, j := range apiResp.Results {
		listings = append(listings, model.JobListing{
			ExternalID:      j.JobKey,
			Title:           j.JobTitle,
			Company:         j.Company,
			Location:        j.FormattedLocation,
			Description:     j.Snippet,
			Requirements:    a.extractor.Extract(j.Snippet),
			JobType:         model.JobTypeFullTime,
			ExperienceLevel: inferExperienceLevel(j.JobTitle),
			DatePosted:      parsePostedDate(j.Date),
			URL:             j.URL,
			Source:          model.SourceIndeed,
		})
	}
	return listings, nil
}
