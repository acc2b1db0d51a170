package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"skillroad/server/internal/model"
	"skillroad/server/internal/skills"
)

const glassdoorBaseURL = "https://www.glassdoor.com"

// GlassdoorAdapter scrapes the public Glassdoor search page. Glassdoor has
// no open JSON API, so listings are parsed out of the HTML result cards;
// job type and seniority are inferred the same way as for Indeed.
type GlassdoorAdapter struct {
	extractor *skills.Extractor
	client    *http.Client

	// BaseURL is overridable in tests.
	BaseURL string
}

const glassdoorUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewGlassdoorAdapter constructs the adapter with a shared timeout client.
func NewGlassdoorAdapter(extractor *skills.Extractor, timeout time.Duration) *GlassdoorAdapter {
	return &GlassdoorAdapter{
		extractor: extractor,
		client:    &http.Client{Timeout: timeout},
		BaseURL:   glassdoorBaseURL,
	}
}

func (a *GlassdoorAdapter) Source() model.Source { return model.SourceGlassdoor }

// Search fetches one search-results page and parses up to limit job cards.
func (a *GlassdoorAdapter) Search(ctx context.Context, q Query, limit int) ([]model.JobListing, error) {
	params := url.Values{}
	params.Set("sc.keyword", q.Role)
	params.Set("locKeyword", q.Location)

	reqURL := a.BaseURL + "/Job/jobs.htm?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", glassdoorUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("glassdoor returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var listings []model.JobListing
	doc.Find("li[data-id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(listings) >= limit {
			return false
		}
		if job, ok := a.extractCard(s); ok {
			listings = append(listings, job)
		}
		return true
	})
	return listings, nil
}

func (a *GlassdoorAdapter) extractCard(s *goquery.Selection) (model.JobListing, bool) {
	id, _ := s.Attr("data-id")
	title := strings.TrimSpace(s.Find("[class*='jobTitle'], a[data-test='job-title']").First().Text())
	company := strings.TrimSpace(s.Find("[class*='employerName'], [data-test='employer-name']").First().Text())
	if id == "" || title == "" || company == "" {
		return model.JobListing{}, false
	}

	location := strings.TrimSpace(s.Find("[class*='location'], [data-test='emp-location']").First().Text())
	snippet := strings.TrimSpace(s.Find("[class*='jobDescriptionSnippet']").First().Text())
	salary := strings.TrimSpace(s.Find("[class*='salaryEstimate'], [data-test='detailSalary']").First().Text())

	jobURL := s.Find("a").First().AttrOr("href", "")
	if jobURL != "" && !strings.HasPrefix(jobURL, "http") {
		jobURL = a.BaseURL + jobURL
	}

	return model.JobListing{
		ExternalID:      id,
		Title:           title,
		Company:         company,
		Location:        location,
		Description:     snippet,
		Requirements:    a.extractor.Extract(snippet),
		Salary:          salary,
		JobType:         model.JobTypeFullTime,
		ExperienceLevel: inferExperienceLevel(title),
		DatePosted:      time.Now().UTC(),
		URL:             jobURL,
		Source:          model.SourceGlassdoor,
	}, true
}
