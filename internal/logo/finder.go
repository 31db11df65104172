// Package logo locates and downloads company logo images.
package logo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/CenderVN/Company-Profile-AI-Generator/internal/logger"
	"github.com/CenderVN/Company-Profile-AI-Generator/internal/types"
)

const (
	// SearchTimeout bounds a single image search request
	SearchTimeout = 30 * time.Second
	// CustomSearchURL is the Google Custom Search JSON API endpoint
	CustomSearchURL = "https://customsearch.googleapis.com/customsearch/v1"
	// ImageSearchURL is the public image search page used when no API
	// credentials are configured
	ImageSearchURL = "https://www.google.com/search"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// imageURLPattern matches direct image URLs embedded in a search results page.
var imageURLPattern = regexp.MustCompile(`"(https?://[^"\\]+?\.(?:png|jpg|jpeg))"`)

// Finder resolves a company name to a candidate logo image URL. When a Custom
// Search API key and engine ID are configured it uses the JSON API; otherwise
// it falls back to scraping the public image search page.
type Finder struct {
	httpClient *http.Client
	apiKey     string
	engineID   string
	searchURL  string
	scrapeURL  string
}

// NewFinder creates a Finder. apiKey and engineID may both be empty.
func NewFinder(apiKey, engineID string) *Finder {
	return &Finder{
		httpClient: &http.Client{Timeout: SearchTimeout},
		apiKey:     apiKey,
		engineID:   engineID,
		searchURL:  CustomSearchURL,
		scrapeURL:  ImageSearchURL,
	}
}

// SetSearchURL overrides the Custom Search endpoint (useful for testing).
func (f *Finder) SetSearchURL(u string) {
	f.searchURL = u
}

// SetScrapeURL overrides the public search page endpoint (useful for testing).
func (f *Finder) SetScrapeURL(u string) {
	f.scrapeURL = u
}

// FindLogoURL returns the first candidate image URL for the company's logo,
// or an empty string when nothing suitable was found.
func (f *Finder) FindLogoURL(ctx context.Context, company string) (string, error) {
	query := company + " logo"
	if f.apiKey != "" && f.engineID != "" {
		return f.searchAPI(ctx, query)
	}
	return f.scrapeImages(ctx, query)
}

// customSearchResponse is the subset of the Custom Search JSON API response
// this package needs.
type customSearchResponse struct {
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Finder) searchAPI(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("key", f.apiKey)
	params.Set("cx", f.engineID)
	params.Set("q", query)
	params.Set("searchType", "image")
	params.Set("num", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to create search request", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", types.NewAppError(types.ErrNetwork, "image search request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewAppError(types.ErrNetwork, "failed to read search response", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", types.NewAppError(types.ErrAPIRateLimit, "image search rate limit exceeded", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", types.NewAppErrorWithDetails(
			types.ErrAPICall,
			"image search failed",
			fmt.Sprintf("status %d", resp.StatusCode),
			nil,
		)
	}

	var searchResp customSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return "", types.NewAppError(types.ErrAPICall, "failed to parse search response", err)
	}
	if searchResp.Error != nil {
		return "", types.NewAppErrorWithDetails(
			types.ErrAPICall,
			"image search returned error",
			searchResp.Error.Message,
			nil,
		)
	}

	for _, item := range searchResp.Items {
		if item.Link != "" {
			logger.Debug("image search hit", logger.String("url", item.Link))
			return item.Link, nil
		}
	}

	logger.Warn("image search returned no results", logger.String("query", query))
	return "", nil
}

func (f *Finder) scrapeImages(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("tbm", "isch")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.scrapeURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to create search request", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", types.NewAppError(types.ErrNetwork, "image search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", types.NewAppErrorWithDetails(
			types.ErrNetwork,
			"image search page unavailable",
			fmt.Sprintf("status %d", resp.StatusCode),
			nil,
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", types.NewAppError(types.ErrNetwork, "failed to read search page", err)
	}

	for _, match := range imageURLPattern.FindAllStringSubmatch(string(body), -1) {
		candidate := match[1]
		if isServiceURL(candidate) {
			continue
		}
		logger.Debug("scraped image candidate", logger.String("url", candidate))
		return candidate, nil
	}

	logger.Warn("no image candidates found on search page", logger.String("query", query))
	return "", nil
}

// isServiceURL filters out thumbnails and static assets served by the search
// engine itself.
func isServiceURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.Contains(lower, "gstatic.com") ||
		strings.Contains(lower, "googleusercontent.com") ||
		strings.Contains(lower, "google.com") ||
		strings.Contains(lower, "googlelogo")
}
