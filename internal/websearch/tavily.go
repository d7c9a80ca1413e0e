// Package websearch adapts the Tavily search API into the retrieval
// pipeline. Web search is optional enrichment: every failure path
// degrades to an empty result set, never an error the caller must
// handle.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/verdana-ai/verdana/internal/storage"
)

const (
	defaultBaseURL = "https://api.tavily.com/search"
	requestTimeout = 30 * time.Second
)

// ErrSearch indicates a provider failure. Internal only; the public
// search methods swallow it and return empty results.
var ErrSearch = errors.New("web search error")

// euDomains is the allow-list of authoritative sources used in
// verification mode.
var euDomains = []string{
	"europa.eu",
	"ec.europa.eu",
	"consilium.europa.eu",
	"europarl.europa.eu",
	"eur-lex.europa.eu",
}

// Searcher performs web searches against Tavily. Each request uses a
// fresh HTTP client: reusing one across bursty calls produced
// stale-connection failures in production.
type Searcher struct {
	apiKey     string
	baseURL    string
	maxResults int
	logger     *slog.Logger
}

// New creates a Searcher. An empty apiKey disables the provider: all
// searches return the static fallback set (broad mode) or nothing.
func New(apiKey string, maxResults int, logger *slog.Logger) *Searcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Enabled reports whether the provider is configured.
func (s *Searcher) Enabled() bool { return s.apiKey != "" }

type searchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeAnswer  bool     `json:"include_answer"`
	IncludeRaw     bool     `json:"include_raw_content"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type searchResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

// SearchVerification runs a domain-restricted search against the
// authoritative EU sources, used to corroborate knowledge-base content.
func (s *Searcher) SearchVerification(ctx context.Context, query string) []storage.SearchResult {
	if !s.Enabled() {
		s.logger.Warn("Tavily API key not configured, skipping verification search")
		return nil
	}

	results, err := s.search(ctx, searchRequest{
		Query:          query + " EU European Union",
		SearchDepth:    "basic",
		IncludeAnswer:  true,
		MaxResults:     s.maxResults,
		IncludeDomains: euDomains,
	}, storage.SourceWebVerification)
	if err != nil {
		s.logger.Error("Verification search failed", "error", err)
		return nil
	}
	return results
}

// SearchBroad runs an unrestricted search for supplementary coverage,
// used when the knowledge base has too little to say. When the provider
// is unconfigured it returns the static fallback set so the composer
// still has canonical references to offer.
func (s *Searcher) SearchBroad(ctx context.Context, query string, maxResults int) []storage.SearchResult {
	if !s.Enabled() {
		s.logger.Warn("Tavily API key not configured, using fallback sources")
		return FallbackResults(maxResults)
	}
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	results, err := s.search(ctx, searchRequest{
		Query:         query + " European Union EU policy strategy",
		SearchDepth:   "basic",
		IncludeAnswer: true,
		MaxResults:    maxResults,
	}, storage.SourceWebSearch)
	if err != nil {
		s.logger.Error("Broad search failed", "error", err)
		return nil
	}
	return results
}

// PolicyUpdates checks for recent changes to a specific policy using an
// advanced-depth, domain-restricted search.
func (s *Searcher) PolicyUpdates(ctx context.Context, policyName string) []storage.SearchResult {
	if !s.Enabled() {
		return nil
	}

	results, err := s.search(ctx, searchRequest{
		Query:          policyName + " EU policy updates changes",
		SearchDepth:    "advanced",
		IncludeAnswer:  true,
		MaxResults:     3,
		IncludeDomains: euDomains[:3],
	}, storage.SourceWebSearch)
	if err != nil {
		s.logger.Error("Policy update search failed", "error", err)
		return nil
	}
	return results
}

// search issues one Tavily request over a fresh connection.
func (s *Searcher) search(ctx context.Context, req searchRequest, sourceType storage.SourceType) ([]storage.SearchResult, error) {
	req.APIKey = s.apiKey

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrSearch, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrSearch, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", ErrSearch, resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearch, err)
	}

	results := make([]storage.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, storage.SearchResult{
			Title:      r.Title,
			Content:    r.Content,
			Similarity: clamp01(r.Score),
			Type:       sourceType,
			URL:        r.URL,
		})
	}

	s.logger.Info("Web search completed", "mode", string(sourceType), "results", len(results))
	return results, nil
}

// Health verifies the provider responds to a trivial query.
func (s *Searcher) Health(ctx context.Context) error {
	if !s.Enabled() {
		return fmt.Errorf("%w: no API key configured", ErrSearch)
	}
	_, err := s.search(ctx, searchRequest{
		Query:      "EU Green Deal",
		MaxResults: 1,
	}, storage.SourceWebSearch)
	return err
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
