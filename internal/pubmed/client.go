// Package pubmed is a thin client for the NCBI E-utilities API: esearch for
// PMIDs, efetch for article XML. Single attempt per call, fixed timeout, no
// retry or backoff; retry policy belongs to the caller.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docuchat/medreview/internal/domain"
)

// DateRange bounds a search by publication date, format "YYYY/MM/DD".
type DateRange struct {
	Min string
	Max string
}

// Client talks to the E-utilities endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds E-utilities client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a PubMed E-utilities client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// esearchResponse mirrors the JSON envelope of esearch.fcgi.
type esearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search returns PMIDs matching the query, newest publications first,
// along with the total number of matches on the server.
func (c *Client) Search(ctx context.Context, query string, limit int, dates DateRange) ([]string, int, error) {
	params := url.Values{
		"db":       {"pubmed"},
		"term":     {query},
		"retmode":  {"json"},
		"retmax":   {strconv.Itoa(limit)},
		"datetype": {"pdat"},
		"sort":     {"pub+date"},
	}
	if dates.Min != "" {
		params.Set("mindate", dates.Min)
	}
	if dates.Max != "" {
		params.Set("maxdate", dates.Max)
	}

	body, err := c.get(ctx, "/esearch.fcgi", params)
	if err != nil {
		return nil, 0, err
	}

	var parsed esearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, fmt.Errorf("decode esearch response: %w", domain.ErrRemoteService)
	}

	total, _ := strconv.Atoi(parsed.ESearchResult.Count)

	c.logger.Debug("pubmed search",
		zap.String("query", query),
		zap.Int("total", total),
		zap.Int("returned", len(parsed.ESearchResult.IDList)),
	)

	return parsed.ESearchResult.IDList, total, nil
}

// Fetch returns the raw EFetch XML for the given PMIDs.
// The API rejects an empty id list, so we do too.
func (c *Client) Fetch(ctx context.Context, pmids []string) ([]byte, error) {
	if len(pmids) == 0 {
		return nil, fmt.Errorf("no PMIDs to fetch: %w", domain.ErrInvalidArgument)
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"xml"},
	}

	return c.get(ctx, "/efetch.fcgi", params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, err, domain.ErrRemoteService)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", path, domain.ErrRemoteService)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d: %w", path, resp.StatusCode, domain.ErrRemoteService)
	}

	return body, nil
}
