package saucenao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"imgsauce/internal/config"
	"imgsauce/internal/logging"
	"imgsauce/internal/services"
)

const (
	defaultBaseURL     = "https://saucenao.com/search.php"
	defaultHTTPTimeout = 30 * time.Second
	// DanbooruIndexMask selects the Danbooru index.
	DanbooruIndexMask int64 = 512
	outputTypeJSON          = "2"
	stageName               = "saucenao"
)

// Config captures the runtime settings required to talk to SauceNAO.
type Config struct {
	APIKey        string
	BaseURL       string
	DBMask        int64
	MinSimilarity float64
	Timeout       time.Duration
}

// Client wraps the SauceNAO search endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a SauceNAO client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.DBMask <= 0 {
		cfg.DBMask = DanbooruIndexMask
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewFromConfig builds a client from application settings. minSimilarity is
// the scan's low threshold.
func NewFromConfig(cfg *config.Config, minSimilarity float64, opts ...Option) *Client {
	return NewClient(Config{
		APIKey:        cfg.SauceNAO.APIKey,
		BaseURL:       cfg.SauceNAO.BaseURL,
		DBMask:        cfg.SauceNAO.DBMask,
		MinSimilarity: minSimilarity,
		Timeout:       time.Duration(cfg.SauceNAO.RequestTimeout) * time.Second,
	}, opts...)
}

// DBMask returns the index mask sent with every request. It doubles as the
// source identifier recorded on match candidates.
func (c *Client) DBMask() int64 {
	return c.cfg.DBMask
}

// Response is the decoded search payload.
type Response struct {
	Header  Header   `json:"header"`
	Results []Result `json:"results"`
}

// Header carries the account allowance and request status.
type Header struct {
	Status          flexInt `json:"status"`
	ShortRemaining  flexInt `json:"short_remaining"`
	LongRemaining   flexInt `json:"long_remaining"`
	ResultsReturned flexInt `json:"results_returned"`
	Message         string  `json:"message"`
}

// Result is a single search hit.
type Result struct {
	Header ResultHeader `json:"header"`
	Data   ResultData   `json:"data"`
}

// ResultHeader describes the hit's similarity and index.
type ResultHeader struct {
	Similarity flexFloat `json:"similarity"`
	IndexID    flexInt   `json:"index_id"`
	IndexName  string    `json:"index_name"`
	Thumbnail  string    `json:"thumbnail"`
}

// ResultData carries the board identifiers of the hit.
type ResultData struct {
	DanbooruID flexInt  `json:"danbooru_id"`
	ExtURLs    []string `json:"ext_urls"`
}

// Hit is a simplified search hit with a Danbooru post id.
type Hit struct {
	Similarity float64
	PostID     int64
}

// Hits returns the Danbooru hits in response order, skipping entries without a post id.
func (r *Response) Hits() []Hit {
	if r == nil {
		return nil
	}
	hits := make([]Hit, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Data.DanbooruID <= 0 {
			continue
		}
		hits = append(hits, Hit{Similarity: float64(res.Header.Similarity), PostID: int64(res.Data.DanbooruID)})
	}
	return hits
}

// ShortRemaining returns the 30-second allowance left after this request.
func (r *Response) ShortRemaining() int { return int(r.Header.ShortRemaining) }

// LongRemaining returns the 24-hour allowance left after this request.
func (r *Response) LongRemaining() int { return int(r.Header.LongRemaining) }

// Search uploads a thumbnail and returns the decoded response.
func (c *Client) Search(ctx context.Context, image []byte) (*Response, error) {
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrCredential, stageName, "search", "api key required", nil)
	}
	if len(image) == 0 {
		return nil, services.Wrap(services.ErrSkipFile, stageName, "search", "empty image payload", nil)
	}

	body, contentType, err := buildUpload(image)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, stageName, "search", "build upload", err)
	}

	endpoint, err := c.searchURL()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "search", "parse base url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, stageName, "search", "build request", err)
	}
	req.Header.Set("Content-Type", contentType)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrTransient, stageName, "search", "request failed", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, stageName, "search", "read response", err)
	}
	c.logger.Debug("saucenao response",
		logging.Int("status", resp.StatusCode),
		logging.Duration("request_duration", time.Since(started)),
		logging.Int("thumbnail_bytes", len(image)),
	)

	if err := statusError(resp.StatusCode, payload); err != nil {
		return nil, err
	}

	var decoded Response
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, services.Wrap(services.ErrExternal, stageName, "search", "decode response", err)
	}
	switch status := int(decoded.Header.Status); {
	case status > 0:
		return nil, services.Wrap(services.ErrTransient, stageName, "search",
			fmt.Sprintf("server reported status %d: %s", status, decoded.Header.Message), nil)
	case status < 0:
		return nil, services.Wrap(services.ErrSkipFile, stageName, "search",
			fmt.Sprintf("image rejected with status %d: %s", status, decoded.Header.Message), nil)
	}
	return &decoded, nil
}

func (c *Client) searchURL() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("output_type", outputTypeJSON)
	q.Set("dbmask", strconv.FormatInt(c.cfg.DBMask, 10))
	q.Set("minsim", formatMinSimilarity(c.cfg.MinSimilarity))
	q.Set("api_key", c.cfg.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// formatMinSimilarity renders the threshold with the "!" suffix SauceNAO
// uses to enforce it server-side.
func formatMinSimilarity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "!"
}

func buildUpload(image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

func statusError(code int, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusForbidden:
		return services.Wrap(services.ErrCredential, stageName, "search", "incorrect or invalid api key", nil)
	case code == http.StatusTooManyRequests:
		return services.Wrap(services.ErrQuotaExhausted, stageName, "search", "out of daily searches", nil)
	case code >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, stageName, "search", fmt.Sprintf("http %d: %s", code, snippet), nil)
	default:
		return services.Wrap(services.ErrExternal, stageName, "search", fmt.Sprintf("http %d: %s", code, snippet), nil)
	}
}

// flexInt accepts JSON numbers and numeric strings; SauceNAO mixes both.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse integer %q: %w", raw, err)
	}
	*f = flexInt(v)
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", raw, err)
	}
	*f = flexFloat(v)
	return nil
}
