package danbooru

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"imgsauce/internal/classify"
	"imgsauce/internal/config"
	"imgsauce/internal/logging"
	"imgsauce/internal/services"
)

const (
	defaultBaseURL     = "https://danbooru.donmai.us"
	defaultHTTPTimeout = 30 * time.Second
	stageName          = "danbooru"
)

// Config captures the runtime settings required to talk to Danbooru.
type Config struct {
	Login   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client wraps the Danbooru JSON API.
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

// NewClient constructs a Danbooru client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.Login = strings.TrimSpace(cfg.Login)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
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

// NewFromConfig builds a client from application settings.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	return NewClient(Config{
		Login:   cfg.Danbooru.Login,
		APIKey:  cfg.Danbooru.APIKey,
		BaseURL: cfg.Danbooru.BaseURL,
		Timeout: time.Duration(cfg.Danbooru.RequestTimeout) * time.Second,
	}, opts...)
}

// Post is the subset of post fields the pipeline needs.
type Post struct {
	ID          int64  `json:"id"`
	MD5         string `json:"md5"`
	ImageWidth  int    `json:"image_width"`
	ImageHeight int    `json:"image_height"`
	IsBanned    bool   `json:"is_banned"`
}

// Asset converts the post into the classifier's view of it.
func (p Post) Asset() classify.Asset {
	return classify.Asset{
		RemoteID: p.ID,
		Width:    p.ImageWidth,
		Height:   p.ImageHeight,
		Banned:   p.IsBanned,
	}
}

// PostURL returns the browser URL of a post.
func (c *Client) PostURL(id int64) string {
	return fmt.Sprintf("%s/posts/%d", c.cfg.BaseURL, id)
}

// FindByMD5 returns the post whose original upload has the given MD5, or
// nil when the board has none. It searches by tag so a miss is an empty list
// rather than a 404.
func (c *Client) FindByMD5(ctx context.Context, md5 string) (*Post, error) {
	md5 = strings.ToLower(strings.TrimSpace(md5))
	if md5 == "" {
		return nil, services.Wrap(services.ErrExternal, stageName, "md5 lookup", "empty md5", nil)
	}
	query := url.Values{}
	query.Set("tags", "md5:"+md5)
	query.Set("limit", "1")

	var posts []Post
	if err := c.getJSON(ctx, "md5 lookup", "/posts.json", query, &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	post := posts[0]
	return &post, nil
}

// GetPost fetches a single post.
func (c *Client) GetPost(ctx context.Context, id int64) (Post, error) {
	var post Post
	if err := c.getJSON(ctx, "get post", "/posts/"+strconv.FormatInt(id, 10)+".json", nil, &post); err != nil {
		return Post{}, err
	}
	if post.ID == 0 {
		post.ID = id
	}
	return post, nil
}

// GetAsset implements classify.AssetLookup.
func (c *Client) GetAsset(ctx context.Context, remoteID int64) (classify.Asset, error) {
	post, err := c.GetPost(ctx, remoteID)
	if err != nil {
		return classify.Asset{}, err
	}
	return post.Asset(), nil
}

// AddFavorite adds the post to the account's favorites. Favoriting a post
// that is already a favorite succeeds.
func (c *Client) AddFavorite(ctx context.Context, id int64) error {
	form := url.Values{}
	form.Set("post_id", strconv.FormatInt(id, 10))
	req, err := c.newRequest(ctx, http.MethodPost, "/favorites.json", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return services.Wrap(services.ErrExternal, stageName, "add favorite", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, body, err := c.do(ctx, req, "add favorite")
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnprocessableEntity {
		c.logger.Debug("post already favorited", logging.Int64("remote_id", id))
		return nil
	}
	return statusError("add favorite", resp.StatusCode, body)
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, dst any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return services.Wrap(services.ErrExternal, stageName, op, "build request", err)
	}
	resp, body, err := c.do(ctx, req, op)
	if err != nil {
		return err
	}
	if err := statusError(op, resp.StatusCode, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return services.Wrap(services.ErrExternal, stageName, op, "decode response", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Login != "" && c.cfg.APIKey != "" {
		req.SetBasicAuth(c.cfg.Login, c.cfg.APIKey)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, req *http.Request, op string) (*http.Response, []byte, error) {
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, services.Wrap(services.ErrTransient, stageName, op, "request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, nil, services.Wrap(services.ErrTransient, stageName, op, "read response", err)
	}
	c.logger.Debug("danbooru response",
		logging.String("operation", op),
		logging.Int("status", resp.StatusCode),
		logging.Duration("request_duration", time.Since(started)),
	)
	return resp, body, nil
}

func statusError(op string, code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	msg := fmt.Sprintf("http %d: %s", code, snippet)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return services.Wrap(services.ErrCredential, stageName, op, msg, nil)
	case code == http.StatusNotFound:
		return services.Wrap(services.ErrSkipFile, stageName, op, "post not found", nil)
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, stageName, op, msg, nil)
	default:
		return services.Wrap(services.ErrExternal, stageName, op, msg, nil)
	}
}
