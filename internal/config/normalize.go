package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSauceNAO()
	c.normalizeDanbooru()
	c.normalizeScan()
	c.normalizeReview()
	c.normalizeSchedule()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSauceNAO() {
	c.SauceNAO.APIKey = strings.TrimSpace(c.SauceNAO.APIKey)
	if c.SauceNAO.APIKey == "" {
		if value, ok := os.LookupEnv("SAUCENAO_APIKEY"); ok {
			c.SauceNAO.APIKey = strings.TrimSpace(value)
		}
	}
	c.SauceNAO.BaseURL = strings.TrimSpace(c.SauceNAO.BaseURL)
	if c.SauceNAO.BaseURL == "" {
		c.SauceNAO.BaseURL = defaultSauceNAOBaseURL
	}
	if c.SauceNAO.DBMask == 0 {
		c.SauceNAO.DBMask = defaultSauceNAODBMask
	}
	if c.SauceNAO.ThumbnailSize <= 0 {
		c.SauceNAO.ThumbnailSize = defaultThumbnailSize
	}
}

func (c *Config) normalizeDanbooru() {
	c.Danbooru.Login = strings.TrimSpace(c.Danbooru.Login)
	if c.Danbooru.Login == "" {
		if value, ok := os.LookupEnv("DANBOORU_LOGIN"); ok {
			c.Danbooru.Login = strings.TrimSpace(value)
		}
	}
	c.Danbooru.APIKey = strings.TrimSpace(c.Danbooru.APIKey)
	if c.Danbooru.APIKey == "" {
		if value, ok := os.LookupEnv("DANBOORU_APIKEY"); ok {
			c.Danbooru.APIKey = strings.TrimSpace(value)
		}
	}
	c.Danbooru.BaseURL = strings.TrimRight(strings.TrimSpace(c.Danbooru.BaseURL), "/")
	if c.Danbooru.BaseURL == "" {
		c.Danbooru.BaseURL = defaultDanbooruBaseURL
	}
}

func (c *Config) normalizeScan() {
	if len(c.Scan.Extensions) == 0 {
		c.Scan.Extensions = append([]string(nil), defaultExtensions...)
	}
	exts := make([]string, 0, len(c.Scan.Extensions))
	seen := make(map[string]struct{}, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	sort.Strings(exts)
	c.Scan.Extensions = exts

	terms := make([]string, 0, len(c.Scan.BlacklistedTerms))
	for _, term := range c.Scan.BlacklistedTerms {
		if trimmed := strings.TrimSpace(term); trimmed != "" {
			terms = append(terms, trimmed)
		}
	}
	c.Scan.BlacklistedTerms = terms
}

func (c *Config) normalizeReview() {
	c.Review.BrowserCommand = strings.TrimSpace(c.Review.BrowserCommand)
	if c.Review.BrowserCommand == "" {
		c.Review.BrowserCommand = defaultBrowserCommand
	}
}

func (c *Config) normalizeSchedule() {
	c.Schedule.Marker = strings.TrimSpace(c.Schedule.Marker)
	if c.Schedule.Marker == "" {
		c.Schedule.Marker = defaultScheduleMarker
	}
	c.Schedule.Command = strings.TrimSpace(c.Schedule.Command)
	if c.Schedule.Command == "" {
		c.Schedule.Command = defaultScheduleCommand
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
