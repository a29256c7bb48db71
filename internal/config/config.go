package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// SauceNAO contains reverse image search settings.
type SauceNAO struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	DBMask            int64  `toml:"dbmask"`
	ThumbnailSize     int    `toml:"thumbnail_size"`
	RequestTimeout    int    `toml:"request_timeout"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	CooldownSeconds   int    `toml:"cooldown_seconds"`
}

// Danbooru contains image board credentials.
type Danbooru struct {
	Login          string `toml:"login"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Scan contains settings for directory scans.
type Scan struct {
	HighThreshold    float64  `toml:"high_threshold"`
	LowThreshold     float64  `toml:"low_threshold"`
	Extensions       []string `toml:"extensions"`
	BlacklistedTerms []string `toml:"blacklisted_terms"`
	Recursive        bool     `toml:"recursive"`
	DryRun           bool     `toml:"dry_run"`
}

// Review contains settings for the manual review session.
type Review struct {
	Threshold      float64 `toml:"threshold"`
	BrowserCommand string  `toml:"browser_command"`
}

// Schedule contains settings for crontab rescheduling.
type Schedule struct {
	Marker        string `toml:"marker"`
	Command       string `toml:"command"`
	OffsetMinutes int    `toml:"offset_minutes"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunSummary     bool   `toml:"run_summary"`
	QuotaStop      bool   `toml:"quota_stop"`
	Errors         bool   `toml:"errors"`
	Review         bool   `toml:"review"`
	ReviewMinimum  int    `toml:"review_minimum"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	RetentionDays  int               `toml:"retention_days"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Config encapsulates all configuration values for imgsauce.
//
// Configuration sections by subsystem:
//   - Paths: catalog/lock directory and run log directory
//   - SauceNAO: reverse image search credentials and request shaping
//   - Danbooru: board credentials for MD5 lookups and favorites
//   - Scan: thresholds, extensions, blacklist, dry-run
//   - Review: review threshold and browser launcher
//   - Schedule: crontab marker and command template
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	SauceNAO      SauceNAO      `toml:"saucenao"`
	Danbooru      Danbooru      `toml:"danbooru"`
	Scan          Scan          `toml:"scan"`
	Review        Review        `toml:"review"`
	Schedule      Schedule      `toml:"schedule"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/imgsauce/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("imgsauce.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogPath returns the SQLite catalog location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// LockPath returns the lock file guarding the catalog against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "imgsauce.lock")
}

// CrontabBinary returns the crontab executable name.
func (c *Config) CrontabBinary() string {
	return "crontab"
}

// HasExtension reports whether ext (with leading dot, any case) is allowed.
func (c *Config) HasExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range c.Scan.Extensions {
		if allowed == ext {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
