package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately by RequireSearchCredentials because read-only commands such as
// status and review do not need them.
func (c *Config) Validate() error {
	if err := c.validateThresholds(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateThresholds() error {
	if err := ValidateThresholds(c.Scan.LowThreshold, c.Scan.HighThreshold); err != nil {
		return err
	}
	if c.Review.Threshold < 0 || c.Review.Threshold > 100 {
		return errors.New("review.threshold must be between 0 and 100")
	}
	return nil
}

// ValidateThresholds enforces 0 <= low < high <= 100. Command-line overrides
// go through the same check.
func ValidateThresholds(low, high float64) error {
	if low < 0 || low > 100 {
		return errors.New("scan.low_threshold must be between 0 and 100")
	}
	if high < 0 || high > 100 {
		return errors.New("scan.high_threshold must be between 0 and 100")
	}
	if low >= high {
		return fmt.Errorf("scan.low_threshold (%.2f) must be below scan.high_threshold (%.2f)", low, high)
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	if err := ensurePositiveMap(map[string]int{
		"saucenao.request_timeout":      c.SauceNAO.RequestTimeout,
		"danbooru.request_timeout":      c.Danbooru.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.SauceNAO.RetryDelaySeconds < 0 {
		return errors.New("saucenao.retry_delay_seconds must be >= 0")
	}
	if c.SauceNAO.CooldownSeconds < 0 {
		return errors.New("saucenao.cooldown_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if !strings.Contains(c.Schedule.Command, "{dir}") {
		return errors.New("schedule.command must contain the {dir} placeholder")
	}
	if c.Schedule.OffsetMinutes < 0 {
		return errors.New("schedule.offset_minutes must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.ReviewMinimum < 1 {
		return errors.New("notifications.review_minimum must be >= 1")
	}
	return nil
}

// RequireSearchCredentials reports a configuration error when the scan
// credentials are missing. Hash-only scans never reach SauceNAO.
func (c *Config) RequireSearchCredentials(hashOnly bool) error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/imgsauce/config.toml"
	}
	if !hashOnly && c.SauceNAO.APIKey == "" {
		return fmt.Errorf("saucenao.api_key is required. Set SAUCENAO_APIKEY env var or edit %s (create with 'imgsauce config init')", defaultPath)
	}
	if c.Danbooru.Login == "" || c.Danbooru.APIKey == "" {
		return fmt.Errorf("danbooru.login and danbooru.api_key are required. Set DANBOORU_LOGIN/DANBOORU_APIKEY or edit %s", defaultPath)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
