package config

const (
	defaultDataDir             = "~/.local/share/imgsauce"
	defaultLogDir              = "~/.local/share/imgsauce/logs"
	defaultLogRetentionDays    = 60
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultSauceNAOBaseURL     = "https://saucenao.com/search.php"
	defaultSauceNAODBMask      = 512
	defaultThumbnailSize       = 250
	defaultRequestTimeout      = 30
	defaultRetryDelaySeconds   = 60
	defaultCooldownSeconds     = 30
	defaultDanbooruBaseURL     = "https://danbooru.donmai.us"
	defaultHighThreshold       = 92.0
	defaultLowThreshold        = 65.0
	defaultReviewThreshold     = 65.0
	defaultBrowserCommand      = "xdg-open"
	defaultScheduleMarker      = "imgsauce task"
	defaultScheduleCommand     = "imgsauce scan {dir} --recursive --schedule"
	defaultNotifyTimeout       = 10
	defaultNotifyReviewMinimum = 1
)

var defaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		SauceNAO: SauceNAO{
			BaseURL:           defaultSauceNAOBaseURL,
			DBMask:            defaultSauceNAODBMask,
			ThumbnailSize:     defaultThumbnailSize,
			RequestTimeout:    defaultRequestTimeout,
			RetryDelaySeconds: defaultRetryDelaySeconds,
			CooldownSeconds:   defaultCooldownSeconds,
		},
		Danbooru: Danbooru{
			BaseURL:        defaultDanbooruBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Scan: Scan{
			HighThreshold: defaultHighThreshold,
			LowThreshold:  defaultLowThreshold,
			Extensions:    append([]string(nil), defaultExtensions...),
		},
		Review: Review{
			Threshold:      defaultReviewThreshold,
			BrowserCommand: defaultBrowserCommand,
		},
		Schedule: Schedule{
			Marker:  defaultScheduleMarker,
			Command: defaultScheduleCommand,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunSummary:     true,
			QuotaStop:      true,
			Errors:         true,
			Review:         true,
			ReviewMinimum:  defaultNotifyReviewMinimum,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
