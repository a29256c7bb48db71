package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"imgsauce/internal/catalog"
	"imgsauce/internal/config"
	"imgsauce/internal/deps"
)

// CheckDanbooru verifies Danbooru connectivity and authentication.
func CheckDanbooru(ctx context.Context, baseURL, login, apiKey string) Result {
	const name = "Danbooru"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(login) == "" || strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing login or api key"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/profile.json", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	req.SetBasicAuth(strings.TrimSpace(login), strings.TrimSpace(apiKey))

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid login or api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode)}
	}
}

// CheckCredentials reports whether the credentials a scan needs are configured.
func CheckCredentials(cfg *config.Config, hashOnly bool) Result {
	const name = "Credentials"
	if err := cfg.RequireSearchCredentials(hashOnly); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if hashOnly {
		return Result{Name: name, Passed: true, Detail: "Danbooru configured"}
	}
	return Result{Name: name, Passed: true, Detail: "SauceNAO and Danbooru configured"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCatalog opens the catalog and runs its health check. A catalog that
// does not exist yet passes; the first scan creates it.
func CheckCatalog(ctx context.Context, path string) Result {
	const name = "Catalog"
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	store, err := catalog.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	health, err := store.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !health.IntegrityCheck || len(health.MissingTables) > 0 {
		detail := health.Error
		if detail == "" {
			detail = fmt.Sprintf("missing tables: %s", strings.Join(health.MissingTables, ", "))
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, detail)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (schema v%d, %d images, %d candidates)", path, health.SchemaVersion, health.TotalImages, health.TotalMatches),
	}
}

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "crontab",
			Command:     cfg.CrontabBinary(),
			Description: "Required for --schedule and the schedule command",
			Optional:    true,
		},
		{
			Name:        "Browser launcher",
			Command:     firstField(cfg.Review.BrowserCommand),
			Description: "Opens candidate posts during review",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}

func firstField(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "auth check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "auth check timed out (unreachable)"
	}
	return fmt.Sprintf("auth check failed (%v)", err)
}
