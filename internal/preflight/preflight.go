package preflight

import (
	"context"

	"imgsauce/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects which credential checks apply to the run.
type Options struct {
	// HashOnly skips the reverse search credential check.
	HashOnly bool
	// Remote enables live credential checks against the services.
	Remote bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckCatalog(ctx, cfg.CatalogPath()),
		CheckCredentials(cfg, opts.HashOnly),
	}

	if opts.Remote {
		results = append(results, CheckDanbooru(ctx, cfg.Danbooru.BaseURL, cfg.Danbooru.Login, cfg.Danbooru.APIKey))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
