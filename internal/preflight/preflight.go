package preflight

import (
	"context"

	"aotw/internal/config"
	"aotw/internal/ledger"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Probes are the clients RunAll exercises. Nil probes are reported as not
// configured.
type Probes struct {
	Opener  ledger.Opener
	Ref     ledger.Ref
	Catalog Pinger
	Repo    AccessChecker
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, probes Probes) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("State directory", cfg.Paths.StateDir)}

	if probes.Opener == nil {
		results = append(results, Result{Name: "Ledger", Detail: "not configured"})
	} else {
		results = append(results, CheckLedger(ctx, probes.Opener, probes.Ref))
	}

	results = append(results, CheckCatalog(ctx, probes.Catalog))

	if cfg.Publish.Enabled {
		results = append(results, CheckPublish(ctx, probes.Repo, cfg.Publish.Owner+"/"+cfg.Publish.Repo))
	}
	return results
}

// Failed counts results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
