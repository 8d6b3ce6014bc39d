package preflight

import (
	"strings"

	"ridiexport/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for cfg. The library check only runs
// when userID names an active account.
func RunAll(cfg *config.Config, userID string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckCredentialFile(cfg.Paths.AuthFile))
	results = append(results, CheckBinary("DRM helper", cfg.DRM.Helper))

	if strings.TrimSpace(userID) != "" {
		results = append(results, CheckLibrary(cfg.Paths.LibraryBase, userID))
	} else {
		results = append(results, Result{Name: "Library", Detail: "no active account (run `ridiexport auth register`)"})
	}

	if cfg.Export.OutputDir != "" {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Export.OutputDir))
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
