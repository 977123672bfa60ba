package preflight

import (
	"errors"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"zxmeta/internal/config"
	"zxmeta/internal/deps"
	"zxmeta/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Marker classifies a failure; nil means ErrConfiguration.
	Marker error
}

// Request names the paths a generate run will touch.
type Request struct {
	SourceDir     string
	OutputPath    string
	MoveFailedDir string
}

// RunAll executes the checks that gate a generate run.
func RunAll(cfg *config.Config, req Request) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result

	results = append(results, CheckDirectoryAccess("Source directory", req.SourceDir, unix.R_OK|unix.X_OK))
	results = append(results, CheckDirectoryAccess("Output directory", filepath.Dir(req.OutputPath), unix.R_OK|unix.W_OK|unix.X_OK))

	if assets := cfg.AssetsRoot(req.OutputPath); assets != filepath.Dir(req.OutputPath) && pathExists(assets) {
		results = append(results, CheckDirectoryAccess("Assets directory", assets, unix.R_OK|unix.W_OK|unix.X_OK))
	}
	if strings.TrimSpace(req.MoveFailedDir) != "" {
		results = append(results, CheckDirectoryAccess("Move-failed directory", req.MoveFailedDir, unix.R_OK|unix.W_OK|unix.X_OK))
	}

	for _, status := range CheckExternalTools(cfg) {
		r := Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: status.Detail}
		if status.Available {
			r.Detail = status.Command
		}
		if !r.Passed {
			r.Marker = services.ErrExternalTool
		}
		results = append(results, r)
	}
	return results
}

// CheckExternalTools evaluates the programs a run executes.
func CheckExternalTools(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "Archive extractor",
			Command:     cfg.ExtractorBinary(),
			Description: "Required to hash games inside 7z, rar and tar archives",
		},
	})
}

// Err folds failed results into a single classified error, or nil when every
// check passed.
func Err(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Passed {
			continue
		}
		marker := r.Marker
		if marker == nil {
			marker = services.ErrConfiguration
		}
		errs = append(errs, services.Wrap(marker, "preflight", r.Name, r.Detail, nil))
	}
	return errors.Join(errs...)
}
