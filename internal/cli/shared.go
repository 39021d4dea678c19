package cli

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/teamcutter/gpm/internal/config"
	"github.com/teamcutter/gpm/internal/domain"
	"github.com/teamcutter/gpm/internal/manager"
	"github.com/teamcutter/gpm/internal/state"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func withSpinner(ctx context.Context, desc string) (stop func()) {
	spinner := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				spinner.Finish()
				return
			default:
				spinner.Add(1)
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()
	return func() {
		close(done)
		spinner.Finish()
	}
}

// buildOptions turns the --path and --install-path flags into per-call
// options. A missing manifest only fails when needManifest is set.
func buildOptions(cfg *config.Config, path, installPath string, save, needManifest bool) (manager.Options, error) {
	manifestPath, err := state.Locate(path)
	if err != nil {
		if needManifest || !errors.Is(err, domain.ErrManifestNotFound) {
			return manager.Options{}, err
		}
		manifestPath = state.ManifestName
	}

	root := installPath
	if root == "" {
		root = cfg.InstallDir
		if !filepath.IsAbs(root) {
			root = filepath.Join(filepath.Dir(manifestPath), root)
		}
	}

	return manager.Options{
		ManifestPath: manifestPath,
		InstallRoot:  root,
		Save:         save,
		Filter: domain.Filter{
			Include: cfg.Include,
			Exclude: cfg.Exclude,
		},
	}, nil
}
