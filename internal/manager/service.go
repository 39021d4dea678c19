package manager

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/teamcutter/gpm/internal/domain"
	"github.com/teamcutter/gpm/internal/fsutil"
	"github.com/teamcutter/gpm/internal/state"
)

const StagingDirName = ".tmp"

// Options carries everything an install or uninstall call needs to know
// about where it operates.
type Options struct {
	ManifestPath string
	InstallRoot  string
	Save         bool
	Filter       domain.Filter
}

func (o Options) stagingRoot() string {
	return filepath.Join(o.InstallRoot, StagingDirName)
}

type Manager struct {
	resolver  domain.Resolver
	fetcher   domain.Fetcher
	installer domain.Installer
	logger    *log.Logger
}

func New(
	resolver domain.Resolver,
	fetcher domain.Fetcher,
	installer domain.Installer,
	logger *log.Logger,
) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Manager{
		resolver:  resolver,
		fetcher:   fetcher,
		installer: installer,
		logger:    logger,
	}
}

// InstallOne downloads and installs a single package. An empty spec
// installs the newest version.
func (m *Manager) InstallOne(ctx context.Context, pkg domain.PackageID, spec domain.Specifier, opts Options) (*domain.InstallResult, error) {
	if spec == nil {
		spec = domain.LatestSpec{}
	}
	stagingRoot := opts.stagingRoot()
	defer m.cleanStaging(stagingRoot, pkg)

	m.logger.Info("installing", "package", pkg, "version", spec)

	staged, err := m.fetcher.Fetch(ctx, pkg, spec, stagingRoot)
	if err != nil {
		return nil, err
	}
	defer os.Remove(staged.Path)

	m.logger.Debug("staged", "package", pkg, "url", staged.URL, "path", staged.Path, "bytes", staged.Size)

	path, err := m.installer.Install(staged, opts.InstallRoot, opts.Filter)
	if err != nil {
		return nil, err
	}

	result := &domain.InstallResult{
		Name:        pkg.Name,
		Version:     staged.Specifier.String(),
		Author:      pkg.Author,
		DownloadURL: staged.URL,
		Path:        path,
		Size:        staged.Size,
	}

	if opts.Save {
		if err := state.New(opts.ManifestPath).Set(pkg.String(), result.Version); err != nil {
			return result, err
		}
		m.logger.Debug("manifest updated", "path", opts.ManifestPath, "package", pkg, "version", result.Version)
	}

	return result, nil
}

// InstallAll installs every manifest entry. Failures are collected per
// package; only an unreadable manifest stops the run.
func (m *Manager) InstallAll(ctx context.Context, opts Options) ([]domain.Outcome, error) {
	manifest, err := state.New(opts.ManifestPath).Load()
	if err != nil {
		return nil, err
	}

	one := opts
	one.Save = false

	outcomes := make([]domain.Outcome, 0, manifest.Dependencies.Len())
	for name, version := range manifest.Dependencies.All() {
		outcome := domain.Outcome{Package: name}

		pkg, err := domain.ParsePackageID(name)
		if err != nil {
			outcome.Err = err
		} else {
			outcome.Result, outcome.Err = m.InstallOne(ctx, pkg, domain.ParseSpecifier(version), one)
		}

		if outcome.Err != nil {
			m.logger.Warn("install failed", "package", name, "err", outcome.Err)
		}
		outcomes = append(outcomes, outcome)
	}

	if err := os.RemoveAll(opts.stagingRoot()); err != nil {
		m.logger.Warn("could not remove staging directory", "path", opts.stagingRoot(), "err", err)
	}

	return outcomes, nil
}

// Uninstall removes an installed package. A package that was never
// installed is not an error.
func (m *Manager) Uninstall(ctx context.Context, pkg domain.PackageID, opts Options) error {
	authorDir := filepath.Join(opts.InstallRoot, pkg.Author)
	packageDir := filepath.Join(authorDir, pkg.Name)

	if info, err := os.Stat(packageDir); err == nil && info.IsDir() {
		if err := os.RemoveAll(packageDir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", packageDir, err)
		}
		if _, err := fsutil.RemoveIfEmpty(authorDir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", authorDir, err)
		}
		m.logger.Info("removed", "package", pkg, "path", packageDir)
	} else {
		m.logger.Debug("not installed", "package", pkg, "path", packageDir)
	}

	if opts.Save {
		if err := state.New(opts.ManifestPath).Remove(pkg.String()); err != nil {
			return err
		}
	}
	return nil
}

// Versions lists every installable version of pkg, releases first.
func (m *Manager) Versions(ctx context.Context, pkg domain.PackageID) ([]string, error) {
	return m.resolver.Resolve(ctx, pkg, 0)
}

// Init creates an empty manifest at path.
func (m *Manager) Init(path string) (string, error) {
	return state.Create(path)
}

func (m *Manager) cleanStaging(stagingRoot string, pkg domain.PackageID) {
	if _, err := fsutil.RemoveIfEmpty(filepath.Join(stagingRoot, pkg.Author)); err != nil {
		m.logger.Debug("staging cleanup", "err", err)
	}
	if _, err := fsutil.RemoveIfEmpty(stagingRoot); err != nil {
		m.logger.Debug("staging cleanup", "err", err)
	}
}
