package cli

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/teamcutter/gpm/internal/cache"
	"github.com/teamcutter/gpm/internal/config"
	"github.com/teamcutter/gpm/internal/extractor"
	"github.com/teamcutter/gpm/internal/fetcher"
	"github.com/teamcutter/gpm/internal/logging"
	"github.com/teamcutter/gpm/internal/manager"
	"github.com/teamcutter/gpm/internal/registry"
	"github.com/teamcutter/gpm/internal/resolver"
)

var verbose bool

func Execute() error {
	rootCmd := &cobra.Command{
		Use:          "gpm",
		Short:        "Install packages straight from GitHub repositories",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs")

	rootCmd.AddCommand(
		newInstallCmd(),
		newUninstallCmd(),
		newInitCmd(),
		newVersionsCmd(),
		newCacheCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd.Execute()
}

// newManager wires the pipeline from config. The returned cleanup closes
// the response cache and is safe to call on error.
func newManager() (*manager.Manager, *config.Config, func(), error) {
	cleanup := func() {}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, cleanup, err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, verbose)
	if err != nil {
		return nil, nil, cleanup, err
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, nil, cleanup, err
	}
	ttl, err := cfg.CacheTTLDuration()
	if err != nil {
		return nil, nil, cleanup, err
	}

	ghOpts := []registry.Option{
		registry.WithHTTPClient(&http.Client{Timeout: timeout}),
		registry.WithBaseURL(cfg.APIURL),
		registry.WithUserAgent(cfg.UserAgent),
		registry.WithToken(cfg.Token),
	}
	if ttl > 0 {
		c, err := cache.New(cfg.CacheFile, ttl)
		if err != nil {
			logger.Warn("response cache disabled", "path", cfg.CacheFile, "err", err)
		} else {
			ghOpts = append(ghOpts, registry.WithCache(c))
			cleanup = func() { c.Close() }
		}
	}

	res := resolver.New(registry.New(ghOpts...), logger)

	fOpts := []fetcher.Option{
		fetcher.WithArchiveURL(cfg.ArchiveURL),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithLogger(logger),
	}
	if cfg.Progress {
		fOpts = append(fOpts, fetcher.WithProgress(os.Stderr))
	}

	return manager.New(
		res,
		fetcher.New(res, timeout, fOpts...),
		extractor.New(),
		logger), cfg, cleanup, nil
}
