package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/teamcutter/gpm/internal/cache"
	"github.com/teamcutter/gpm/internal/config"
	"github.com/teamcutter/gpm/internal/fsutil"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the GitHub API response cache",
	}
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the GitHub API response cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if !fsutil.Exists(cfg.CacheFile) {
				fmt.Printf("%s Cache is empty\n", green("✓"))
				return nil
			}

			ttl, err := cfg.CacheTTLDuration()
			if err != nil {
				return err
			}
			c, err := cache.New(cfg.CacheFile, ttl)
			if err != nil {
				return err
			}
			defer c.Close()

			size, _ := c.Size()

			if err := c.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}

			fmt.Printf("%s Cache cleared (%s freed)\n", green("✓"), humanize.Bytes(uint64(size)))
			return nil
		},
	}
}
