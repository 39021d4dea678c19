package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teamcutter/gpm/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the gpm config file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				fmt.Printf("%s %s\n\n", dim("#"), dim(config.DefaultPath()))
				return config.Encode(os.Stdout, cfg)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default config file if none exists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := config.DefaultPath()
				created, err := config.WriteDefault(path)
				if err != nil {
					return err
				}
				if !created {
					fmt.Printf("%s %s already exists\n", yellow("!"), yellow(path))
					return nil
				}
				fmt.Printf("%s %s was created\n", green("✓"), yellow(path))
				return nil
			},
		},
	)
	return cmd
}
