package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/gpm/internal/domain"
)

func newUninstallCmd() *cobra.Command {
	var (
		save        bool
		path        string
		installPath string
	)

	cmd := &cobra.Command{
		Use:   "uninstall <package>",
		Short: "Remove an installed package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := domain.ParsePackageID(args[0])
			if err != nil {
				return err
			}

			mgr, cfg, cleanup, err := newManager()
			defer cleanup()
			if err != nil {
				return err
			}

			opts, err := buildOptions(cfg, path, installPath, save, save)
			if err != nil {
				return err
			}

			if err := mgr.Uninstall(cmd.Context(), pkg, opts); err != nil {
				fmt.Printf("%s %s: %v\n", red("✗"), bold(pkg), err)
				return fmt.Errorf("failed to uninstall %s", pkg)
			}

			fmt.Printf("%s %s uninstalled\n", green("✓"), bold(pkg))
			if save {
				fmt.Printf("%s %s was updated\n", green("✓"), yellow(opts.ManifestPath))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&save, "save", "s", false, "Remove the package from gpm.json")
	cmd.Flags().StringVarP(&path, "path", "p", "", "Path to the gpm.json file or its directory")
	cmd.Flags().StringVarP(&installPath, "install-path", "i", "", "Directory the package is installed in")
	return cmd
}
