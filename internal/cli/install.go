package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/teamcutter/gpm/internal/domain"
)

func newInstallCmd() *cobra.Command {
	var (
		save        bool
		path        string
		installPath string
	)

	cmd := &cobra.Command{
		Use:   "install [package [version]]",
		Short: "Install a package, or every package listed in gpm.json",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, cfg, cleanup, err := newManager()
			defer cleanup()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				opts, err := buildOptions(cfg, path, installPath, false, true)
				if err != nil {
					return err
				}

				fmt.Printf("Installing dependencies from %s...\n", yellow(opts.ManifestPath))
				outcomes, err := mgr.InstallAll(cmd.Context(), opts)
				if err != nil {
					return err
				}

				var failed int
				for _, o := range outcomes {
					if o.Err != nil {
						fmt.Printf("%s %s: %v\n", red("✗"), bold(o.Package), o.Err)
						failed++
						continue
					}
					printResult(o.Result)
				}

				fmt.Printf("\n%d of %d package(s) installed\n", len(outcomes)-failed, len(outcomes))
				if failed > 0 {
					return fmt.Errorf("failed to install %d package(s)", failed)
				}
				return nil
			}

			pkg, err := domain.ParsePackageID(args[0])
			if err != nil {
				return err
			}
			var spec domain.Specifier = domain.LatestSpec{}
			if len(args) == 2 {
				spec = domain.ParseSpecifier(args[1])
			}

			opts, err := buildOptions(cfg, path, installPath, save, save)
			if err != nil {
				return err
			}

			result, err := mgr.InstallOne(cmd.Context(), pkg, spec, opts)
			if result != nil {
				printResult(result)
			}
			if err != nil {
				return err
			}
			if save {
				fmt.Printf("%s %s was updated\n", green("✓"), yellow(opts.ManifestPath))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&save, "save", "s", false, "Record the installed version in gpm.json")
	cmd.Flags().StringVarP(&path, "path", "p", "", "Path to the gpm.json file or its directory")
	cmd.Flags().StringVarP(&installPath, "install-path", "i", "", "Directory packages are installed into")
	return cmd
}

func printResult(r *domain.InstallResult) {
	fmt.Printf("%s %s%s%s %s\n  %s %s\n  %s %s\n",
		green("✓"), bold(r.Author+"/"+r.Name), bold("@"), bold(r.Version),
		dim("("+humanize.Bytes(uint64(r.Size))+")"),
		cyan("url:"), r.DownloadURL,
		cyan("path:"), r.Path)
}
