package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teamcutter/gpm/internal/domain"
)

func newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions <package>",
		Short: "List available versions of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := domain.ParsePackageID(args[0])
			if err != nil {
				return err
			}

			mgr, _, cleanup, err := newManager()
			defer cleanup()
			if err != nil {
				return err
			}

			stop := withSpinner(cmd.Context(), fmt.Sprintf("Resolving %s...", pkg))
			versions, err := mgr.Versions(cmd.Context(), pkg)
			stop()
			if err != nil {
				return err
			}

			quoted := make([]string, len(versions))
			for i, v := range versions {
				quoted[i] = green("'" + v + "'")
			}
			fmt.Printf("[ %s ]\n", strings.Join(quoted, ", "))
			return nil
		},
	}
}
