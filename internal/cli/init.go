package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a gpm.json file if one doesn't already exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, cleanup, err := newManager()
			defer cleanup()
			if err != nil {
				return err
			}

			created, err := mgr.Init(path)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s was created\n", green("✓"), yellow(created))
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Where to create the gpm.json file")
	return cmd
}
