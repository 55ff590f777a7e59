package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/haulplan/app"
	"github.com/kilianp07/haulplan/core/fleet"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.yaml|fixture.json>",
	Short: "Load trucks, ramps, customers and boats from a fixture file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fx, err := fleet.Load(args[0])
		if err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			sum, err := fleet.Apply(ctx, svc.Repo, fx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", sum)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
