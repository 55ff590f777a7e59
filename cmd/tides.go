package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/haulplan/app"
	"github.com/kilianp07/haulplan/core/model"
)

var (
	tideStation string
	tideYear    int
	idealRamp   int64
)

var tidesCmd = &cobra.Command{
	Use:   "tides",
	Short: "Download a year of tide predictions into the annual file cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			n, err := svc.Tides.Download(ctx, tideStation, tideYear)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored %d events for station %s (%d)\n", n, tideStation, tideYear)
			return err
		})
	},
}

var idealDaysCmd = &cobra.Command{
	Use:   "ideal-days",
	Short: "List the days a ramp has a midday high tide for the crane",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			days, err := svc.Engine.IdealDays(ctx, idealRamp, tideYear)
			if err != nil {
				return err
			}
			if len(days) == 0 {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "no ideal days for ramp %d in %d\n", idealRamp, tideYear)
				return err
			}
			for _, d := range days {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", model.DayKey(d), d.Weekday().String()[:3]); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	year := time.Now().UTC().Year()
	tidesCmd.Flags().StringVar(&tideStation, "station", "", "NOAA station id")
	tidesCmd.Flags().IntVar(&tideYear, "year", year, "prediction year")
	_ = tidesCmd.MarkFlagRequired("station")

	idealDaysCmd.Flags().Int64Var(&idealRamp, "ramp", 0, "ramp id")
	idealDaysCmd.Flags().IntVar(&tideYear, "year", year, "season year")
	_ = idealDaysCmd.MarkFlagRequired("ramp")

	rootCmd.AddCommand(tidesCmd, idealDaysCmd)
}
