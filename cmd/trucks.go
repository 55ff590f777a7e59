package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/haulplan/app"
	"github.com/kilianp07/haulplan/core/model"
)

var hoursCmd = &cobra.Command{
	Use:   "hours [truck] [day=HH:MM-HH:MM ...]",
	Short: "Show truck working hours, or replace the hours of one truck",
	Long: "Without arguments the weekly hours of every truck are listed. With a truck " +
		"name and day assignments such as mon=07:00-15:00 sat=off the truck's week is " +
		"replaced; days not given become off days.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			if len(args) == 0 {
				return listHours(ctx, cmd, svc)
			}
			in := map[string]string{}
			for _, a := range args[1:] {
				day, span, ok := strings.Cut(a, "=")
				if !ok {
					return fmt.Errorf("expected day=HH:MM-HH:MM, got %q", a)
				}
				in[day] = span
			}
			hours, err := model.ParseWeekHours(in)
			if err != nil {
				return err
			}
			if err := svc.Engine.UpdateTruckSchedule(ctx, args[0], hours); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated hours for %s\n", args[0])
			return err
		})
	},
}

func listHours(ctx context.Context, cmd *cobra.Command, svc *app.Service) error {
	trucks, err := svc.Repo.ListTrucks(ctx)
	if err != nil {
		return err
	}
	hours, err := svc.Repo.ListTruckHours(ctx)
	if err != nil {
		return err
	}
	sort.Slice(trucks, func(i, j int) bool { return trucks[i].Name < trucks[j].Name })
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRUCK\tMAX FT\tMON\tTUE\tWED\tTHU\tFRI\tSAT\tSUN")
	for _, t := range trucks {
		maxLen := fmt.Sprintf("%.0f", t.MaxBoatLength)
		if t.IsCrane {
			maxLen = "crane"
		}
		row := []string{t.Name, maxLen}
		for i := 0; i < 7; i++ {
			day, _ := model.WeekdayFromIndex(i)
			shift, ok := hours[t.ID][day]
			if !ok {
				row = append(row, "off")
				continue
			}
			row = append(row, shift.String())
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(hoursCmd)
}
