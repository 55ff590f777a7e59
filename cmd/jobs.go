package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kilianp07/haulplan/api/booking"
	"github.com/kilianp07/haulplan/app"
	"github.com/kilianp07/haulplan/core/engine"
	"github.com/kilianp07/haulplan/core/model"
)

var (
	searchIn       booking.SearchRequest
	jsonOut        bool
	pick           int
	parkedID       int64
	rescheduleDate string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find hauling slots for a boat",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := searchIn.Request()
		if err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			res, err := svc.Engine.FindSlots(ctx, req)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printResult(cmd.OutOrStdout(), res)
		})
	},
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Search and confirm one of the returned slots",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := searchIn.Request()
		if err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			res, err := svc.Engine.FindSlots(ctx, req)
			if err != nil {
				return err
			}
			if len(res.Slots) == 0 {
				_ = printResult(cmd.OutOrStdout(), res)
				return fmt.Errorf("nothing to book")
			}
			if pick < 1 || pick > len(res.Slots) {
				return fmt.Errorf("--pick must be within 1..%d", len(res.Slots))
			}
			id, msg, err := svc.Engine.Confirm(ctx, req, res.Slots[pick-1], parkedID)
			if err != nil {
				if msg != "" {
					return fmt.Errorf("%s: %w", msg, err)
				}
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "job %d: %s\n", id, msg)
			return err
		})
	},
}

var parkCmd = &cobra.Command{
	Use:   "park <job-id>",
	Short: "Take a scheduled job off the schedule, keeping it for rebooking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			if err := svc.Engine.ParkJob(ctx, id); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "job %d parked\n", id)
			return err
		})
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Delete a job permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			if err := svc.Engine.CancelJob(ctx, id); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "job %d cancelled\n", id)
			return err
		})
	},
}

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule <parked-job-id>",
	Short: "Book a parked job on the first slot found for a new date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		day, err := model.ParseDay(rescheduleDate)
		if err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			job, err := svc.Repo.GetJob(ctx, id)
			if err != nil {
				return err
			}
			res, err := svc.Engine.FindSlots(ctx, engine.RequestFromJob(job, day))
			if err != nil {
				return err
			}
			if len(res.Slots) == 0 {
				_ = printResult(cmd.OutOrStdout(), res)
				return fmt.Errorf("nothing to book")
			}
			newID, msg, err := svc.Engine.Reschedule(ctx, id, res.Slots[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "job %d: %s\n", newID, msg)
			return err
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, bookCmd} {
		f := c.Flags()
		f.Int64Var(&searchIn.BoatID, "boat", 0, "boat id")
		f.Int64Var(&searchIn.CustomerID, "customer", 0, "customer id (checked against the boat owner)")
		f.StringVar(&searchIn.Service, "service", "Launch", "Launch, Haul, Sandblast or Paint")
		f.StringVar(&searchIn.Date, "date", "", "requested date (YYYY-MM-DD)")
		f.Int64Var(&searchIn.RampID, "ramp", 0, "ramp id; defaults to the boat's preferred ramp")
		f.IntVar(&searchIn.Suggestions, "suggestions", 0, "number of slots to return")
		f.BoolVar(&searchIn.ManagerOverride, "override", false, "manager override of conflicts and ramp restrictions")
		f.StringVar(&searchIn.PreferredTruck, "truck", "", "preferred truck name")
		f.BoolVar(&searchIn.ForcePreferred, "force-truck", false, "only consider the preferred truck")
		_ = c.MarkFlagRequired("boat")
		_ = c.MarkFlagRequired("date")
	}
	searchCmd.Flags().BoolVar(&jsonOut, "json", false, "print the raw result as JSON")
	bookCmd.Flags().IntVar(&pick, "pick", 1, "1-based index of the slot to confirm")
	bookCmd.Flags().Int64Var(&parkedID, "replace", 0, "parked job id removed in the same transaction")
	rescheduleCmd.Flags().StringVar(&rescheduleDate, "date", "", "new requested date (YYYY-MM-DD)")
	_ = rescheduleCmd.MarkFlagRequired("date")

	rootCmd.AddCommand(searchCmd, bookCmd, parkCmd, cancelCmd, rescheduleCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", s)
	}
	return id, nil
}
