package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/haulplan/config"
	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/infra/logger"
	"github.com/kilianp07/haulplan/simulator"
)

var (
	simCfg     simulator.Config
	simService string
	simJSON    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay synthetic requests against an in-memory yard and report truck usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if err := logger.SetLevel(cfg.Logging.Level); err != nil {
			return err
		}
		svc, err := model.ParseService(simService)
		if err != nil {
			return err
		}
		run := simCfg
		run.Service = svc
		run.Engine = cfg.Engine
		rep, err := simulator.Run(ctx, run, logger.New("simulator"), nil)
		if err != nil {
			return err
		}
		if simJSON {
			return printJSON(cmd.OutOrStdout(), rep)
		}
		return rep.WriteText(cmd.OutOrStdout())
	},
}

func init() {
	f := simulateCmd.Flags()
	f.IntVar(&simCfg.Requests, "requests", 100, "number of synthetic requests")
	f.Int64Var(&simCfg.Seed, "seed", 1, "random seed")
	f.IntVar(&simCfg.Year, "year", 0, "season year (default current year)")
	f.IntVar(&simCfg.Boats, "boats", 0, "generated fleet size (default one boat per request)")
	f.Float64Var(&simCfg.SailShare, "sail-share", 0.3, "fraction of sailboats in the generated fleet")
	f.Float64Var(&simCfg.BusyShare, "busy-share", 0.5, "fraction of requests inside the busy week")
	f.StringVar(&simCfg.BusyWeek, "busy-week", "", "first day of the busy week (YYYY-MM-DD)")
	f.StringVar(&simCfg.FleetFile, "fleet", "", "fixture file to use instead of a generated fleet")
	f.StringVar(&simService, "service", "Launch", "service requested by every synthetic request")
	f.BoolVar(&simJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(simulateCmd)
}
