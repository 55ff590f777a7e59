package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/kilianp07/haulplan/core/engine"
	"github.com/kilianp07/haulplan/core/model"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult renders a search result as a slot table followed by warnings
// and diagnostics.
func printResult(w io.Writer, res engine.Result) error {
	fmt.Fprintln(w, res.Message)
	if len(res.Slots) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tDATE\tSTART\tEND\tTRUCK\tCRANE\tTIDE\tSCORE")
		for i, s := range res.Slots {
			crane := "-"
			if s.NeedsCrane {
				crane = "until " + s.CraneEnd.Format("15:04")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%.0f\n", i+1, model.DayKey(s.Date),
				s.Start.Format("15:04"), s.HaulerEnd.Format("15:04"), s.TruckName, crane, tideLabel(s), s.Score)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	for _, warn := range res.Warnings {
		fmt.Fprintln(w, "warning:", warn)
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintln(w, "  "+d)
	}
	return nil
}

func tideLabel(s model.Slot) string {
	if len(s.HighTides) == 0 {
		return s.TideRule
	}
	hts := make([]string, len(s.HighTides))
	for i, t := range s.HighTides {
		hts[i] = t.Format("15:04")
	}
	return s.TideRule + " (HT " + strings.Join(hts, ", ") + ")"
}
