package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapbench/snapbench/internal/history"
	"github.com/snapbench/snapbench/internal/meter"
	"github.com/snapbench/snapbench/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent benchmark runs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := history.ListRuns(limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Println("No recorded runs.")
			return
		}

		fmt.Printf("%-10s %-20s %-24s %-12s %s\n", "ID", "DATE", "SOURCE", "GRID", "TIME")
		for _, r := range runs {
			grid := fmt.Sprintf("%dx, step %d", r.MaxScale+r.Step, r.Step)
			fmt.Printf("%-10s %-20s %-24s %-12s %s\n",
				shortID(r.ID),
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				r.Source,
				grid,
				r.Elapsed.Round(10*time.Millisecond))
		}
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run's corrected-average grid",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		run, err := loadRun(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Run %s from %s on %s/%s (%s, filter %s)\n\n",
			shortID(run.ID), run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.OS, run.Arch, run.GoVersion, run.Filter)

		plain, _ := cmd.Flags().GetBool("plain")
		fmt.Println(report.Render(meterResultFrom(run), plain))
	},
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		id, err := history.ResolveRunID(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := history.DeleteRun(id); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed run %s\n", shortID(id))
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list")
	historyShowCmd.Flags().Bool("plain", false, "Markdown output without styling")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRmCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadRun(ref string) (*history.Run, error) {
	id, err := history.ResolveRunID(ref)
	if err != nil {
		return nil, err
	}
	return history.GetRun(id)
}

// meterResultFrom rebuilds the renderable result from its stored form. Raw
// samples are not persisted, so only their counts are reconstructed.
func meterResultFrom(run *history.Run) *meter.RunResult {
	res := &meter.RunResult{
		Source:    run.Source,
		StartedAt: run.CreatedAt,
		Elapsed:   run.Elapsed,
		Options: meter.Options{
			Runs:         run.Runs,
			Step:         run.Step,
			MaxScale:     run.MaxScale,
			Significance: run.Significance,
		},
	}
	for _, r := range run.Results {
		res.Results = append(res.Results, meter.ConfigResult{
			ScaleX:  r.ScaleX,
			ScaleY:  r.ScaleY,
			Width:   r.Width,
			Height:  r.Height,
			Samples: make([]float64, r.Samples),
			Pruned:  make([]float64, r.Pruned),
			Failed:  r.Failed,
			MeanMs:  r.MeanMs,
			OK:      r.OK,
		})
	}
	return res
}
