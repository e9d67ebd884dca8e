package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/snapbench/snapbench/internal/config"
	"github.com/snapbench/snapbench/internal/history"
	"github.com/snapbench/snapbench/internal/meter"
	"github.com/snapbench/snapbench/internal/raster"
	"github.com/snapbench/snapbench/internal/report"
	"github.com/snapbench/snapbench/internal/sysinfo"
	"github.com/snapbench/snapbench/internal/tui"
	"github.com/snapbench/snapbench/internal/utils"
	"github.com/snapbench/snapbench/internal/version"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "snapbench",
	Short: "Measure image rasterization latency across a grid of scale factors",
	Long: `snapbench times how long it takes to scale an image into a fresh raster,
walking a grid of X/Y scale factors and repeating each configuration. Per
configuration the samples pass through a Grubbs outlier filter and the
corrected average is reported as a markdown grid.`,
	Version: Version,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBenchmark(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringP("image", "i", "", "Source image: file path or http(s) URL (default: built-in pattern)")
	rootCmd.Flags().IntP("runs", "r", 0, "Timed runs per configuration")
	rootCmd.Flags().Int("step", 0, "Scale factor increment")
	rootCmd.Flags().Int("max-scale", -1, "Largest scale factor offset (grid covers step..max-scale+step)")
	rootCmd.Flags().Float64P("significance", "s", 0, "Outlier pruning significance level in (0,1)")
	rootCmd.Flags().StringP("filter", "f", "", "Scaling filter: nearest, bilinear or catmullrom")
	rootCmd.Flags().Bool("save", false, "Save each configuration's raster as snapshot_<W>x<H>.png")
	rootCmd.Flags().Bool("copy", false, "Copy the markdown result table to the clipboard")
	rootCmd.Flags().Bool("plain", false, "Line-per-configuration output instead of the progress UI")
	rootCmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	rootCmd.Flags().StringP("output", "o", "", "Write the markdown result table to a file")
	rootCmd.SetVersionTemplate("snapbench version {{.Version}}\n")
}

// initializeGlobalState sets up directories, the history database and logging
func initializeGlobalState() {
	stateDir := config.GetStateDir()
	logsDir := config.GetLogsDir()

	_ = os.MkdirAll(stateDir, 0o755)
	_ = os.MkdirAll(logsDir, 0o755)

	history.Configure(filepath.Join(stateDir, "snapbench.db"))
	utils.ConfigureDebug(logsDir)

	settings, err := config.LoadSettings()
	var retention int
	if err == nil {
		retention = settings.General.LogRetentionCount
	} else {
		retention = config.DefaultSettings().General.LogRetentionCount
	}
	utils.CleanupLogs(retention)
}

func runBenchmark(cmd *cobra.Command) error {
	initializeGlobalState()

	settings, err := config.LoadSettings()
	if err != nil {
		settings = config.DefaultSettings()
	}

	opts, filterName, err := buildOptions(cmd, settings)
	if err != nil {
		return err
	}
	plain, _ := cmd.Flags().GetBool("plain")
	plain = plain || settings.General.PlainOutput
	imageRef, _ := cmd.Flags().GetString("image")
	copyMd, _ := cmd.Flags().GetBool("copy")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	outputPath, _ := cmd.Flags().GetString("output")

	// Concurrent instances fight for CPU and skew each other's timings.
	locked, err := AcquireLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another snapbench run is in progress")
	}
	defer func() {
		if err := ReleaseLock(); err != nil {
			utils.Debug("Error releasing lock: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, err := raster.LoadSource(ctx, imageRef, raster.FetchOptions{
		Timeout:   settings.Network.FetchTimeout,
		UserAgent: settings.Network.UserAgent,
	})
	if err != nil {
		return err
	}

	env := sysinfo.Collect()
	fmt.Println(env.String())
	fmt.Println()

	var updateCh chan *version.UpdateInfo
	if !settings.General.SkipUpdateCheck {
		updateCh = make(chan *version.UpdateInfo, 1)
		go func() {
			info, _ := version.CheckForUpdate(Version)
			updateCh <- info
		}()
	}

	var res *meter.RunResult
	if plain {
		res, err = runPlain(ctx, src, opts)
	} else {
		res, err = runWithTUI(ctx, cancel, src, opts)
	}
	if err != nil {
		return err
	}

	fmt.Println(report.Render(res, plain))

	md := report.Markdown(res)
	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		fmt.Printf("Wrote %s\n", outputPath)
	}
	if copyMd {
		if err := clipboard.WriteAll(md); err != nil {
			fmt.Fprintf(os.Stderr, "Could not copy to clipboard: %v\n", err)
		} else {
			fmt.Println("Copied markdown table to clipboard.")
		}
	}

	if !noHistory {
		run := historyRunFrom(res, filterName, env)
		if err := history.SaveRun(run); err != nil {
			fmt.Fprintf(os.Stderr, "Could not save run to history: %v\n", err)
		} else {
			fmt.Printf("Recorded run %s\n", shortID(run.ID))
		}
	}

	if updateCh != nil {
		if info := <-updateCh; info != nil && info.UpdateAvailable {
			fmt.Printf("\nUpdate available: %s -> %s (%s)\n", info.CurrentVersion, info.LatestVersion, info.ReleaseURL)
		}
	}

	return nil
}

// buildOptions merges settings with flag overrides into meter options.
func buildOptions(cmd *cobra.Command, settings *config.Settings) (meter.Options, string, error) {
	bench := settings.Benchmark

	if cmd.Flags().Changed("runs") {
		bench.Runs, _ = cmd.Flags().GetInt("runs")
	}
	if cmd.Flags().Changed("step") {
		bench.Step, _ = cmd.Flags().GetInt("step")
	}
	if cmd.Flags().Changed("max-scale") {
		bench.MaxScale, _ = cmd.Flags().GetInt("max-scale")
	}
	if cmd.Flags().Changed("significance") {
		bench.Significance, _ = cmd.Flags().GetFloat64("significance")
	}
	if cmd.Flags().Changed("filter") {
		bench.Filter, _ = cmd.Flags().GetString("filter")
	}

	interp, err := raster.ParseFilter(bench.Filter)
	if err != nil {
		return meter.Options{}, "", err
	}

	save, _ := cmd.Flags().GetBool("save")
	opts := meter.Options{
		Runs:          bench.Runs,
		Step:          bench.Step,
		MaxScale:      bench.MaxScale,
		Significance:  bench.Significance,
		Interp:        interp,
		SaveSnapshots: save || settings.General.SaveSnapshots,
		SnapshotDir:   settings.General.SnapshotDir,
	}
	if err := opts.Validate(); err != nil {
		return meter.Options{}, "", err
	}
	return opts, bench.Filter, nil
}

// runPlain consumes progress events as log lines on stdout.
func runPlain(ctx context.Context, src *raster.Source, opts meter.Options) (*meter.RunResult, error) {
	events := make(chan any, 100)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range events {
			switch m := msg.(type) {
			case meter.RunFinishedMsg:
				if m.Err != nil {
					fmt.Printf("Snapshot scale %dx%d (run %d): !failed! %v\n", m.ScaleX, m.ScaleY, m.Run, m.Err)
				}
			case meter.OutlierPrunedMsg:
				fmt.Printf("Snapshot scale %dx%d: pruned outlier %.2f ms\n", m.ScaleX, m.ScaleY, m.ValueMs)
			case meter.ConfigFinishedMsg:
				r := m.Result
				if r.OK {
					fmt.Printf("Snapshot %dx%d: %.2f ms (%d runs, %d pruned)\n",
						r.Width, r.Height, r.MeanMs, len(r.Samples), len(r.Pruned))
				} else {
					fmt.Printf("Snapshot %dx%d: no result (%d runs, %d failed)\n",
						r.Width, r.Height, len(r.Samples), r.Failed)
				}
			}
		}
	}()

	res, err := meter.Run(ctx, src, opts, events)
	close(events)
	<-done
	return res, err
}

// runWithTUI shows a live progress bar while the grid walk runs.
func runWithTUI(ctx context.Context, cancel context.CancelFunc, src *raster.Source, opts meter.Options) (*meter.RunResult, error) {
	scales := opts.Scales()
	totalRuns := len(scales) * len(scales) * opts.Runs

	p := tea.NewProgram(tui.NewModel(totalRuns, cancel))
	events := make(chan any, 100)

	go func() {
		for msg := range events {
			p.Send(msg)
		}
	}()
	go func() {
		// The final WalkFinishedMsg reaches the model through the event
		// stream; only failures need an explicit message.
		_, err := meter.Run(ctx, src, opts, events)
		close(events)
		if err != nil {
			p.Send(tui.ErrMsg{Err: err})
		}
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("progress UI failed: %w", err)
	}

	m := final.(tui.Model)
	if m.Err() != nil {
		return nil, m.Err()
	}
	if m.Result() == nil {
		return nil, fmt.Errorf("benchmark aborted")
	}
	return m.Result(), nil
}

// historyRunFrom converts a finished run into its stored form.
func historyRunFrom(res *meter.RunResult, filterName string, env sysinfo.Info) *history.Run {
	run := &history.Run{
		CreatedAt:    res.StartedAt,
		Source:       res.Source,
		Runs:         res.Options.Runs,
		Step:         res.Options.Step,
		MaxScale:     res.Options.MaxScale,
		Significance: res.Options.Significance,
		Filter:       filterName,
		Elapsed:      res.Elapsed,
		GoVersion:    env.GoVersion,
		OS:           env.OS,
		Arch:         env.Arch,
	}
	for _, c := range res.Results {
		run.Results = append(run.Results, history.Result{
			ScaleX:  c.ScaleX,
			ScaleY:  c.ScaleY,
			Width:   c.Width,
			Height:  c.Height,
			Samples: len(c.Samples),
			Failed:  c.Failed,
			Pruned:  len(c.Pruned),
			MeanMs:  c.MeanMs,
			OK:      c.OK,
		})
	}
	return run
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
