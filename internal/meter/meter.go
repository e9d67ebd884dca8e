// Package meter drives the benchmark: it walks the grid of scale factors,
// times the raster operation for each configuration and feeds the samples
// through the robust averager.
package meter

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/image/draw"

	"github.com/snapbench/snapbench/internal/raster"
	"github.com/snapbench/snapbench/internal/stats"
	"github.com/snapbench/snapbench/internal/utils"
)

// Options configures a benchmark run.
type Options struct {
	Runs         int
	Step         int
	MaxScale     int
	Significance float64
	Interp       draw.Interpolator

	SaveSnapshots bool
	SnapshotDir   string
}

// Validate rejects parameter combinations the walk cannot execute.
func (o Options) Validate() error {
	if o.Runs < 1 {
		return fmt.Errorf("runs must be >= 1, got %d", o.Runs)
	}
	if o.Step < 1 {
		return fmt.Errorf("step must be >= 1, got %d", o.Step)
	}
	if o.MaxScale < 0 {
		return fmt.Errorf("max scale must be >= 0, got %d", o.MaxScale)
	}
	if o.Significance <= 0 || o.Significance >= 1 {
		return fmt.Errorf("significance must be in (0,1), got %g", o.Significance)
	}
	if o.Interp == nil {
		return fmt.Errorf("no interpolator configured")
	}
	return nil
}

// Scales returns the scale factors walked on each axis.
func (o Options) Scales() []int {
	var scales []int
	for s := o.Step; s <= o.MaxScale+o.Step; s += o.Step {
		scales = append(scales, s)
	}
	return scales
}

// ConfigResult holds one grid cell's measurements.
type ConfigResult struct {
	ScaleX, ScaleY int
	Width, Height  int

	Samples []float64 // raw per-run latencies, ms
	Failed  int       // runs that produced no sample
	Pruned  []float64 // samples rejected by the averager

	MeanMs float64
	OK     bool // false when the averager produced no result
}

// RunResult is a completed benchmark run.
type RunResult struct {
	Source    string
	Options   Options
	StartedAt time.Time
	Elapsed   time.Duration
	Results   []ConfigResult
}

// PrunedTotal counts outliers rejected across all configurations.
func (r *RunResult) PrunedTotal() int {
	n := 0
	for _, c := range r.Results {
		n += len(c.Pruned)
	}
	return n
}

// Run walks the scale grid and measures every configuration. Events are sent
// on events (may be nil) as the walk progresses; the channel is not closed.
// Cancellation is honored between runs, never mid-measurement.
func Run(ctx context.Context, src *raster.Source, opts Options, events chan<- any) (*RunResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	scales := opts.Scales()
	total := len(scales) * len(scales)
	result := &RunResult{
		Source:    src.Name,
		Options:   opts,
		StartedAt: time.Now(),
	}

	emit := func(msg any) {
		if events != nil {
			events <- msg
		}
	}

	index := 0
	for _, sx := range scales {
		for _, sy := range scales {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			w, h := raster.SnapshotSize(src.Image, float64(sx), float64(sy))
			emit(ConfigStartedMsg{ScaleX: sx, ScaleY: sy, Width: w, Height: h, Index: index, Total: total})

			cfg, err := measureConfig(ctx, src, sx, sy, opts, emit)
			if err != nil {
				return nil, err
			}

			if opts.SaveSnapshots {
				saveLastSnapshot(src, sx, sy, opts)
			}

			result.Results = append(result.Results, cfg)
			emit(ConfigFinishedMsg{Result: cfg})
			index++
		}
	}

	result.Elapsed = time.Since(result.StartedAt)
	emit(WalkFinishedMsg{Result: result})
	return result, nil
}

func measureConfig(ctx context.Context, src *raster.Source, sx, sy int, opts Options, emit func(any)) (ConfigResult, error) {
	w, h := raster.SnapshotSize(src.Image, float64(sx), float64(sy))
	cfg := ConfigResult{ScaleX: sx, ScaleY: sy, Width: w, Height: h}

	// Collect pending GC work up front so collection pauses land outside
	// the metered blocks.
	runtime.GC()

	for i := 0; i < opts.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return cfg, err
		}

		start := time.Now()
		_, err := raster.Snapshot(src.Image, float64(sx), float64(sy), opts.Interp)
		elapsedMs := float64(time.Since(start)) / float64(time.Millisecond)

		if err != nil {
			cfg.Failed++
			utils.Debug("snapshot %dx%d (run %d): failed: %v", w, h, i, err)
			emit(RunFinishedMsg{ScaleX: sx, ScaleY: sy, Run: i, Err: err})
			continue
		}

		cfg.Samples = append(cfg.Samples, elapsedMs)
		utils.Debug("snapshot %dx%d (run %d): %.3f ms", w, h, i, elapsedMs)
		emit(RunFinishedMsg{ScaleX: sx, ScaleY: sy, Run: i, ElapsedMs: elapsedMs})
	}

	cfg.MeanMs, cfg.OK = stats.CorrectedMean(cfg.Samples, opts.Significance, func(v float64) {
		cfg.Pruned = append(cfg.Pruned, v)
		utils.Debug("snapshot %dx%d: pruned outlier %.3f ms", w, h, v)
		emit(OutlierPrunedMsg{ScaleX: sx, ScaleY: sy, ValueMs: v})
	})

	return cfg, nil
}

// saveLastSnapshot re-renders the configuration once and writes it out.
// Save failures are diagnostic only; they never abort the walk.
func saveLastSnapshot(src *raster.Source, sx, sy int, opts Options) {
	img, err := raster.Snapshot(src.Image, float64(sx), float64(sy), opts.Interp)
	if err != nil {
		utils.Debug("could not render snapshot for saving (%dx%d): %v", sx, sy, err)
		return
	}
	saveSnapshotImage(img, opts.SnapshotDir)
}

func saveSnapshotImage(img *image.RGBA, dir string) {
	b := img.Bounds()
	name := fmt.Sprintf("snapshot_%dx%d.png", b.Dx(), b.Dy())
	path := name
	if dir != "" {
		path = filepath.Join(dir, name)
	}
	if err := raster.SavePNG(img, path); err != nil {
		utils.Debug("could not save image %s: %v", path, err)
	}
}
