package meter

// Progress events emitted while the grid walk runs. Consumed by the TUI
// program or the plain console reporter.

// ConfigStartedMsg is sent before the first run of a configuration.
type ConfigStartedMsg struct {
	ScaleX, ScaleY int
	Width, Height  int
	Index, Total   int
}

// RunFinishedMsg is sent after each individual timed run.
type RunFinishedMsg struct {
	ScaleX, ScaleY int
	Run            int
	ElapsedMs      float64
	Err            error
}

// OutlierPrunedMsg is sent for every sample the averager rejects.
type OutlierPrunedMsg struct {
	ScaleX, ScaleY int
	ValueMs        float64
}

// ConfigFinishedMsg carries the completed result for one configuration.
type ConfigFinishedMsg struct {
	Result ConfigResult
}

// WalkFinishedMsg is the final event of a benchmark run.
type WalkFinishedMsg struct {
	Result *RunResult
}
