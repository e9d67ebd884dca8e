// Package sysinfo reports the runtime environment a benchmark ran under, so
// results from different machines can be told apart.
package sysinfo

import (
	"fmt"
	"runtime"
	"strings"
)

// Info is a snapshot of the runtime environment.
type Info struct {
	GoVersion  string
	OS         string
	Arch       string
	NumCPU     int
	GOMAXPROCS int

	HeapSysMB   float64
	HeapAllocMB float64
	GCCycles    uint32
}

// Collect gathers the current environment snapshot.
func Collect() Info {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Info{
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		NumCPU:      runtime.NumCPU(),
		GOMAXPROCS:  runtime.GOMAXPROCS(0),
		HeapSysMB:   float64(m.HeapSys) / 1024 / 1024,
		HeapAllocMB: float64(m.HeapAlloc) / 1024 / 1024,
		GCCycles:    m.NumGC,
	}
}

// String renders the report block printed before a benchmark run.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Go Version:          %s\n", i.GoVersion)
	fmt.Fprintf(&b, "Operating System:    %s\n", i.OS)
	fmt.Fprintf(&b, "System Architecture: %s\n", i.Arch)
	fmt.Fprintf(&b, "CPUs:                %d (GOMAXPROCS %d)\n", i.NumCPU, i.GOMAXPROCS)
	fmt.Fprintf(&b, "Heap Stats:          Sys: %.0fMB | Alloc: %.0fMB\n", i.HeapSysMB, i.HeapAllocMB)
	fmt.Fprintf(&b, "GC Cycles:           %d", i.GCCycles)
	return b.String()
}
