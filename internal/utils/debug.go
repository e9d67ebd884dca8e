package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

var (
	debugFile *os.File
	debugOnce sync.Once
	logsDir   string
	mu        sync.RWMutex
)

// ConfigureDebug sets the directory for debug logs
func ConfigureDebug(dir string) {
	mu.Lock()
	defer mu.Unlock()
	logsDir = dir
}

// Debug writes a message to debug.log file in the configured directory
func Debug(format string, args ...any) {
	// add timestamp to each debug message
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	mu.RLock()
	dir := logsDir
	mu.RUnlock()

	// If no logs directory is configured, do nothing
	if dir == "" {
		return
	}

	debugOnce.Do(func() {
		os.MkdirAll(dir, 0755)
		debugFile, _ = os.Create(filepath.Join(dir, fmt.Sprintf("debug-%s.log", time.Now().Format("20060102-150405"))))
	})

	if debugFile != nil {
		fmt.Fprintf(debugFile, "[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
	}
}

// CleanupLogs removes old debug logs, keeping the most recent `keep` files.
func CleanupLogs(keep int) {
	mu.RLock()
	dir := logsDir
	mu.RUnlock()

	if dir == "" || keep <= 0 {
		return
	}

	entries, err := filepath.Glob(filepath.Join(dir, "debug-*.log"))
	if err != nil || len(entries) <= keep {
		return
	}

	// Timestamped names sort chronologically
	sort.Strings(entries)
	for _, path := range entries[:len(entries)-keep] {
		_ = os.Remove(path)
	}
}
