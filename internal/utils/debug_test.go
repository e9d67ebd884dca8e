package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanupLogs(t *testing.T) {
	dir := t.TempDir()
	ConfigureDebug(dir)
	t.Cleanup(func() { ConfigureDebug("") })

	names := []string{
		"debug-20240101-000000.log",
		"debug-20240102-000000.log",
		"debug-20240103-000000.log",
		"debug-20240104-000000.log",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	CleanupLogs(2)

	remaining, err := filepath.Glob(filepath.Join(dir, "debug-*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 2 {
		t.Fatalf("kept %d logs, want 2: %v", len(remaining), remaining)
	}
	// Newest two survive
	for _, want := range names[2:] {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Errorf("expected %s to survive: %v", want, err)
		}
	}
}

func TestCleanupLogsNoopWhenUnderLimit(t *testing.T) {
	dir := t.TempDir()
	ConfigureDebug(dir)
	t.Cleanup(func() { ConfigureDebug("") })

	path := filepath.Join(dir, "debug-20240101-000000.log")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	CleanupLogs(5)

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log removed despite being under retention limit: %v", err)
	}
}
