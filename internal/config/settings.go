package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	General   GeneralSettings   `json:"general"`
	Benchmark BenchmarkSettings `json:"benchmark"`
	Network   NetworkSettings   `json:"network"`
}

// GeneralSettings contains application behavior settings.
type GeneralSettings struct {
	SaveSnapshots     bool   `json:"save_snapshots"`
	SnapshotDir       string `json:"snapshot_dir"`
	SkipUpdateCheck   bool   `json:"skip_update_check"`
	PlainOutput       bool   `json:"plain_output"`
	LogRetentionCount int    `json:"log_retention_count"`
}

// BenchmarkSettings contains the measurement grid parameters.
type BenchmarkSettings struct {
	Runs         int     `json:"runs"`
	Step         int     `json:"step"`
	MaxScale     int     `json:"max_scale"`
	Significance float64 `json:"significance"`
	Filter       string  `json:"filter"`
}

// NetworkSettings contains parameters for fetching source images over HTTP.
type NetworkSettings struct {
	UserAgent    string        `json:"user_agent"`
	FetchTimeout time.Duration `json:"fetch_timeout"`
}

// DefaultSettings returns a new Settings instance with sensible defaults.
// The grid defaults match the reference workload: scales 1..9 in steps of 1,
// ten runs per configuration, 0.95 pruning significance.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			SaveSnapshots:     false,
			SnapshotDir:       "",
			SkipUpdateCheck:   false,
			PlainOutput:       false,
			LogRetentionCount: 5,
		},
		Benchmark: BenchmarkSettings{
			Runs:         10,
			Step:         1,
			MaxScale:     8,
			Significance: 0.95,
			Filter:       "bilinear",
		},
		Network: NetworkSettings{
			UserAgent:    "", // Empty means use default UA
			FetchTimeout: 30 * time.Second,
		},
	}
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetSnapbenchDir(), "settings.json")
}

// LoadSettings loads settings from disk. Returns defaults if file doesn't exist.
func LoadSettings() (*Settings, error) {
	path := GetSettingsPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings() // Start with defaults to fill any missing fields
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// SaveSettings saves settings to disk atomically.
func SaveSettings(s *Settings) error {
	path := GetSettingsPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}
