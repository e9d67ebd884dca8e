// Package history persists completed benchmark runs to a local SQLite
// database so results can be compared across invocations.
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Run is one stored benchmark run with its parameters and environment.
type Run struct {
	ID        string
	CreatedAt time.Time
	Source    string

	Runs         int
	Step         int
	MaxScale     int
	Significance float64
	Filter       string
	Elapsed      time.Duration

	GoVersion string
	OS        string
	Arch      string

	Results []Result
}

// Result is one grid configuration's stored outcome.
type Result struct {
	ScaleX, ScaleY int
	Width, Height  int
	Samples        int
	Failed         int
	Pruned         int
	MeanMs         float64
	OK             bool
}

// SaveRun stores a run and its per-configuration results. A missing ID is
// generated; CreatedAt defaults to now.
func SaveRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	return withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (
				id, created_at, source, runs, step, max_scale, significance, filter, elapsed_ms, go_version, os, arch
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				created_at=excluded.created_at,
				source=excluded.source,
				runs=excluded.runs,
				step=excluded.step,
				max_scale=excluded.max_scale,
				significance=excluded.significance,
				filter=excluded.filter,
				elapsed_ms=excluded.elapsed_ms,
				go_version=excluded.go_version,
				os=excluded.os,
				arch=excluded.arch
		`, run.ID, run.CreatedAt.Unix(), run.Source, run.Runs, run.Step, run.MaxScale,
			run.Significance, run.Filter, run.Elapsed.Milliseconds(), run.GoVersion, run.OS, run.Arch)
		if err != nil {
			return fmt.Errorf("failed to upsert run: %w", err)
		}

		if _, err := tx.Exec("DELETE FROM results WHERE run_id = ?", run.ID); err != nil {
			return fmt.Errorf("failed to delete old results: %w", err)
		}

		for _, r := range run.Results {
			ok := 0
			if r.OK {
				ok = 1
			}
			_, err := tx.Exec(`
				INSERT INTO results (run_id, scale_x, scale_y, width, height, samples, failed, pruned, mean_ms, ok)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, run.ID, r.ScaleX, r.ScaleY, r.Width, r.Height, r.Samples, r.Failed, r.Pruned, r.MeanMs, ok)
			if err != nil {
				return fmt.Errorf("failed to insert result: %w", err)
			}
		}
		return nil
	})
}

// ListRuns returns the most recent runs, newest first, without their results.
func ListRuns(limit int) ([]Run, error) {
	d, err := GetDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.Query(`
		SELECT id, created_at, source, runs, step, max_scale, significance, filter, elapsed_ms, go_version, os, arch
		FROM runs ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun loads a run and its results by full ID.
func GetRun(id string) (*Run, error) {
	d, err := GetDB()
	if err != nil {
		return nil, err
	}

	row := d.QueryRow(`
		SELECT id, created_at, source, runs, step, max_scale, significance, filter, elapsed_ms, go_version, os, arch
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s not found", id)
		}
		return nil, err
	}

	rows, err := d.Query(`
		SELECT scale_x, scale_y, width, height, samples, failed, pruned, mean_ms, ok
		FROM results WHERE run_id = ? ORDER BY scale_x, scale_y
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var res Result
		var ok int
		if err := rows.Scan(&res.ScaleX, &res.ScaleY, &res.Width, &res.Height,
			&res.Samples, &res.Failed, &res.Pruned, &res.MeanMs, &ok); err != nil {
			return nil, err
		}
		res.OK = ok != 0
		run.Results = append(run.Results, res)
	}
	return &run, rows.Err()
}

// DeleteRun removes a run and, through the cascade, its results.
func DeleteRun(id string) error {
	return withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM runs WHERE id = ?", id)
		if err != nil {
			return err
		}
		// Older SQLite builds may not enforce the cascade.
		if _, err := tx.Exec("DELETE FROM results WHERE run_id = ?", id); err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err == nil && n == 0 {
			return fmt.Errorf("run %s not found", id)
		}
		return nil
	})
}

// ResolveRunID expands a partial run ID (prefix) to the stored full ID.
// Full-length IDs pass through untouched.
func ResolveRunID(partial string) (string, error) {
	if len(partial) >= 32 {
		return partial, nil // Already a full UUID
	}

	d, err := GetDB()
	if err != nil {
		return "", err
	}

	rows, err := d.Query("SELECT id FROM runs WHERE id LIKE ? || '%'", partial)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no run matches %q", partial)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous run id %q (%d matches: %s...)",
			partial, len(matches), strings.Join(shortIDs(matches), ", "))
	}
}

func shortIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if len(id) > 8 {
			id = id[:8]
		}
		out[i] = id
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var createdAt int64
	var elapsedMs int64
	err := row.Scan(&r.ID, &createdAt, &r.Source, &r.Runs, &r.Step, &r.MaxScale,
		&r.Significance, &r.Filter, &elapsedMs, &r.GoVersion, &r.OS, &r.Arch)
	if err != nil {
		return r, err
	}
	r.CreatedAt = time.Unix(createdAt, 0)
	r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	return r, nil
}
