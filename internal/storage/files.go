// Package storage persists survey results: raw result collections as
// JSON files and a per-brand mention history in SQLite.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/som-monitor/internal/model"
)

const resultFilePattern = "som_results_*.json"

// Files manages JSON result files under a data directory.
type Files struct {
	dataDir string
}

// NewFiles creates the data directory if needed.
func NewFiles(dataDir string) (*Files, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "storage: create data dir")
	}
	return &Files{dataDir: dataDir}, nil
}

// SaveResults writes results to a JSON file and returns its path. An
// empty filename derives one from the current time.
func (f *Files) SaveResults(results []model.QueryResult, filename string) (string, error) {
	if filename == "" {
		filename = "som_results_" + time.Now().Format("20060102_150405") + ".json"
	}
	path := filepath.Join(f.dataDir, filename)

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "storage: marshal results")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrap(err, "storage: write results")
	}
	return path, nil
}

// LoadResults reads a result file back. An empty filename loads the most
// recent file; no files at all yields an empty slice, not an error.
func (f *Files) LoadResults(filename string) ([]model.QueryResult, error) {
	if filename == "" {
		latest, err := f.latestResultFile()
		if err != nil {
			return nil, err
		}
		if latest == "" {
			return []model.QueryResult{}, nil
		}
		filename = latest
	}

	data, err := os.ReadFile(filepath.Join(f.dataDir, filename))
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read %s", filename)
	}

	var results []model.QueryResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, eris.Wrapf(err, "storage: unmarshal %s", filename)
	}
	return results, nil
}

// ListResultFiles returns the result file names sorted ascending, so the
// last entry is the newest timestamped file.
func (f *Files) ListResultFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(f.dataDir, resultFilePattern))
	if err != nil {
		return nil, eris.Wrap(err, "storage: list result files")
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}

func (f *Files) latestResultFile() (string, error) {
	names, err := f.ListResultFiles()
	if err != nil || len(names) == 0 {
		return "", err
	}
	return names[len(names)-1], nil
}
