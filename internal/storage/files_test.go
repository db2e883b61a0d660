package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/som-monitor/internal/model"
)

func sampleResults() []model.QueryResult {
	pos := 0
	return []model.QueryResult{
		{
			Timestamp: "2026-08-23T10:00:00Z",
			Category:  "general",
			Query:     "Welcher Mobilfunkanbieter ist am besten?",
			Run:       0,
			Model:     "gpt-4o",
			Provider:  "openai",
			Response:  "Telekom ist führend.",
			Mentions: map[string]model.BrandMention{
				"Telekom":  {Mentioned: true, FirstPosition: &pos, Count: 1},
				"Vodafone": {},
			},
			MentionOrder:   []string{"Telekom"},
			TotalMentioned: 1,
		},
	}
}

func TestSaveAndLoadResultsRoundTrip(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)

	results := sampleResults()
	path, err := files.SaveResults(results, "som_results_test.json")
	require.NoError(t, err)
	assert.Equal(t, "som_results_test.json", filepath.Base(path))

	loaded, err := files.LoadResults("som_results_test.json")
	require.NoError(t, err)
	assert.Equal(t, results, loaded, "reloading yields field-for-field identical records")

	// Unmentioned brands keep their nil first position.
	assert.Nil(t, loaded[0].Mentions["Vodafone"].FirstPosition)
}

func TestSaveResultsGeneratesFilename(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)

	path, err := files.SaveResults(sampleResults(), "")
	require.NoError(t, err)
	assert.Regexp(t, `^som_results_\d{8}_\d{6}\.json$`, filepath.Base(path))
}

func TestLoadResultsPicksLatest(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)

	older := sampleResults()
	newer := sampleResults()
	newer[0].Response = "Vodafone hat aufgeholt."

	_, err = files.SaveResults(older, "som_results_20260801_120000.json")
	require.NoError(t, err)
	_, err = files.SaveResults(newer, "som_results_20260823_120000.json")
	require.NoError(t, err)

	loaded, err := files.LoadResults("")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Vodafone hat aufgeholt.", loaded[0].Response)
}

func TestLoadResultsEmptyDir(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)

	loaded, err := files.LoadResults("")
	require.NoError(t, err, "no files is a defined empty state, not an error")
	assert.Empty(t, loaded)
}

func TestLoadResultsMissingFile(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)

	_, err = files.LoadResults("som_results_nope.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "som_results_nope.json")
}

func TestListResultFiles(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)

	_, err = files.SaveResults(sampleResults(), "som_results_b.json")
	require.NoError(t, err)
	_, err = files.SaveResults(sampleResults(), "som_results_a.json")
	require.NoError(t, err)
	// Non-result files are ignored.
	_, err = files.SaveResults(sampleResults(), "notes.json")
	require.NoError(t, err)

	names, err := files.ListResultFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"som_results_a.json", "som_results_b.json"}, names)
}
