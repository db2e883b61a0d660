package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/som-monitor/internal/config"
	"github.com/sells-group/som-monitor/internal/model"
	"github.com/sells-group/som-monitor/internal/storage"
)

func newTestAPI(t *testing.T) *apiServer {
	t.Helper()

	dir := t.TempDir()
	files, err := storage.NewFiles(dir)
	require.NoError(t, err)

	history, err := storage.NewHistory(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })
	require.NoError(t, history.Migrate(context.Background()))

	return &apiServer{
		cfg: &config.Config{
			Brands: []string{"Telekom", "Vodafone"},
			Stats:  config.StatsConfig{ConfidenceLevel: 0.95},
		},
		files:   files,
		history: history,
	}
}

func surveyResult(timestamp string, mentioned bool) model.QueryResult {
	mention := model.BrandMention{}
	var order []string
	if mentioned {
		pos := 0
		mention = model.BrandMention{Mentioned: true, FirstPosition: &pos, Count: 1}
		order = []string{"Telekom"}
	}
	return model.QueryResult{
		Timestamp:      timestamp,
		Category:       "general",
		Query:          "Welcher Mobilfunkanbieter ist am besten?",
		Model:          "gpt-4o",
		Provider:       "openai",
		Response:       "Telekom ist die beste Wahl.",
		Mentions:       map[string]model.BrandMention{"Telekom": mention, "Vodafone": {}},
		MentionOrder:   order,
		TotalMentioned: len(order),
	}
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSOMEndpoint(t *testing.T) {
	api := newTestAPI(t)

	_, err := api.files.SaveResults([]model.QueryResult{
		surveyResult("2026-08-23T12:00:00Z", true),
		surveyResult("2026-08-23T12:00:00Z", false),
	}, "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	api.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/som", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var report model.SOMReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.TotalQueries)
	assert.InDelta(t, 0.5, report.Metrics["Telekom"].MentionRate, 1e-9)
	assert.Zero(t, report.Metrics["Vodafone"].MentionRate)
}

func TestSOMEndpointNoResults(t *testing.T) {
	api := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/som", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrendsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	require.NoError(t, api.history.RecordResults(ctx, []model.QueryResult{
		surveyResult("2026-06-01T12:00:00Z", false),
		surveyResult("2026-07-01T12:00:00Z", true),
		surveyResult("2026-08-01T12:00:00Z", true),
	}))

	rec := httptest.NewRecorder()
	api.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trends/Telekom", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var out trendOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Telekom", out.Brand)
	assert.Equal(t, []float64{0, 1, 1}, out.Series)
}

func TestTrendsEndpointUnknownBrand(t *testing.T) {
	api := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trends/Nobody", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNarrativesEndpoint(t *testing.T) {
	api := newTestAPI(t)

	result := surveyResult("2026-08-23T12:00:00Z", true)
	result.Response = "Telekom hat das beste Netz und die beste Netzabdeckung."
	_, err := api.files.SaveResults([]model.QueryResult{result}, "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	api.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/narratives", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Narratives []json.RawMessage             `json:"narratives"`
		Matrix     map[string]map[string]float64 `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Narratives)
}

func TestQualityEndpoint(t *testing.T) {
	api := newTestAPI(t)

	_, err := api.files.SaveResults([]model.QueryResult{
		surveyResult("2026-08-23T12:00:00Z", true),
	}, "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	api.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quality", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"LOW"`)
}
