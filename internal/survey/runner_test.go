package survey

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/som-monitor/internal/config"
)

type fakeCall struct {
	Prompt string
	Model  string
}

// fakeClient returns canned responses and records every call.
type fakeClient struct {
	mu      sync.Mutex
	calls   []fakeCall
	respond func(prompt, model string) (string, error)
}

func (f *fakeClient) Provider() string { return "fake" }

func (f *fakeClient) Query(_ context.Context, prompt, model string, _ float64, _ int) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Prompt: prompt, Model: model})
	f.mu.Unlock()
	return f.respond(prompt, model)
}

func testConfig() *config.Config {
	return &config.Config{
		Brands:     []string{"Telekom", "Vodafone"},
		Categories: map[string]bool{"general": true, "price": false},
		Templates: map[string][]string{
			"general": {"Which provider is best?", "Which network should I pick?"},
			"price":   {"Which provider is cheapest?"},
		},
		Survey: config.SurveyConfig{
			RunsPerQuery: 2,
			Temperature:  0.7,
			MaxTokens:    100,
		},
	}
}

func TestRunCollectsResults(t *testing.T) {
	client := &fakeClient{respond: func(string, string) (string, error) {
		return "Telekom is better than Vodafone.", nil
	}}

	runner := NewRunner(testConfig())
	results, err := runner.Run(context.Background(), client, Options{Models: []string{"m1"}})
	require.NoError(t, err)

	// 1 enabled category x 2 templates x 2 runs x 1 model.
	require.Len(t, results, 4)
	assert.Len(t, client.calls, 4)

	for _, r := range results {
		assert.Equal(t, "general", r.Category)
		assert.Equal(t, "fake", r.Provider)
		assert.Equal(t, "m1", r.Model)
		assert.Equal(t, results[0].Timestamp, r.Timestamp, "one timestamp per survey")
		assert.True(t, r.Mentions["Telekom"].Mentioned)
		assert.Equal(t, []string{"Telekom", "Vodafone"}, r.MentionOrder)
		assert.Equal(t, 2, r.TotalMentioned)
	}

	// Run indices cycle per template.
	assert.Equal(t, 0, results[0].Run)
	assert.Equal(t, 1, results[1].Run)
}

func TestRunSkipsFailedQueries(t *testing.T) {
	client := &fakeClient{respond: func(prompt, _ string) (string, error) {
		if prompt == "Which network should I pick?" {
			return "", eris.New("openai: unexpected status 400: bad request")
		}
		return "Vodafone.", nil
	}}

	runner := NewRunner(testConfig())
	results, err := runner.Run(context.Background(), client, Options{Models: []string{"m1"}})
	require.NoError(t, err, "a failed call never fails the survey")

	// The failing template drops its 2 runs.
	assert.Len(t, results, 2)
}

func TestRunRetriesTransientFailures(t *testing.T) {
	var attempts int
	client := &fakeClient{respond: func(prompt, _ string) (string, error) {
		if prompt == "Which provider is best?" {
			attempts++
			if attempts == 1 {
				return "", eris.New("openai: unexpected status 429: rate limited")
			}
		}
		return "Telekom.", nil
	}}

	cfg := testConfig()
	runner := NewRunner(cfg)
	runner.retry.InitialBackoff = 1 // effectively no sleep in tests
	runner.retry.JitterFraction = 0

	results, err := runner.Run(context.Background(), client, Options{Models: []string{"m1"}})
	require.NoError(t, err)
	assert.Len(t, results, 4, "the retried call recovers")
	assert.Equal(t, 2, attempts)
}

func TestRunMultipleModels(t *testing.T) {
	client := &fakeClient{respond: func(string, string) (string, error) {
		return "Telekom.", nil
	}}

	cfg := testConfig()
	cfg.Survey.RunsPerQuery = 1
	runner := NewRunner(cfg)

	results, err := runner.Run(context.Background(), client, Options{Models: []string{"m1", "m2"}})
	require.NoError(t, err)
	require.Len(t, results, 4)

	// Model alternates inside each run.
	assert.Equal(t, "m1", results[0].Model)
	assert.Equal(t, "m2", results[1].Model)
}

func TestRunCategoryFilter(t *testing.T) {
	client := &fakeClient{respond: func(string, string) (string, error) {
		return "Telekom.", nil
	}}

	runner := NewRunner(testConfig())

	// "price" is disabled, so requesting it yields nothing runnable.
	_, err := runner.Run(context.Background(), client, Options{
		Models:     []string{"m1"},
		Categories: []string{"price"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no enabled categories")
}

func TestRunNoEnabledCategories(t *testing.T) {
	cfg := testConfig()
	cfg.Categories = map[string]bool{}

	runner := NewRunner(cfg)
	_, err := runner.Run(context.Background(), &fakeClient{}, Options{Models: []string{"m1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no enabled categories")
}

func TestRunNoModels(t *testing.T) {
	runner := NewRunner(testConfig())
	_, err := runner.Run(context.Background(), &fakeClient{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no models configured")
}

func TestRunContextCancelled(t *testing.T) {
	client := &fakeClient{respond: func(string, string) (string, error) {
		return "Telekom.", nil
	}}

	runner := NewRunner(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, client, Options{Models: []string{"m1"}})
	require.Error(t, err)
}
