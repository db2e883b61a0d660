package som

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/som-monitor/internal/model"
)

func mention(pos int) model.BrandMention {
	return model.BrandMention{Mentioned: true, FirstPosition: &pos, Count: 1}
}

func TestAggregateEmpty(t *testing.T) {
	metrics := Aggregate(nil, []string{"OpenAI"})
	assert.Equal(t, map[string]model.SOMMetrics{}, metrics)
}

func TestAggregate(t *testing.T) {
	results := []model.QueryResult{
		{
			Mentions: map[string]model.BrandMention{
				"OpenAI":    mention(0),
				"Anthropic": mention(10),
			},
			MentionOrder:   []string{"OpenAI", "Anthropic"},
			TotalMentioned: 2,
		},
		{
			Mentions: map[string]model.BrandMention{
				"OpenAI":    {},
				"Anthropic": mention(0),
			},
			MentionOrder:   []string{"Anthropic"},
			TotalMentioned: 1,
		},
	}

	metrics := Aggregate(results, []string{"OpenAI", "Anthropic"})

	openai := metrics["OpenAI"]
	assert.Equal(t, 0.5, openai.MentionRate)
	assert.Equal(t, 0.5, openai.FirstMentionRate)
	assert.Equal(t, 1, openai.TotalMentions)
	assert.Equal(t, 2, openai.TotalQueries)
	require.NotNil(t, openai.AvgPosition)
	assert.Equal(t, 1.0, *openai.AvgPosition)

	anthropic := metrics["Anthropic"]
	assert.Equal(t, 1.0, anthropic.MentionRate)
	assert.Equal(t, 0.5, anthropic.FirstMentionRate)
	require.NotNil(t, anthropic.AvgPosition)
	assert.Equal(t, 1.5, *anthropic.AvgPosition)
}

func TestAggregateNeverMentioned(t *testing.T) {
	results := []model.QueryResult{
		{
			Mentions:     map[string]model.BrandMention{"Anthropic": mention(0)},
			MentionOrder: []string{"Anthropic"},
		},
	}

	metrics := Aggregate(results, []string{"OpenAI", "Anthropic"})

	// OpenAI is missing from the mentions map entirely: treated as
	// unmentioned, never an error.
	openai := metrics["OpenAI"]
	assert.Zero(t, openai.MentionRate)
	assert.Zero(t, openai.FirstMentionRate)
	assert.Nil(t, openai.AvgPosition)
}

func TestBuildReport(t *testing.T) {
	_, err := BuildReport(nil, []string{"OpenAI"})
	require.Error(t, err)

	results := []model.QueryResult{
		{
			Provider:     "openai",
			Model:        "gpt-4o",
			Mentions:     map[string]model.BrandMention{"OpenAI": mention(0)},
			MentionOrder: []string{"OpenAI"},
		},
	}

	report, err := BuildReport(results, []string{"OpenAI"})
	require.NoError(t, err)
	assert.Equal(t, "openai", report.Provider)
	assert.Equal(t, "gpt-4o", report.Model)
	assert.Equal(t, 1, report.TotalQueries)
	assert.Equal(t, 1.0, report.Metrics["OpenAI"].MentionRate)
}
