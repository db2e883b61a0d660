// Package som turns collections of query results into per-brand Share
// of Model metrics.
package som

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/som-monitor/internal/model"
)

// Aggregate computes SOM metrics for each tracked brand over results.
// An empty result set yields an empty map; that is the defined output
// for zero input, not an error. Results whose mentions map lacks a
// tracked brand (stale or partial data) treat that brand as
// unmentioned.
func Aggregate(results []model.QueryResult, brands []string) map[string]model.SOMMetrics {
	if len(results) == 0 {
		return map[string]model.SOMMetrics{}
	}

	total := len(results)
	metrics := make(map[string]model.SOMMetrics, len(brands))

	for _, brand := range brands {
		mentions := 0
		firstMentions := 0
		var positions []int

		for _, r := range results {
			if m, ok := r.Mentions[brand]; ok && m.Mentioned {
				mentions++
			}
			if rank := r.MentionRank(brand); rank > 0 {
				positions = append(positions, rank)
			}
			if r.FirstMentioned(brand) {
				firstMentions++
			}
		}

		var avgPosition *float64
		if len(positions) > 0 {
			sum := 0
			for _, p := range positions {
				sum += p
			}
			avg := float64(sum) / float64(len(positions))
			avgPosition = &avg
		}

		metrics[brand] = model.SOMMetrics{
			Brand:            brand,
			MentionRate:      float64(mentions) / float64(total),
			FirstMentionRate: float64(firstMentions) / float64(total),
			AvgPosition:      avgPosition,
			TotalMentions:    mentions,
			TotalQueries:     total,
		}
	}

	return metrics
}

// BuildReport assembles a full SOM snapshot from results. Provider and
// model are taken from the first result; the survey runner issues one
// provider per run.
func BuildReport(results []model.QueryResult, brands []string) (*model.SOMReport, error) {
	if len(results) == 0 {
		return nil, eris.New("som: no results to generate report from")
	}

	return &model.SOMReport{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Provider:     results[0].Provider,
		Model:        results[0].Model,
		TotalQueries: len(results),
		Metrics:      Aggregate(results, brands),
	}, nil
}
