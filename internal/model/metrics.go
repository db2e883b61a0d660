package model

import "fmt"

// SOMMetrics aggregates Share of Model measurements for one brand over
// a fixed collection of query results. AvgPosition is the mean 1-based
// mention rank and is nil when the brand was never mentioned.
type SOMMetrics struct {
	Brand            string   `json:"brand"`
	MentionRate      float64  `json:"mention_rate"`
	FirstMentionRate float64  `json:"first_mention_rate"`
	AvgPosition      *float64 `json:"avg_position"`
	TotalMentions    int      `json:"total_mentions"`
	TotalQueries     int      `json:"total_queries"`
}

func (m SOMMetrics) String() string {
	return fmt.Sprintf("%s: %.1f%% mention rate, %.1f%% first mention rate",
		m.Brand, m.MentionRate*100, m.FirstMentionRate*100)
}

// SOMReport is a complete survey snapshot: per-brand metrics plus the
// provider/model the responses came from.
type SOMReport struct {
	Timestamp    string                `json:"timestamp"`
	Provider     string                `json:"provider"`
	Model        string                `json:"model"`
	TotalQueries int                   `json:"total_queries"`
	Metrics      map[string]SOMMetrics `json:"metrics"`
}
