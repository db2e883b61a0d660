package model

// BrandMention records whether, where, and how often a single brand
// appears in one response. FirstPosition is the character offset of the
// first occurrence in the case-folded text and is nil iff the brand was
// not mentioned.
type BrandMention struct {
	Mentioned     bool `json:"mentioned"`
	FirstPosition *int `json:"first_position"`
	Count         int  `json:"count"`
}

// QueryResult is one response to one prompt from one model run. The
// mentions map carries an entry for every tracked brand, mentioned or
// not, and MentionOrder lists the mentioned brands sorted by first
// position. Results are immutable after construction and persist as a
// unit.
type QueryResult struct {
	Timestamp      string                  `json:"timestamp"`
	Category       string                  `json:"category"`
	Query          string                  `json:"query"`
	Run            int                     `json:"run"`
	Model          string                  `json:"model"`
	Provider       string                  `json:"provider"`
	Response       string                  `json:"response"`
	Mentions       map[string]BrandMention `json:"mentions"`
	MentionOrder   []string                `json:"mention_order"`
	TotalMentioned int                     `json:"total_mentioned"`
}

// MentionRank returns the 1-based rank of brand within the result's
// mention order, or 0 if the brand was not mentioned.
func (r QueryResult) MentionRank(brand string) int {
	for i, b := range r.MentionOrder {
		if b == brand {
			return i + 1
		}
	}
	return 0
}

// FirstMentioned reports whether brand was the first brand mentioned.
func (r QueryResult) FirstMentioned(brand string) bool {
	return len(r.MentionOrder) > 0 && r.MentionOrder[0] == brand
}
