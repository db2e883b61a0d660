// Package analyzer extracts brand mentions from raw LLM response text.
//
// Matching is deliberately plain lower-cased substring containment with
// no word-boundary enforcement: downstream statistics are calibrated
// against this exact behavior, so "O2" inside a longer token counts,
// and a brand whose name is a substring of another tracked brand
// matches independently.
package analyzer

import (
	"sort"
	"strings"

	"github.com/sells-group/som-monitor/internal/model"
)

// Extractor scans response text for a fixed list of tracked brands.
type Extractor struct {
	brands []string
}

// NewExtractor creates an Extractor for the given brand list. Brand
// order is significant: it breaks mention-order ties and fixes map
// iteration order for aggregation.
func NewExtractor(brands []string) *Extractor {
	return &Extractor{brands: brands}
}

// Brands returns the tracked brand list.
func (e *Extractor) Brands() []string {
	return e.brands
}

// ExtractMentions finds each tracked brand in text. The text is folded
// once; counts are non-overlapping occurrence counts. An empty brand
// name never matches.
func (e *Extractor) ExtractMentions(text string) map[string]model.BrandMention {
	textLower := strings.ToLower(text)
	mentions := make(map[string]model.BrandMention, len(e.brands))

	for _, brand := range e.brands {
		brandLower := strings.ToLower(brand)
		if brandLower == "" {
			mentions[brand] = model.BrandMention{}
			continue
		}

		pos := strings.Index(textLower, brandLower)
		if pos < 0 {
			mentions[brand] = model.BrandMention{}
			continue
		}

		first := pos
		mentions[brand] = model.BrandMention{
			Mentioned:     true,
			FirstPosition: &first,
			Count:         strings.Count(textLower, brandLower),
		}
	}

	return mentions
}

// MentionOrder returns the mentioned brands sorted ascending by first
// position. Ties (only possible for brands matching at the same offset)
// keep the configured brand order.
func (e *Extractor) MentionOrder(mentions map[string]model.BrandMention) []string {
	var order []string
	for _, brand := range e.brands {
		if m, ok := mentions[brand]; ok && m.Mentioned {
			order = append(order, brand)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return *mentions[order[i]].FirstPosition < *mentions[order[j]].FirstPosition
	})

	return order
}

// Analyze extracts mentions, their order, and the mentioned-brand count
// for a single response.
func (e *Extractor) Analyze(text string) (map[string]model.BrandMention, []string, int) {
	mentions := e.ExtractMentions(text)
	order := e.MentionOrder(mentions)
	return mentions, order, len(order)
}

// PositionScore scores a brand by mention rank: first = 1.0, second =
// 0.5, third = 0.33, and 0 when absent.
func PositionScore(order []string, brand string) float64 {
	for i, b := range order {
		if b == brand {
			return 1.0 / float64(i+1)
		}
	}
	return 0.0
}
