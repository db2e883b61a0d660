// Package themes associates brands with qualitative attributes found in
// the text surrounding their mentions, and derives competitive
// narrative ownership from the attribute frequencies.
package themes

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/som-monitor/internal/model"
)

// contextWindow is the number of characters captured before and after
// each brand occurrence.
const contextWindow = 150

// quoteLimit caps stored example windows per (brand, attribute).
const quoteLimit = 5

// quoteLength truncates stored example windows.
const quoteLength = 200

// Attributes is the fixed vocabulary scanned for inside mention
// contexts. The compiled word-boundary patterns match each keyword as a
// word prefix, so "fast" also hits "fastest".
var Attributes = []string{
	"reliability", "network_quality", "coverage", "5g",
	"price", "value", "affordable", "cheap",
	"customer_service", "support", "service",
	"innovation", "technology", "modern",
	"speed", "fast", "performance",
	"international", "roaming", "global",
	"business", "enterprise", "corporate",
	"flexibility", "contract", "prepaid",
	"data", "unlimited", "volume",
	"premium", "quality", "best",
}

// AttributeGroups maps narrative group names to their member
// attributes. Group membership overlaps deliberately ("5g" feeds both
// Network Excellence and Innovation).
var AttributeGroups = map[string][]string{
	"Network Excellence":  {"reliability", "network_quality", "coverage", "5g", "speed", "fast", "performance"},
	"Value Proposition":   {"price", "value", "affordable", "cheap"},
	"Customer Experience": {"customer_service", "support", "service"},
	"Innovation":          {"innovation", "technology", "modern", "5g"},
	"Global Reach":        {"international", "roaming", "global"},
	"Data & Performance":  {"data", "unlimited", "volume", "speed", "fast"},
	"Premium Positioning": {"premium", "quality", "best", "reliability"},
}

// ThemeInsight is one brand-attribute association with its observed
// frequency across results mentioning the brand.
type ThemeInsight struct {
	Theme         string   `json:"theme"`
	Brand         string   `json:"brand"`
	Frequency     float64  `json:"frequency"`
	ExampleQuotes []string `json:"example_quotes"`
	Sentiment     string   `json:"sentiment"`
}

// NarrativeAnalysis scores every brand's ownership of one attribute
// group and identifies the leader.
type NarrativeAnalysis struct {
	Attribute      string              `json:"attribute"`
	BrandOwnership map[string]float64  `json:"brand_ownership"`
	Leader         string              `json:"leader"`
	LeaderScore    float64             `json:"leader_score"`
	GapAnalysis    map[string]float64  `json:"gap_analysis"`
	ExampleQuotes  map[string][]string `json:"example_quotes"`
}

// CompetitiveQuote is a substantive sentence about a brand.
type CompetitiveQuote struct {
	Quote           string `json:"quote"`
	Category        string `json:"category"`
	BrandsMentioned string `json:"brands_mentioned"`
	Query           string `json:"query"`
}

// Analyzer extracts themes and narratives for a fixed brand list.
type Analyzer struct {
	brands   []string
	patterns map[string]*regexp.Regexp
}

// NewAnalyzer compiles the attribute patterns once for the brand list.
func NewAnalyzer(brands []string) *Analyzer {
	patterns := make(map[string]*regexp.Regexp, len(Attributes))
	for _, attr := range Attributes {
		patterns[attr] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(attr) + `\w*\b`)
	}
	return &Analyzer{brands: brands, patterns: patterns}
}

type themeCount struct {
	count  int
	quotes []string
}

// ExtractThemes scans the context windows around every brand mention
// for attribute keywords. Frequency is occurrences over the number of
// results mentioning the brand; zero-frequency attributes are omitted.
func (a *Analyzer) ExtractThemes(results []model.QueryResult) map[string]map[string]ThemeInsight {
	counts := make(map[string]map[string]*themeCount, len(a.brands))
	totalMentions := make(map[string]int, len(a.brands))
	for _, brand := range a.brands {
		counts[brand] = map[string]*themeCount{}
	}

	for _, result := range results {
		for _, brand := range a.brands {
			m, ok := result.Mentions[brand]
			if !ok || !m.Mentioned {
				continue
			}
			totalMentions[brand]++

			for _, context := range brandContexts(result.Response, brand) {
				for _, attr := range Attributes {
					if !a.patterns[attr].MatchString(context) {
						continue
					}
					tc := counts[brand][attr]
					if tc == nil {
						tc = &themeCount{}
						counts[brand][attr] = tc
					}
					tc.count++
					if len(tc.quotes) < quoteLimit {
						tc.quotes = append(tc.quotes, truncate(context, quoteLength))
					}
				}
			}
		}
	}

	insights := make(map[string]map[string]ThemeInsight, len(a.brands))
	for _, brand := range a.brands {
		insights[brand] = map[string]ThemeInsight{}
		if totalMentions[brand] == 0 {
			continue
		}
		for attr, tc := range counts[brand] {
			frequency := float64(tc.count) / float64(totalMentions[brand])
			if frequency <= 0 {
				continue
			}
			quotes := tc.quotes
			if len(quotes) > 3 {
				quotes = quotes[:3]
			}
			insights[brand][attr] = ThemeInsight{
				Theme:         attr,
				Brand:         brand,
				Frequency:     frequency,
				ExampleQuotes: quotes,
				Sentiment:     estimateSentiment(tc.quotes),
			}
		}
	}

	return insights
}

// brandContexts returns the window around every occurrence of brand in
// text. The scan advances one character past each find so overlapping
// occurrences each produce a window.
func brandContexts(text, brand string) []string {
	var contexts []string
	textLower := strings.ToLower(text)
	brandLower := strings.ToLower(brand)
	if brandLower == "" {
		return nil
	}

	start := 0
	for {
		pos := strings.Index(textLower[start:], brandLower)
		if pos < 0 {
			break
		}
		pos += start

		from := max(0, pos-contextWindow)
		to := min(len(text), pos+len(brand)+contextWindow)
		contexts = append(contexts, text[from:to])

		start = pos + 1
	}

	return contexts
}

var positiveWords = []string{
	"best", "excellent", "great", "good", "recommended",
	"strong", "leading", "top", "superior", "outstanding",
}

var negativeWords = []string{
	"poor", "bad", "worst", "avoid", "limited",
	"weak", "lacking", "disappointing", "issues",
}

// estimateSentiment is a word-list heuristic, not a sentiment model:
// positive wins at double the negative hit count and vice versa.
func estimateSentiment(quotes []string) string {
	if len(quotes) == 0 {
		return "neutral"
	}

	text := strings.ToLower(strings.Join(quotes, " "))
	var positive, negative int
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			negative++
		}
	}

	switch {
	case positive > negative*2:
		return "positive"
	case negative > positive*2:
		return "negative"
	default:
		return "neutral"
	}
}

// AnalyzeNarratives aggregates theme insights into per-group ownership
// scores. A brand's group score is the mean of its member-attribute
// frequencies (absent attributes count as zero); the leader is the
// arg-max with ties broken by brand-list order. Output is ordered by
// leader score descending.
func (a *Analyzer) AnalyzeNarratives(insights map[string]map[string]ThemeInsight) []NarrativeAnalysis {
	groupNames := make([]string, 0, len(AttributeGroups))
	for name := range AttributeGroups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	var analyses []NarrativeAnalysis
	for _, group := range groupNames {
		attrs := AttributeGroups[group]

		scores := make(map[string]float64, len(a.brands))
		quotes := map[string][]string{}

		for _, brand := range a.brands {
			brandInsights, ok := insights[brand]
			if !ok {
				scores[brand] = 0
				continue
			}

			total := 0.0
			for _, attr := range attrs {
				if insight, ok := brandInsights[attr]; ok {
					total += insight.Frequency
					n := min(2, len(insight.ExampleQuotes))
					quotes[brand] = append(quotes[brand], insight.ExampleQuotes[:n]...)
				}
			}
			if len(attrs) > 0 {
				scores[brand] = total / float64(len(attrs))
			}
		}

		leader := ""
		leaderScore := 0.0
		for i, brand := range a.brands {
			if i == 0 || scores[brand] > leaderScore {
				leader = brand
				leaderScore = scores[brand]
			}
		}

		gaps := make(map[string]float64, len(scores))
		for brand, score := range scores {
			gaps[brand] = leaderScore - score
		}

		analyses = append(analyses, NarrativeAnalysis{
			Attribute:      group,
			BrandOwnership: scores,
			Leader:         leader,
			LeaderScore:    leaderScore,
			GapAnalysis:    gaps,
			ExampleQuotes:  quotes,
		})
	}

	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].LeaderScore > analyses[j].LeaderScore
	})

	return analyses
}

// Gap thresholds for strategic insight classification.
const (
	dominatedGap     = 0.15
	opportunityGap   = 0.05
	contestedCeiling = 0.50
)

// maxInsights caps the insight list.
const maxInsights = 5

// InsightsText renders strategic takeaways for yourBrand, classifying
// each narrative into exactly one of: owned, dominated by a rival, or
// contested opportunity. Narratives the brand does not participate in
// are skipped; at most five insights are returned in narrative order.
func (a *Analyzer) InsightsText(narratives []NarrativeAnalysis, yourBrand string) []string {
	var insights []string

	for _, n := range narratives {
		yourScore, ok := n.BrandOwnership[yourBrand]
		if !ok {
			continue
		}
		gap := n.GapAnalysis[yourBrand]

		switch {
		case n.Leader == yourBrand:
			insights = append(insights, fmt.Sprintf(
				"%s: you own this narrative (%.0f%% association rate)",
				n.Attribute, yourScore*100))
		case gap > dominatedGap:
			insights = append(insights, fmt.Sprintf(
				"%s: %s dominates (%.0f%% vs your %.0f%%), gap %.0f%%",
				n.Attribute, n.Leader, n.LeaderScore*100, yourScore*100, gap*100))
		case gap > opportunityGap && n.LeaderScore < contestedCeiling:
			insights = append(insights, fmt.Sprintf(
				"%s: opportunity to own this narrative, current leader %s at %.0f%%, you at %.0f%%",
				n.Attribute, n.Leader, n.LeaderScore*100, yourScore*100))
		}

		if len(insights) >= maxInsights {
			break
		}
	}

	return insights
}

// NarrativeMatrix re-keys narratives into attribute -> brand -> score
// for tabular consumption.
func NarrativeMatrix(narratives []NarrativeAnalysis) map[string]map[string]float64 {
	matrix := make(map[string]map[string]float64, len(narratives))
	for _, n := range narratives {
		matrix[n.Attribute] = n.BrandOwnership
	}
	return matrix
}

// CompetitiveQuotes extracts up to limit substantive sentences (more
// than ten words) mentioning brand.
func CompetitiveQuotes(results []model.QueryResult, brand string, limit int) []CompetitiveQuote {
	var quotes []CompetitiveQuote
	brandLower := strings.ToLower(brand)

	for _, result := range results {
		if m, ok := result.Mentions[brand]; !ok || !m.Mentioned {
			continue
		}

		for _, sentence := range splitSentences(result.Response) {
			if !strings.Contains(strings.ToLower(sentence), brandLower) {
				continue
			}
			if len(strings.Fields(sentence)) <= 10 {
				continue
			}

			quotes = append(quotes, CompetitiveQuote{
				Quote:           strings.TrimSpace(sentence),
				Category:        result.Category,
				BrandsMentioned: strings.Join(result.MentionOrder, ", "),
				Query:           truncate(result.Query, 80) + "...",
			})
			if len(quotes) >= limit {
				return quotes
			}
		}
	}

	return quotes
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

func splitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) > 20 {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
