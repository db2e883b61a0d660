// Package synth generates realistic historical survey data: per-brand
// base rates with growth trajectories, seasonal category patterns,
// campaign events, and sampled noise. Used to seed the history store
// so the trend and confidence layers have something to chew on before
// real surveys accumulate.
package synth

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sells-group/som-monitor/internal/model"
)

// BrandProfile fixes a brand's synthetic trajectory.
type BrandProfile struct {
	BaseSOM    float64
	GrowthRate float64
	Volatility float64
}

// CampaignEvent boosts (or dents) one brand in one month. A "general"
// category event applies to every category.
type CampaignEvent struct {
	MonthOffset int
	Brand       string
	Impact      float64
	Category    string
}

// DefaultProfiles covers the tracked German telco brands.
var DefaultProfiles = map[string]BrandProfile{
	"Telekom":        {BaseSOM: 0.78, GrowthRate: 0.003, Volatility: 0.02},
	"Vodafone":       {BaseSOM: 0.68, GrowthRate: -0.002, Volatility: 0.025},
	"O2":             {BaseSOM: 0.58, GrowthRate: 0.001, Volatility: 0.03},
	"1&1":            {BaseSOM: 0.42, GrowthRate: 0.005, Volatility: 0.035},
	"Congstar":       {BaseSOM: 0.35, GrowthRate: 0.002, Volatility: 0.04},
	"Fraenk":         {BaseSOM: 0.28, GrowthRate: 0.008, Volatility: 0.045},
	"Otelo":          {BaseSOM: 0.32, GrowthRate: -0.001, Volatility: 0.04},
	"Freenet Mobile": {BaseSOM: 0.30, GrowthRate: 0.001, Volatility: 0.038},
	"Aldi Talk":      {BaseSOM: 0.45, GrowthRate: 0.002, Volatility: 0.032},
	"Lidl Connect":   {BaseSOM: 0.38, GrowthRate: 0.004, Volatility: 0.036},
	"WinSIM":         {BaseSOM: 0.25, GrowthRate: 0.003, Volatility: 0.042},
	"PremiumSIM":     {BaseSOM: 0.27, GrowthRate: 0.002, Volatility: 0.04},
}

// DefaultEvents is the canned campaign calendar for seeded history.
var DefaultEvents = []CampaignEvent{
	{MonthOffset: -5, Brand: "Telekom", Impact: 0.05, Category: "network_quality"},
	{MonthOffset: -4, Brand: "Vodafone", Impact: -0.03, Category: "customer_service"},
	{MonthOffset: -3, Brand: "O2", Impact: 0.04, Category: "price"},
	{MonthOffset: -2, Brand: "1&1", Impact: 0.06, Category: "general"},
	{MonthOffset: -1, Brand: "Fraenk", Impact: 0.08, Category: "student"},
}

// seasonalPatterns holds a six-slot additive cycle per category.
var seasonalPatterns = map[string][]float64{
	"general":          {0, -0.01, -0.02, 0.01, 0.02, 0},
	"price":            {0.02, 0.01, -0.01, -0.02, 0, 0.02},
	"network_quality":  {0, 0, 0, 0, 0, 0},
	"student":          {-0.02, -0.02, 0.05, 0.08, -0.03, -0.02},
	"business":         {0.02, 0.01, 0, -0.02, -0.02, 0.01},
	"data_heavy":       {0, 0.01, 0, 0, 0.01, 0},
	"prepaid":          {0.01, 0, -0.01, 0, 0, 0.01},
	"5g":               {0.02, 0.02, 0.01, 0.01, 0.01, 0},
	"customer_service": {0, 0, 0, 0, 0, 0},
	"roaming":          {-0.02, -0.02, 0.04, 0.05, 0.02, -0.01},
}

const (
	somFloor     = 0.05
	somCeiling   = 0.95
	runsPerQuery = 3
)

// Generator produces synthetic QueryResults from a seeded source so
// repeated runs are reproducible.
type Generator struct {
	brands     []string
	categories []string
	profiles   map[string]BrandProfile
	events     []CampaignEvent

	rng      *rand.Rand
	noiseSrc rand.Source
	position distuv.Exponential
	count    distuv.Poisson
}

// NewGenerator creates a Generator with the default profiles and
// campaign calendar.
func NewGenerator(brands, categories []string, seed uint64) *Generator {
	src := rand.NewSource(seed)
	return &Generator{
		brands:     brands,
		categories: categories,
		profiles:   DefaultProfiles,
		events:     DefaultEvents,
		rng:        rand.New(src),
		noiseSrc:   src,
		position:   distuv.Exponential{Rate: 1.0 / 3.0, Src: src},
		count:      distuv.Poisson{Lambda: 1.5, Src: src},
	}
}

// Month is one generated month of survey results.
type Month struct {
	Date    time.Time
	Results []model.QueryResult
}

// GenerateHistory produces months of data ending at baseDate. Offsets
// run from -(months-1) to 0 so the final month is the current one.
func (g *Generator) GenerateHistory(baseDate time.Time, months, queriesPerMonth int) []Month {
	history := make([]Month, 0, months)
	for offset := -(months - 1); offset <= 0; offset++ {
		date := baseDate.AddDate(0, 0, 30*offset)
		history = append(history, Month{
			Date:    date,
			Results: g.GenerateMonth(offset, baseDate, queriesPerMonth),
		})
	}
	return history
}

// GenerateMonth produces one month of results at the given offset
// (0 = current month, negative = past).
func (g *Generator) GenerateMonth(monthOffset int, baseDate time.Time, queriesPerMonth int) []model.QueryResult {
	timestamp := baseDate.AddDate(0, 0, 30*monthOffset).UTC().Format(time.RFC3339)

	queriesPerCategory := 3
	if len(g.categories) > 0 {
		queriesPerCategory = max(3, queriesPerMonth/len(g.categories))
	}

	var results []model.QueryResult
	for _, category := range g.categories {
		for q := 0; q < queriesPerCategory; q++ {
			for run := 0; run < runsPerQuery; run++ {
				results = append(results, g.generateResult(timestamp, category, monthOffset, run))
			}
		}
	}
	return results
}

type placedBrand struct {
	brand    string
	position int
}

func (g *Generator) generateResult(timestamp, category string, monthOffset, run int) model.QueryResult {
	mentions := make(map[string]model.BrandMention, len(g.brands))
	var placed []placedBrand

	for _, brand := range g.brands {
		som := g.brandSOM(brand, category, monthOffset)

		if g.rng.Float64() >= som {
			mentions[brand] = model.BrandMention{}
			continue
		}

		position := int(g.position.Rand()) + 1
		count := int(g.count.Rand()) + 1
		firstPos := position * 50 // approximate character offset

		mentions[brand] = model.BrandMention{
			Mentioned:     true,
			FirstPosition: &firstPos,
			Count:         count,
		}
		placed = append(placed, placedBrand{brand: brand, position: position})
	}

	sort.SliceStable(placed, func(i, j int) bool {
		return placed[i].position < placed[j].position
	})
	order := make([]string, len(placed))
	for i, p := range placed {
		order[i] = p.brand
	}

	return model.QueryResult{
		Timestamp:      timestamp,
		Category:       category,
		Query:          sampleQuery(category),
		Run:            run,
		Model:          "gpt-4o",
		Provider:       "openai",
		Response:       g.responseText(order, category),
		Mentions:       mentions,
		MentionOrder:   order,
		TotalMentioned: len(order),
	}
}

// brandSOM combines base rate, growth, seasonality, noise, and campaign
// impact, clamped to [0.05, 0.95].
func (g *Generator) brandSOM(brand, category string, monthOffset int) float64 {
	profile, ok := g.profiles[brand]
	if !ok {
		profile = BrandProfile{BaseSOM: 0.3, Volatility: 0.03}
	}

	som := profile.BaseSOM + profile.GrowthRate*float64(monthOffset)

	if pattern, ok := seasonalPatterns[category]; ok {
		som += pattern[((monthOffset%6)+6)%6]
	}

	noise := distuv.Normal{Mu: 0, Sigma: profile.Volatility, Src: g.noiseSrc}
	som += noise.Rand()

	for _, event := range g.events {
		if event.MonthOffset == monthOffset && event.Brand == brand &&
			(event.Category == category || event.Category == "general") {
			som += event.Impact
		}
	}

	return min(max(som, somFloor), somCeiling)
}

var responseTemplates = map[string][]string{
	"general": {
		"In Germany, %s is often considered one of the top choices. ",
		"Many users recommend %s for its overall service. ",
	},
	"price": {
		"For budget-conscious customers, %s offers competitive pricing. ",
		"If you're looking for value, %s has some of the best deals. ",
	},
	"network_quality": {
		"%s is known for having excellent network coverage in Germany. ",
		"The best network quality is typically associated with %s. ",
	},
	"student": {
		"For students, %s offers special discounts and plans. ",
		"Many students choose %s for affordable rates. ",
	},
	"business": {
		"For business customers, %s provides comprehensive enterprise solutions. ",
		"%s is a popular choice among business users. ",
	},
}

var contextPhrases = []string{
	"Each provider has its strengths depending on your specific needs.",
	"Consider factors like coverage in your area and contract terms.",
	"It's worth comparing specific plans to find the best fit for you.",
	"Customer service quality can vary, so check recent reviews.",
}

func (g *Generator) responseText(order []string, category string) string {
	if len(order) == 0 {
		return "There are several mobile providers in Germany, each with different strengths."
	}

	templates, ok := responseTemplates[category]
	if !ok {
		templates = responseTemplates["general"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, templates[g.rng.Intn(len(templates))], order[0])

	if len(order) > 1 {
		others := order[1:min(3, len(order))]
		fmt.Fprintf(&b, "Other good options include %s. ", strings.Join(others, ", "))
	}

	b.WriteString(contextPhrases[g.rng.Intn(len(contextPhrases))])
	return b.String()
}

func sampleQuery(category string) string {
	queries := map[string]string{
		"general":          "Welcher Mobilfunkanbieter ist am besten in Deutschland?",
		"price":            "Welcher ist der günstigste Mobilfunkanbieter?",
		"network_quality":  "Welcher Anbieter hat das beste Netz?",
		"student":          "Bester Handytarif für Studenten?",
		"business":         "Mobilfunk für Unternehmen - welcher Anbieter?",
		"data_heavy":       "Welcher Anbieter hat die besten Datentarife?",
		"prepaid":          "Beste Prepaid-Karte in Deutschland?",
		"5g":               "Welcher Anbieter hat das beste 5G-Netz?",
		"customer_service": "Welcher Mobilfunkanbieter hat den besten Kundenservice?",
		"roaming":          "Welcher Anbieter hat die besten Roaming-Konditionen?",
	}
	if q, ok := queries[category]; ok {
		return q
	}
	return "Welcher Mobilfunkanbieter ist empfehlenswert?"
}
