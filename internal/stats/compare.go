package stats

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sells-group/som-monitor/internal/model"
)

// bootstrapIterations is the fixed resample count for percentile
// bootstrap intervals.
const bootstrapIterations = 1000

// MeanConfidenceInterval returns (mean, lower, upper) for a continuous
// sample using the t distribution. Empty input yields all zeros; a
// single observation yields a point interval.
func (c *Calculator) MeanConfidenceInterval(data []float64) (float64, float64, float64) {
	if len(data) == 0 {
		return 0, 0, 0
	}

	mean := stat.Mean(data, nil)
	if len(data) == 1 {
		return mean, mean, mean
	}

	se := stat.StdDev(data, nil) / math.Sqrt(float64(len(data)))
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(len(data) - 1)}
	q := t.Quantile(1 - (1-c.level)/2)

	return mean, mean - q*se, mean + q*se
}

// TTest runs a pooled two-sample t-test. Empty samples or zero pooled
// variance yield (0, 1, false), the defined neutral outcome.
func (c *Calculator) TTest(sample1, sample2 []float64) (tStat, pValue float64, significant bool) {
	n1, n2 := len(sample1), len(sample2)
	if n1 == 0 || n2 == 0 || n1+n2 < 3 {
		return 0, 1, false
	}

	mean1 := stat.Mean(sample1, nil)
	mean2 := stat.Mean(sample2, nil)
	var1 := stat.Variance(sample1, nil)
	var2 := stat.Variance(sample2, nil)

	df := float64(n1 + n2 - 2)
	pooled := (float64(n1-1)*var1 + float64(n2-1)*var2) / df
	se := math.Sqrt(pooled * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return 0, 1, false
	}

	tStat = (mean1 - mean2) / se
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pValue = 2 * (1 - t.CDF(math.Abs(tStat)))

	return tStat, pValue, pValue < (1 - c.level)
}

// CohensD computes the standardized mean difference between two
// samples. Zero pooled variance (or empty samples) yields 0.
func CohensD(sample1, sample2 []float64) float64 {
	n1, n2 := len(sample1), len(sample2)
	if n1 == 0 || n2 == 0 || n1+n2 < 3 {
		return 0
	}

	var1 := stat.Variance(sample1, nil)
	var2 := stat.Variance(sample2, nil)
	pooled := math.Sqrt((float64(n1-1)*var1 + float64(n2-1)*var2) / float64(n1+n2-2))
	if pooled == 0 {
		return 0
	}

	return (stat.Mean(sample1, nil) - stat.Mean(sample2, nil)) / pooled
}

// BootstrapCI estimates a confidence interval for the mean by
// percentile bootstrap with a fixed iteration count. Empty input
// yields (0, 0).
func (c *Calculator) BootstrapCI(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	means := make([]float64, bootstrapIterations)
	for i := range means {
		sum := 0.0
		for range data {
			sum += data[rand.IntN(len(data))]
		}
		means[i] = sum / float64(len(data))
	}
	sort.Float64s(means)

	alpha := 1 - c.level
	lower := stat.Quantile(alpha/2, stat.LinInterp, means, nil)
	upper := stat.Quantile(1-alpha/2, stat.LinInterp, means, nil)

	return lower, upper
}

// ANOVAResult holds the outcome of a one-way analysis of variance.
type ANOVAResult struct {
	FStatistic     float64 `json:"f_statistic"`
	PValue         float64 `json:"p_value"`
	Significant    bool    `json:"significant"`
	Interpretation string  `json:"interpretation"`
}

// OneWayANOVA tests whether group means differ across more than two
// groups. Degenerate inputs (fewer than two groups, no within-group
// variance) yield defined neutral results.
func (c *Calculator) OneWayANOVA(groups [][]float64) ANOVAResult {
	k := len(groups)
	total := 0
	grandSum := 0.0
	for _, g := range groups {
		total += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	if k < 2 || total <= k {
		return ANOVAResult{PValue: 1, Interpretation: "No significant differences among brands"}
	}
	grandMean := grandSum / float64(total)

	var ssBetween, ssWithin float64
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		m := stat.Mean(g, nil)
		ssBetween += float64(len(g)) * (m - grandMean) * (m - grandMean)
		for _, v := range g {
			ssWithin += (v - m) * (v - m)
		}
	}

	dfBetween := float64(k - 1)
	dfWithin := float64(total - k)

	if ssWithin == 0 {
		if ssBetween == 0 {
			return ANOVAResult{PValue: 1, Interpretation: "No significant differences among brands"}
		}
		return ANOVAResult{
			FStatistic:     math.Inf(1),
			Significant:    true,
			Interpretation: "Significant differences detected among brands",
		}
	}

	f := (ssBetween / dfBetween) / (ssWithin / dfWithin)
	fd := distuv.F{D1: dfBetween, D2: dfWithin}
	p := 1 - fd.CDF(f)

	significant := p < (1 - c.level)
	interpretation := "No significant differences among brands"
	if significant {
		interpretation = "Significant differences detected among brands"
	}

	return ANOVAResult{FStatistic: f, PValue: p, Significant: significant, Interpretation: interpretation}
}

// Power computes statistical power for a two-sample test at the given
// effect size and per-group sample size.
func Power(effectSize float64, sampleSize int, alpha float64) float64 {
	ncp := effectSize * math.Sqrt(float64(sampleSize)/2)
	crit := stdNormal.Quantile(1 - alpha/2)
	return 1 - stdNormal.CDF(crit-ncp) + stdNormal.CDF(-crit-ncp)
}

// RequiredSampleSizeForPower returns the per-group sample size needed
// to detect effectSize with the desired power.
func RequiredSampleSizeForPower(effectSize, power, alpha float64) int {
	zAlpha := stdNormal.Quantile(1 - alpha/2)
	zBeta := stdNormal.Quantile(power)
	n := 2 * math.Pow((zAlpha+zBeta)/effectSize, 2)
	return int(math.Ceil(n))
}

// BrandComparison is a full statistical comparison of two brands'
// mention vectors.
type BrandComparison struct {
	Brand1         string     `json:"brand1"`
	Brand2         string     `json:"brand2"`
	Rate1          float64    `json:"rate1"`
	Rate2          float64    `json:"rate2"`
	Difference     float64    `json:"difference"`
	CI1            [2]float64 `json:"ci1"`
	CI2            [2]float64 `json:"ci2"`
	PValue         float64    `json:"p_value"`
	Significant    bool       `json:"significant"`
	EffectSize     float64    `json:"effect_size"`
	Interpretation string     `json:"interpretation"`
}

// CompareBrands compares the per-result mention indicators of two
// brands: rates, pooled t-test, Cohen's d, and bootstrap intervals.
func (c *Calculator) CompareBrands(results []model.QueryResult, brand1, brand2 string) BrandComparison {
	v1 := mentionVector(results, brand1)
	v2 := mentionVector(results, brand2)

	rate1 := 0.0
	if len(v1) > 0 {
		rate1 = stat.Mean(v1, nil)
	}
	rate2 := 0.0
	if len(v2) > 0 {
		rate2 = stat.Mean(v2, nil)
	}

	_, pValue, significant := c.TTest(v1, v2)
	effectSize := CohensD(v1, v2)

	lo1, hi1 := c.BootstrapCI(v1)
	lo2, hi2 := c.BootstrapCI(v2)

	return BrandComparison{
		Brand1:         brand1,
		Brand2:         brand2,
		Rate1:          rate1,
		Rate2:          rate2,
		Difference:     rate1 - rate2,
		CI1:            [2]float64{lo1, hi1},
		CI2:            [2]float64{lo2, hi2},
		PValue:         pValue,
		Significant:    significant,
		EffectSize:     effectSize,
		Interpretation: interpretComparison(rate1, rate2, significant, effectSize),
	}
}

// AnalyzeVariance runs a one-way ANOVA over every tracked brand's
// mention vector.
func (c *Calculator) AnalyzeVariance(results []model.QueryResult, brands []string) ANOVAResult {
	groups := make([][]float64, len(brands))
	for i, brand := range brands {
		groups[i] = mentionVector(results, brand)
	}
	return c.OneWayANOVA(groups)
}

func mentionVector(results []model.QueryResult, brand string) []float64 {
	v := make([]float64, len(results))
	for i, r := range results {
		if m, ok := r.Mentions[brand]; ok && m.Mentioned {
			v[i] = 1
		}
	}
	return v
}

func interpretComparison(rate1, rate2 float64, significant bool, effectSize float64) string {
	if !significant {
		return "No significant difference detected"
	}

	direction := "higher"
	if rate1 < rate2 {
		direction = "lower"
	}

	magnitude := "large"
	switch abs := math.Abs(effectSize); {
	case abs < 0.2:
		magnitude = "negligible"
	case abs < 0.5:
		magnitude = "small"
	case abs < 0.8:
		magnitude = "medium"
	}

	return "Significantly " + direction + " with " + magnitude + " effect size"
}
