// Package stats provides the statistical layer of the SOM pipeline:
// Wilson confidence intervals, proportion comparisons, trend detection,
// and general two-sample utilities. Every function is a pure transform
// of its inputs; degenerate inputs yield defined neutral values, never
// faults.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// ConfidenceMetrics wraps a single proportion with its Wilson interval.
// IsSignificant is a minimum-sample-size reliability flag (n >= 30),
// not a hypothesis-test result; report logic keys off this exact
// threshold.
type ConfidenceMetrics struct {
	Value           float64 `json:"value"`
	LowerBound      float64 `json:"lower_bound"`
	UpperBound      float64 `json:"upper_bound"`
	ConfidenceLevel float64 `json:"confidence_level"`
	SampleSize      int     `json:"sample_size"`
	StandardError   float64 `json:"standard_error"`
	MarginOfError   float64 `json:"margin_of_error"`
	IsSignificant   bool    `json:"is_significant"`
}

// Calculator computes confidence metrics at a fixed confidence level.
type Calculator struct {
	level float64
	z     float64
}

// NewCalculator creates a Calculator for the given two-sided confidence
// level (e.g. 0.95).
func NewCalculator(level float64) *Calculator {
	return &Calculator{
		level: level,
		z:     stdNormal.Quantile((1 + level) / 2),
	}
}

// Level returns the configured confidence level.
func (c *Calculator) Level() float64 { return c.level }

// ProportionConfidence computes the Wilson score interval for
// successes/total. Wilson is preferred over the normal approximation
// for small samples and extreme rates. total == 0 returns an all-zero
// metrics value; that is defined output, not an error.
func (c *Calculator) ProportionConfidence(successes, total int) ConfidenceMetrics {
	if total == 0 {
		return ConfidenceMetrics{}
	}

	p := float64(successes) / float64(total)
	n := float64(total)
	z := c.z

	denom := 1 + z*z/n
	center := (p + z*z/(2*n)) / denom
	margin := z * math.Sqrt((p*(1-p)+z*z/(4*n))/n) / denom

	se := 0.0
	if total > 1 {
		se = math.Sqrt(p * (1 - p) / n)
	}

	return ConfidenceMetrics{
		Value:           p,
		LowerBound:      math.Max(0, center-margin),
		UpperBound:      math.Min(1, center+margin),
		ConfidenceLevel: c.level,
		SampleSize:      total,
		StandardError:   se,
		MarginOfError:   margin,
		IsSignificant:   total >= 30,
	}
}

// CompareProportions runs a two-proportion z-test on pooled variance.
// Zero totals yield ("Insufficient data", p=1) and a zero pooled
// standard error yields ("No variance", p=1), both non-significant.
func (c *Calculator) CompareProportions(successes1, total1, successes2, total2 int) (float64, bool, string) {
	if total1 == 0 || total2 == 0 {
		return 1.0, false, "Insufficient data"
	}

	p1 := float64(successes1) / float64(total1)
	p2 := float64(successes2) / float64(total2)

	pPool := float64(successes1+successes2) / float64(total1+total2)
	seDiff := math.Sqrt(pPool * (1 - pPool) * (1/float64(total1) + 1/float64(total2)))
	if seDiff == 0 {
		return 1.0, false, "No variance"
	}

	z := (p1 - p2) / seDiff
	pValue := 2 * (1 - stdNormal.CDF(math.Abs(z)))

	alpha := 1 - c.level
	significant := pValue < alpha

	if !significant {
		return pValue, false, "No significant difference"
	}

	direction := "higher"
	if p1 < p2 {
		direction = "lower"
	}
	interpretation := fmt.Sprintf("Significantly %s by %.1fpp (p=%.3f)",
		direction, math.Abs(p1-p2)*100, pValue)

	return pValue, true, interpretation
}

// RequiredSampleSize returns the sample size needed to estimate a
// proportion near expectedRate within marginOfError, rounded up.
func (c *Calculator) RequiredSampleSize(expectedRate, marginOfError float64) int {
	p := expectedRate
	n := (c.z * c.z * p * (1 - p)) / (marginOfError * marginOfError)
	return int(math.Ceil(n))
}

// QualityGrade classifies sample sizes into four tiers. The thresholds
// and recommendation wording are an external contract; dashboards key
// off them verbatim.
type QualityGrade string

const (
	QualityLow       QualityGrade = "LOW"
	QualityModerate  QualityGrade = "MODERATE"
	QualityGood      QualityGrade = "GOOD"
	QualityExcellent QualityGrade = "EXCELLENT"
)

// DataQuality is a categorical assessment of a sample size.
type DataQuality struct {
	Quality        QualityGrade `json:"quality"`
	Recommendation string       `json:"recommendation"`
	SampleSize     int          `json:"sample_size"`
}

// EvaluateDataQuality grades a sample size: <30 LOW, <100 MODERATE,
// <300 GOOD, otherwise EXCELLENT.
func EvaluateDataQuality(sampleSize int) DataQuality {
	switch {
	case sampleSize < 30:
		return DataQuality{
			Quality:        QualityLow,
			Recommendation: fmt.Sprintf("Collect %d more samples for statistical significance", 30-sampleSize),
			SampleSize:     sampleSize,
		}
	case sampleSize < 100:
		return DataQuality{
			Quality:        QualityModerate,
			Recommendation: fmt.Sprintf("Consider %d more samples for higher confidence", 100-sampleSize),
			SampleSize:     sampleSize,
		}
	case sampleSize < 300:
		return DataQuality{
			Quality:        QualityGood,
			Recommendation: "Sample size adequate for reliable insights",
			SampleSize:     sampleSize,
		}
	default:
		return DataQuality{
			Quality:        QualityExcellent,
			Recommendation: "Sample size excellent for high-confidence analysis",
			SampleSize:     sampleSize,
		}
	}
}
