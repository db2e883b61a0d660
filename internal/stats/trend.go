package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Direction classifies the movement of a metric over time.
type Direction string

const (
	DirectionStable     Direction = "stable"
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
)

// directionDeadZone is an absolute threshold in the units of the series
// (mention-rate fractions): average changes within it count as stable.
const directionDeadZone = 0.01

// accelerationThreshold marks a velocity change worth flagging.
const accelerationThreshold = 0.005

// VelocityResult describes the rate of change of a per-period metric
// series. When the series has fewer than two points, InsufficientData
// is set and all numeric fields are zero.
type VelocityResult struct {
	Direction        Direction `json:"direction"`
	Velocity         float64   `json:"velocity"`
	Acceleration     float64   `json:"acceleration"`
	IsAccelerating   bool      `json:"is_accelerating"`
	IsTrending       bool      `json:"is_trending"`
	TrendStrength    float64   `json:"trend_strength"`
	InsufficientData bool      `json:"insufficient_data"`
}

// Velocity computes period-over-period movement for an ordered metric
// series: velocity is the mean of successive differences, acceleration
// compares the last two differences against the earlier ones, and
// trend significance uses the Mann-Kendall rank test (requires at
// least three points).
func Velocity(series []float64) VelocityResult {
	if len(series) < 2 {
		return VelocityResult{Direction: DirectionStable, InsufficientData: true}
	}

	changes := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		changes[i-1] = series[i] - series[i-1]
	}

	avgChange := stat.Mean(changes, nil)

	direction := DirectionStable
	switch {
	case avgChange > directionDeadZone:
		direction = DirectionIncreasing
	case avgChange < -directionDeadZone:
		direction = DirectionDecreasing
	}

	acceleration := 0.0
	if len(changes) >= 2 {
		recent := stat.Mean(changes[len(changes)-2:], nil)
		earlier := 0.0
		if len(changes) > 2 {
			earlier = stat.Mean(changes[:len(changes)-2], nil)
		}
		acceleration = recent - earlier
	}

	isTrending := false
	trendStrength := 0.0
	if len(series) >= 3 {
		tau, p := kendallTau(series)
		isTrending = p < 0.05
		trendStrength = math.Abs(tau)
	}

	return VelocityResult{
		Direction:      direction,
		Velocity:       avgChange,
		Acceleration:   acceleration,
		IsAccelerating: math.Abs(acceleration) > accelerationThreshold,
		IsTrending:     isTrending,
		TrendStrength:  trendStrength,
	}
}

// Trend classifies a series as increasing, decreasing, stable, or
// insufficient data using the Mann-Kendall test at the given
// confidence level.
type Trend struct {
	Direction        Direction `json:"direction"`
	Tau              float64   `json:"tau"`
	PValue           float64   `json:"p_value"`
	Significant      bool      `json:"significant"`
	InsufficientData bool      `json:"insufficient_data"`
}

// DetectTrend runs the Mann-Kendall test against the time index. Fewer
// than three points is insufficient data.
func DetectTrend(series []float64, confidenceLevel float64) Trend {
	if len(series) < 3 {
		return Trend{Direction: DirectionStable, PValue: 1, InsufficientData: true}
	}

	tau, p := kendallTau(series)
	significant := p < (1 - confidenceLevel)

	direction := DirectionStable
	if significant {
		if tau > 0 {
			direction = DirectionIncreasing
		} else {
			direction = DirectionDecreasing
		}
	}

	return Trend{Direction: direction, Tau: tau, PValue: p, Significant: significant}
}

// changeDeadZone is the absolute delta below which a change indicator
// reports no change.
const changeDeadZone = 0.001

// ChangeIndicator summarizes the delta between two snapshot values.
type ChangeIndicator struct {
	Direction Direction `json:"direction"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
}

// Change compares current against previous. A previous value of zero
// yields a zero percentage change rather than a division fault.
func Change(current, previous float64) ChangeIndicator {
	change := current - previous

	changePct := 0.0
	if previous != 0 {
		changePct = change / previous * 100
	}

	if math.Abs(change) < changeDeadZone {
		return ChangeIndicator{Direction: DirectionStable}
	}

	direction := DirectionIncreasing
	if change < 0 {
		direction = DirectionDecreasing
	}

	return ChangeIndicator{Direction: direction, Change: change, ChangePct: changePct}
}

// kendallTau computes Kendall's tau-b between the time index and the
// series values, with a two-sided p-value from the normal
// approximation (tie-corrected variance). The time index carries no
// ties, so only value ties are corrected.
func kendallTau(series []float64) (tau, p float64) {
	n := len(series)
	if n < 2 {
		return 0, 1
	}

	var s float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			diff := series[j] - series[i]
			switch {
			case diff > 0:
				s++
			case diff < 0:
				s--
			}
		}
	}

	// Tie correction over the value ranks.
	tieCounts := map[float64]int{}
	for _, v := range series {
		tieCounts[v]++
	}
	var tiesPairs, tiesVar float64
	for _, t := range tieCounts {
		tf := float64(t)
		tiesPairs += tf * (tf - 1) / 2
		tiesVar += tf * (tf - 1) * (2*tf + 5)
	}

	nf := float64(n)
	n0 := nf * (nf - 1) / 2
	denom := math.Sqrt(n0 * (n0 - tiesPairs))
	if denom == 0 {
		return 0, 1
	}
	tau = s / denom

	varS := (nf*(nf-1)*(2*nf+5) - tiesVar) / 18
	if varS <= 0 {
		return tau, 1
	}
	z := s / math.Sqrt(varS)
	p = 2 * (1 - stdNormal.CDF(math.Abs(z)))

	return tau, p
}
