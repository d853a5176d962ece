package rb

import (
	"math"
	"sort"
)

type IntOrFloat64 interface {
	int | int64 | float64
}

// Percentile calculates the p-th percentile of a data list with linear
// interpolation between ranks. The input need not be sorted.
func Percentile[T IntOrFloat64](data []T, p float64) float64 {
	n := len(data)
	if n == 0 {
		return 0.0
	}
	sorted := append([]T(nil), data...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if upperIdx >= n {
		return float64(sorted[n-1])
	}
	if lowerIdx == upperIdx {
		return float64(sorted[lowerIdx])
	}
	lowerVal := float64(sorted[lowerIdx])
	upperVal := float64(sorted[upperIdx])
	return lowerVal + (upperVal-lowerVal)*(rank-float64(lowerIdx))
}

// Mean calculates the mean of a data list.
func Mean[T IntOrFloat64](numbers []T) float64 {
	if len(numbers) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, number := range numbers {
		sum += float64(number)
	}
	return sum / float64(len(numbers))
}

// RunMetrics accumulates per-period statistics of one simulation run.
type RunMetrics struct {
	// Rewards holds the per-period instantaneous reward (normalized by N).
	Rewards []float64
	// Activated holds the per-period activation count.
	Activated []int
	// FinalStateFracs is the state distribution when the run ended.
	FinalStateFracs []float64
}

// NewRunMetrics creates an empty RunMetrics.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{}
}

// Record appends one period's reward and activation count.
func (m *RunMetrics) Record(reward float64, activated int) {
	m.Rewards = append(m.Rewards, reward)
	m.Activated = append(m.Activated, activated)
}

// Steps returns the number of recorded periods.
func (m *RunMetrics) Steps() int { return len(m.Rewards) }

// AverageReward returns the time-average per-arm reward over the run.
func (m *RunMetrics) AverageReward() float64 { return Mean(m.Rewards) }

// RewardPercentile returns the p-th percentile of the per-period rewards.
func (m *RunMetrics) RewardPercentile(p float64) float64 { return Percentile(m.Rewards, p) }

// AverageActivated returns the time-average activation count.
func (m *RunMetrics) AverageActivated() float64 { return Mean(m.Activated) }
