package trace

// Summary aggregates statistics from a RunTrace.
type Summary struct {
	Steps         int
	MeanActivated float64
	MeanReward    float64
	MeanGoodArms  float64 // 0 when no record carries coupling information
}

// Summarize computes aggregate statistics from a RunTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RunTrace) *Summary {
	summary := &Summary{}
	if rt == nil || len(rt.Actions) == 0 {
		return summary
	}

	summary.Steps = len(rt.Actions)
	totalActivated, totalReward, totalGood, goodRecords := 0, 0.0, 0, 0
	for _, rec := range rt.Actions {
		totalActivated += rec.Activated
		totalReward += rec.Reward
		if rec.GoodArms >= 0 {
			totalGood += rec.GoodArms
			goodRecords++
		}
	}
	summary.MeanActivated = float64(totalActivated) / float64(summary.Steps)
	summary.MeanReward = totalReward / float64(summary.Steps)
	if goodRecords > 0 {
		summary.MeanGoodArms = float64(totalGood) / float64(goodRecords)
	}
	return summary
}
