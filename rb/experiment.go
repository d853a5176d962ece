package rb

import (
	"github.com/sirupsen/logrus"

	"github.com/rmab-sim/rmab-sim/rb/trace"
)

// countActive returns the number of active entries in an action vector.
func countActive(actions []int) int {
	total := 0
	for _, a := range actions {
		total += a
	}
	return total
}

// RunPolicy advances the population for horizon periods under a budgeted
// policy, recording per-period rewards and, when tracing is enabled,
// per-period decision records. The loop is step-synchronous: all per-arm
// work of a period completes before the next period starts.
func RunPolicy(b *Bandit, policy StepPolicy, horizon int, rt *trace.RunTrace) (*RunMetrics, error) {
	metrics := NewRunMetrics()
	for step := 0; step < horizon; step++ {
		actions, err := policy.GetActions(b.States())
		if err != nil {
			return nil, err
		}
		reward, err := b.Step(actions)
		if err != nil {
			return nil, err
		}
		activated := countActive(actions)
		metrics.Record(reward, activated)
		rt.RecordAction(trace.ActionRecord{Step: step, Activated: activated, Reward: reward, GoodArms: -1})
		logrus.Debugf("[step %06d] activated=%d reward=%.6f", step, activated, reward)
	}
	metrics.FinalStateFracs = b.StateFracs()
	return metrics, nil
}

// RunFTVA advances the population for horizon periods under the FTVA
// coupling policy, interleaving the real transition with the virtual-arm
// coupling update each period.
func RunFTVA(b *Bandit, policy *FTVAPolicy, horizon int, rt *trace.RunTrace) (*RunMetrics, error) {
	metrics := NewRunMetrics()
	for step := 0; step < horizon; step++ {
		prev := b.States()
		actions, virtualActions, err := policy.GetActions(prev)
		if err != nil {
			return nil, err
		}
		reward, err := b.Step(actions)
		if err != nil {
			return nil, err
		}
		cur := b.States()
		if err := policy.VirtualStep(prev, cur, actions, virtualActions); err != nil {
			return nil, err
		}
		activated := countActive(actions)
		good := policy.GoodArmCount(cur)
		metrics.Record(reward, activated)
		rt.RecordAction(trace.ActionRecord{Step: step, Activated: activated, Reward: reward, GoodArms: good})
		logrus.Debugf("[step %06d] activated=%d reward=%.6f good=%d", step, activated, reward, good)
	}
	metrics.FinalStateFracs = b.StateFracs()
	return metrics, nil
}
