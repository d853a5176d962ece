package trace

// ActionRecord captures a single per-period action decision.
type ActionRecord struct {
	Step      int
	Activated int     // number of arms given the active action
	Reward    float64 // instantaneous reward, normalized by arm count
	GoodArms  int     // arms whose real state equals the virtual state; -1 for policies without virtual arms
}
