package cmd

// ExampleInstance returns the built-in three-state recovery-band instance
// used when no instance file is given: arms deplete while active, recover
// while passive, and only productive arms pay out. It exercises every
// policy without needing an external file.
func ExampleInstance() *InstanceConfig {
	return &InstanceConfig{
		Name:     "recovery-band",
		SspaSize: 3,
		TransTensor: [][][]float64{
			{ // state 0: depleted
				{1.0, 0.0, 0.0},
				{0.3, 0.7, 0.0},
			},
			{ // state 1: recovering
				{0.6, 0.4, 0.0},
				{0.0, 0.3, 0.7},
			},
			{ // state 2: productive
				{0.4, 0.0, 0.6},
				{0.0, 0.2, 0.8},
			},
		},
		RewardTensor: [][]float64{
			{0.0, 0.0},
			{0.2, 0.2},
			{1.0, 1.0},
		},
		ActFrac: 0.4,
		NumArms: 100,
	}
}
