package rb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionedRNG_SameSeed_IdenticalStreams(t *testing.T) {
	a := NewPartitionedRNG(42)
	b := NewPartitionedRNG(42)

	for _, subsystem := range []string{SubsystemInit, SubsystemBudget, SubsystemPolicy, SubsystemTransition, SubsystemVirtual} {
		ra, rb := a.ForSubsystem(subsystem), b.ForSubsystem(subsystem)
		for i := 0; i < 20; i++ {
			assert.Equal(t, ra.Int63(), rb.Int63(), "subsystem %s, draw %d", subsystem, i)
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// Draining one subsystem's stream must not change another's draws.
	a := NewPartitionedRNG(7)
	b := NewPartitionedRNG(7)

	for i := 0; i < 1000; i++ {
		a.ForSubsystem(SubsystemTransition).Int63()
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.ForSubsystem(SubsystemPolicy).Int63(), b.ForSubsystem(SubsystemPolicy).Int63())
	}
}

func TestPartitionedRNG_DistinctSubsystems_DistinctStreams(t *testing.T) {
	p := NewPartitionedRNG(7)
	first := make([]int64, 10)
	second := make([]int64, 10)
	for i := range first {
		first[i] = p.ForSubsystem(SubsystemPolicy).Int63()
		second[i] = p.ForSubsystem(SubsystemVirtual).Int63()
	}
	assert.NotEqual(t, first, second)
}

func TestPartitionedRNG_ForSubsystem_CachesInstance(t *testing.T) {
	p := NewPartitionedRNG(1)
	assert.Same(t, p.ForSubsystem(SubsystemBudget), p.ForSubsystem(SubsystemBudget))
	assert.Equal(t, int64(1), p.MasterSeed())
}

func TestPartitionedRNG_DifferentSeeds_DifferentStreams(t *testing.T) {
	a := NewPartitionedRNG(1)
	b := NewPartitionedRNG(2)
	first := make([]int64, 10)
	second := make([]int64, 10)
	for i := range first {
		first[i] = a.ForSubsystem(SubsystemInit).Int63()
		second[i] = b.ForSubsystem(SubsystemInit).Int63()
	}
	assert.NotEqual(t, first, second)
}

func TestSampleCategorical_DegenerateDistribution(t *testing.T) {
	rng := testRNG(60)
	for i := 0; i < 50; i++ {
		assert.Equal(t, 1, SampleCategorical([]float64{0, 1, 0}, rng))
	}
}

func TestSampleCategorical_EmpiricalFrequencies(t *testing.T) {
	rng := testRNG(61)
	probs := []float64{0.2, 0.5, 0.3}
	counts := make([]int, 3)
	const draws = 20000
	for i := 0; i < draws; i++ {
		counts[SampleCategorical(probs, rng)]++
	}
	for i, p := range probs {
		assert.InDelta(t, p, float64(counts[i])/draws, 0.02, "index %d", i)
	}
}

func TestSampleSubset_SizeAndDistinctness(t *testing.T) {
	rng := testRNG(62)
	indices := []int{10, 11, 12, 13, 14}
	subset := SampleSubset(indices, 3, rng)
	assert.Len(t, subset, 3)
	seen := make(map[int]bool)
	for _, v := range subset {
		assert.Contains(t, indices, v)
		assert.False(t, seen[v], "element drawn twice")
		seen[v] = true
	}
	// The input is never modified.
	assert.Equal(t, []int{10, 11, 12, 13, 14}, indices)
}
