package rb

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names for the RNG streams used by a simulation run.
const (
	// SubsystemInit seeds initial real and virtual arm states.
	SubsystemInit = "init"
	// SubsystemBudget draws the randomized-rounding coin each period.
	SubsystemBudget = "budget"
	// SubsystemPolicy drives action sampling and tie-break subset draws.
	SubsystemPolicy = "policy"
	// SubsystemTransition drives real-arm state transitions.
	SubsystemTransition = "transition"
	// SubsystemVirtual drives uncoupled virtual-arm transitions.
	SubsystemVirtual = "virtual"
)

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
// Two runs with the same master seed and identical configuration produce
// identical draws in every subsystem, regardless of the order in which other
// subsystems consume randomness.
//
// Derivation: subsystemSeed = masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine,
// which matches the step-synchronous simulation model.
type PartitionedRNG struct {
	masterSeed int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(masterSeed int64) *PartitionedRNG {
	return &PartitionedRNG{
		masterSeed: masterSeed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.masterSeed ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// MasterSeed returns the seed this PartitionedRNG was created with.
func (p *PartitionedRNG) MasterSeed() int64 { return p.masterSeed }

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
