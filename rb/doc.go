// Package rb simulates and controls restless multi-armed bandits: N
// independent finite-state arms whose transition law depends on a binary
// action, under a shared per-period budget on how many arms may be active.
//
// # Reading Guide
//
// Start with these three files to understand the core:
//   - model.go: the arm dynamics (transition kernel, reward function)
//   - analyzer.go: the single-armed relaxation solver (occupation measures,
//     dual value functions, Whittle indices, priority orderings)
//   - ftva.go: the Follow-the-Virtual-Arm coupling policy
//
// # Architecture
//
// The rb package holds the simulators and policies; supporting concerns live
// in sub-packages:
//   - rb/lp: the convex-program collaborator (named-constraint linear
//     programs over the occupation measure, primal and dual solves)
//   - rb/trace: decision trace recording
//
// Policies implement the small StepPolicy interface (priority and
// random-tie-break policies); FTVA carries extra per-arm virtual state and
// exposes its own GetActions/VirtualStep pair, driven by the experiment
// loop in experiment.go.
//
// All randomness flows through explicitly injected *rand.Rand handles,
// derived per subsystem from a PartitionedRNG, so runs are reproducible
// bit-for-bit from a master seed.
package rb
