// Package ocp provides core optimal-control primitives.
//
// The package defines the vocabulary shared by the solver, the
// receding-horizon loop and the plant models:
//
//   - [State], [Control]: dense vectors over the plant's coordinates
//   - [Trajectory]: a state sequence with the actions that produced it
//   - [LinearPolicy]: time-varying affine feedback around a reference
//   - [System]: continuous-time dynamics (dX/dt = f(X, u, t))
//   - [Dynamics]: discrete-time transition used by the solver
//   - [CostModel]: stage and terminal cost of a candidate trajectory
//   - [Box]: per-component bounds with clipping
//
// Capability interfaces ([Linearizable], [StageQuadratizer],
// [FinalQuadratizer], [Hamiltonian], [Configurable]) are discovered by
// type assertion; components that lack them get generic fallbacks.
package ocp
