// Package ilqr implements iterative LQR trajectory optimization.
//
// Each iteration of [Solver.Solve] runs four phases over the horizon:
//
//   - rollout: simulate the current policy around its reference
//   - linearization: dynamics Jacobians and cost quadratics per stage
//   - backward pass: regularized Riccati recursion producing gains,
//     climbing a lambda ladder when the control Hessian is indefinite
//   - line search: scale the feedforward until a cheaper trajectory
//     is found, keeping the previous one when none is
//
// The accepted cost per iteration lands in [Solution.Trace], which never
// increases. Warm starts pass a previous solution's policy and reference
// back into Solve, which is how the receding-horizon loop uses it.
//
// # Thread Safety
//
// A [Solver] reuses its linearization workspace between calls and is NOT
// safe for concurrent use. Run one Solver per goroutine.
package ilqr
