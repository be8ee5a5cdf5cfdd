// Package l4classify owns Layer 4 (Classification) of the runtime.
//
// Responsibilities: validating an input view against the loaded model,
// per-pixel decision scoring, the optional regression planes, and ROI
// restricted evaluation.
// Key types: Engine, Result, ROI.
//
// Scoring is batched: each worker gathers up to batchPixels spectra into a
// gonum dense matrix and multiplies it with the transposed model weights.
// Every pixel is scored independently, so output does not depend on the
// worker count.
//
// Dependency rule: L4 may depend on L0-L3, never on L5+.
package l4classify
