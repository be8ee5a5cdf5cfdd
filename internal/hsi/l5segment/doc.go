// Package l5segment owns Layer 5 (Segmentation) of the runtime.
//
// Responsibilities: turning per-pixel decision masks into discrete
// objects. In streaming mode the Tracker follows foreground runs across
// line-scan frames and closes objects once they scroll past; in snapshot
// mode Segment runs a single connected-components pass over a cube mask.
// Key types: Config, Blob, Tracker.
//
// Dependency rule: L5 may depend on L1-L4, but never on L6.
package l5segment
