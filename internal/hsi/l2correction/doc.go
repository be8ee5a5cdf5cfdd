// Package l2correction owns Layer 2 (Correction) of the runtime.
//
// Responsibilities: loading dark and white reference scans, deriving the
// per-band, per-column linear correction, and applying it to raw frames
// and cubes.
// Key types: Reference, Store, Engine, ScanMeta.
//
// Dependency rule: L2 may depend on L0-L1, never on L3+.
package l2correction
