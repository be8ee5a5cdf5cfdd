// Package acquisition is the boundary to camera drivers. Camera describes
// what the runtime needs from a device; RawFileSource replays recorded
// frames through the same interface.
//
// Dependency rule: acquisition may import l1samples and the ambient
// packages, never the pipeline.
package acquisition
