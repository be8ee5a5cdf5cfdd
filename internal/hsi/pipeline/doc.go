// Package pipeline is the runtime controller. A Handle owns every piece
// of mutable state (device, model, correction, tracker, object table,
// last decision mask) and sequences load, configure, start, process and
// stop. Handles share nothing; independent handles may run in parallel.
//
// Every operation returns an error whose integer status is available via
// hsi.Status; the handle also remembers the outcome of its last call for
// LastErrorCode and LastErrorMsg.
package pipeline
