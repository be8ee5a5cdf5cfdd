// Package l6objects owns Layer 6 (Objects) of the runtime.
//
// Responsibilities: the bounded table of finalised object records and the
// accessors behind the object query surface: integer fields, per-class
// size and fraction, and regression summaries.
// Key types: Store, Record, Field.
//
// Dependency rule: L6 may depend on L1-L5.
package l6objects
