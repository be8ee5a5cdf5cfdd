// Package l1samples owns Layer 1 (Samples) of the runtime data model.
//
// Responsibilities: sample data types, band interleave layouts, and typed
// read-only views over frame and cube buffers.
// Key types: DataType, Layout, Geometry, Buffer, View.
//
// Every other layer reads spectral values through View so that the
// uint16/float/uint8 and BIP/BIL/BSQ variants are dispatched in one place.
package l1samples
