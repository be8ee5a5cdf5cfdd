// Package l0device owns Layer 0 (Device) of the runtime.
//
// Responsibilities: enumerating compute backend candidates (CPU, and
// optionally CUDA and OpenCL), naming them, and binding a runtime handle
// to one selected candidate.
// Key types: Context, Registry, Candidate, Device.
//
// Dependency rule: L0 depends on nothing in the runtime except error codes.
package l0device
