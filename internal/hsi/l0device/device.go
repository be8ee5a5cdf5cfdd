package l0device

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/banshee-data/hyperspectral/internal/fsutil"
)

// BackendKind identifies a compute backend family.
type BackendKind int

const (
	BackendCPU BackendKind = iota
	BackendCUDA
	BackendOpenCL
)

func (k BackendKind) String() string {
	switch k {
	case BackendCPU:
		return "CPU"
	case BackendCUDA:
		return "CUDA"
	case BackendOpenCL:
		return "OpenCL"
	}
	return fmt.Sprintf("backend(%d)", int(k))
}

// Candidate is one selectable compute device.
type Candidate struct {
	Kind    BackendKind
	Name    string
	Ordinal int // index within its backend family
}

// Device is an initialised candidate ready to run kernels.
type Device struct {
	Candidate
	Workers int // parallel workers available to L2/L4 kernels
}

// Backend initialises candidates of one family.
type Backend interface {
	Init(c Candidate) (Device, error)
}

// Prober lists the candidates of one family present on this host.
type Prober interface {
	Probe() ([]Candidate, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(c Candidate) (Device, error)

// Init calls f.
func (f BackendFunc) Init(c Candidate) (Device, error) { return f(c) }

// Registry holds the probers and backends known to this build.
type Registry struct {
	mu       sync.RWMutex
	probers  map[BackendKind]Prober
	backends map[BackendKind]Backend
}

// NewRegistry returns a registry with only the CPU backend, running
// kernels on the given number of goroutines (<= 0 means one per CPU).
func NewRegistry(workers int) *Registry {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	r := &Registry{
		probers:  make(map[BackendKind]Prober),
		backends: make(map[BackendKind]Backend),
	}
	r.backends[BackendCPU] = BackendFunc(func(c Candidate) (Device, error) {
		return Device{Candidate: c, Workers: workers}, nil
	})
	return r
}

// DefaultRegistry returns the CPU registry plus library probers for CUDA
// and OpenCL. GPU candidates are listed when their vendor runtime is
// installed, but selecting one fails unless a backend has been registered
// for the family with RegisterBackend.
func DefaultRegistry(fsys fsutil.FileSystem, workers int) *Registry {
	r := NewRegistry(workers)
	r.RegisterProber(BackendCUDA, &LibraryProber{FS: fsys, Kind: BackendCUDA, Paths: cudaLibraries})
	r.RegisterProber(BackendOpenCL, &LibraryProber{FS: fsys, Kind: BackendOpenCL, Paths: openCLLibraries})
	return r
}

// RegisterProber installs the candidate prober for a backend family.
func (r *Registry) RegisterProber(kind BackendKind, p Prober) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probers[kind] = p
}

// RegisterBackend installs the initialiser for a backend family.
func (r *Registry) RegisterBackend(kind BackendKind, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[kind] = b
}

func (r *Registry) prober(kind BackendKind) Prober {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.probers[kind]
}

func (r *Registry) backend(kind BackendKind) Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backends[kind]
}

var (
	cudaLibraries = []string{
		"/usr/lib/x86_64-linux-gnu/libcuda.so.1",
		"/usr/lib64/libcuda.so.1",
		"/usr/lib/aarch64-linux-gnu/libcuda.so.1",
		"C:\\Windows\\System32\\nvcuda.dll",
	}
	openCLLibraries = []string{
		"/usr/lib/x86_64-linux-gnu/libOpenCL.so.1",
		"/usr/lib64/libOpenCL.so.1",
		"/usr/lib/aarch64-linux-gnu/libOpenCL.so.1",
		"C:\\Windows\\System32\\OpenCL.dll",
	}
)

// LibraryProber reports one candidate per installed vendor runtime library.
type LibraryProber struct {
	FS    fsutil.FileSystem
	Kind  BackendKind
	Paths []string
}

// Probe checks each path in order.
func (p *LibraryProber) Probe() ([]Candidate, error) {
	if p.FS == nil {
		return nil, fmt.Errorf("%s prober has no filesystem", p.Kind)
	}
	var out []Candidate
	for _, path := range p.Paths {
		if p.FS.Exists(path) {
			out = append(out, Candidate{
				Kind:    p.Kind,
				Name:    fmt.Sprintf("%s device %d (%s)", p.Kind, len(out), path),
				Ordinal: len(out),
			})
		}
	}
	return out, nil
}
