package l0device

import (
	"github.com/banshee-data/hyperspectral/internal/hsi"
)

// Context enumerates candidates and holds the selected device of one
// runtime handle. It is not safe for concurrent use.
type Context struct {
	reg        *Registry
	candidates []Candidate
	selected   *Device
}

// NewContext returns a context listing only the CPU candidate.
func NewContext(reg *Registry) *Context {
	if reg == nil {
		reg = NewRegistry(0)
	}
	return &Context{
		reg:        reg,
		candidates: []Candidate{cpuCandidate()},
	}
}

func cpuCandidate() Candidate {
	return Candidate{Kind: BackendCPU, Name: "CPU", Ordinal: 0}
}

// Refresh rebuilds the candidate list. The CPU is always listed first;
// CUDA and OpenCL candidates follow when requested. A failed refresh
// leaves the previous list in place. The current selection is kept.
func (c *Context) Refresh(listCUDA, listOpenCL bool) error {
	const op = "RefreshDeviceList"
	list := []Candidate{cpuCandidate()}

	if listCUDA {
		found, err := c.probe(BackendCUDA)
		if err != nil {
			return hsi.Wrap(hsi.CodeCUDABackend, op, err)
		}
		list = append(list, found...)
	}
	if listOpenCL {
		found, err := c.probe(BackendOpenCL)
		if err != nil {
			return hsi.Wrap(hsi.CodeOpenCLBackend, op, err)
		}
		list = append(list, found...)
	}
	c.candidates = list
	return nil
}

// RefreshFlags is Refresh for integer flags as passed across the runtime
// boundary; each flag must be 0 or 1.
func (c *Context) RefreshFlags(listCUDA, listOpenCL int) error {
	if (listCUDA != 0 && listCUDA != 1) || (listOpenCL != 0 && listOpenCL != 1) {
		return hsi.Errorf(hsi.CodeDeviceListFlags, "RefreshDeviceList", "got %d, %d", listCUDA, listOpenCL)
	}
	return c.Refresh(listCUDA == 1, listOpenCL == 1)
}

func (c *Context) probe(kind BackendKind) ([]Candidate, error) {
	p := c.reg.prober(kind)
	if p == nil {
		return nil, nil
	}
	return p.Probe()
}

// Count returns the number of listed candidates.
func (c *Context) Count() int { return len(c.candidates) }

// Name returns the human-readable name of candidate i.
func (c *Context) Name(i int) (string, error) {
	if i < 0 || i >= len(c.candidates) {
		return "", hsi.Errorf(hsi.CodeDeviceIndex, "GetDeviceName", "index %d, %d devices", i, len(c.candidates))
	}
	return c.candidates[i].Name, nil
}

// Candidates returns a copy of the listed candidates.
func (c *Context) Candidates() []Candidate {
	return append([]Candidate(nil), c.candidates...)
}

// Select initialises candidate i and binds the context to it. An
// out-of-range index leaves the current selection alone; a failed backend
// init leaves no device selected.
func (c *Context) Select(i int) error {
	const op = "SetDevice"
	if i < 0 || i >= len(c.candidates) {
		return hsi.Errorf(hsi.CodeDeviceSwitch, op, "index %d out of range (%d devices)", i, len(c.candidates))
	}
	cand := c.candidates[i]
	b := c.reg.backend(cand.Kind)
	if b == nil {
		c.selected = nil
		return hsi.Errorf(hsi.CodeDeviceSwitch, op, "no %s backend in this build", cand.Kind)
	}
	dev, err := b.Init(cand)
	if err != nil {
		c.selected = nil
		return hsi.Wrap(hsi.CodeDeviceSwitch, op, err)
	}
	if dev.Workers <= 0 {
		dev.Workers = 1
	}
	c.selected = &dev
	return nil
}

// Selected returns the bound device, if any.
func (c *Context) Selected() (Device, bool) {
	if c.selected == nil {
		return Device{}, false
	}
	return *c.selected, true
}

// Workers returns the worker count of the selected device, or 1.
func (c *Context) Workers() int {
	if c.selected == nil {
		return 1
	}
	return c.selected.Workers
}
