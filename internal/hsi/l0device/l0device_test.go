package l0device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/hyperspectral/internal/fsutil"
	"github.com/banshee-data/hyperspectral/internal/hsi"
)

type stubProber struct {
	cands []Candidate
	err   error
}

func (p stubProber) Probe() ([]Candidate, error) { return p.cands, p.err }

func TestContextListsCPUFirst(t *testing.T) {
	t.Parallel()
	ctx := NewContext(NewRegistry(3))

	require.Equal(t, 1, ctx.Count())
	name, err := ctx.Name(0)
	require.NoError(t, err)
	assert.Equal(t, "CPU", name)

	_, ok := ctx.Selected()
	assert.False(t, ok)
	assert.Equal(t, 1, ctx.Workers())

	require.NoError(t, ctx.Select(0))
	dev, ok := ctx.Selected()
	require.True(t, ok)
	assert.Equal(t, BackendCPU, dev.Kind)
	assert.Equal(t, 3, ctx.Workers())
}

func TestNameOutOfBounds(t *testing.T) {
	t.Parallel()
	ctx := NewContext(nil)
	_, err := ctx.Name(1)
	assert.Equal(t, -102, hsi.Status(err))
	_, err = ctx.Name(-1)
	assert.Equal(t, -102, hsi.Status(err))
}

func TestSelectOutOfRangeKeepsSelection(t *testing.T) {
	t.Parallel()
	ctx := NewContext(nil)
	require.NoError(t, ctx.Select(0))

	err := ctx.Select(5)
	assert.Equal(t, -140, hsi.Status(err))
	dev, ok := ctx.Selected()
	assert.True(t, ok)
	assert.Equal(t, "CPU", dev.Name)
}

func TestRefreshWithGPUCandidates(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(2)
	reg.RegisterProber(BackendCUDA, stubProber{cands: []Candidate{{Kind: BackendCUDA, Name: "RTX"}}})
	reg.RegisterProber(BackendOpenCL, stubProber{cands: []Candidate{{Kind: BackendOpenCL, Name: "iGPU"}}})
	ctx := NewContext(reg)

	require.NoError(t, ctx.Refresh(true, false))
	assert.Equal(t, 2, ctx.Count())

	require.NoError(t, ctx.Refresh(true, true))
	require.Equal(t, 3, ctx.Count())
	name, _ := ctx.Name(2)
	assert.Equal(t, "iGPU", name)

	// No CUDA backend registered: listed but not selectable.
	err := ctx.Select(1)
	assert.True(t, errors.Is(err, hsi.ErrDeviceSwitch))

	reg.RegisterBackend(BackendCUDA, BackendFunc(func(c Candidate) (Device, error) {
		return Device{Candidate: c, Workers: 64}, nil
	}))
	require.NoError(t, ctx.Select(1))
	assert.Equal(t, 64, ctx.Workers())
}

func TestRefreshProbeFailure(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(1)
	reg.RegisterProber(BackendCUDA, stubProber{err: errors.New("driver mismatch")})
	reg.RegisterProber(BackendOpenCL, stubProber{err: errors.New("no ICD")})
	ctx := NewContext(reg)

	assert.Equal(t, -141, hsi.Status(ctx.Refresh(true, false)))
	assert.Equal(t, -142, hsi.Status(ctx.Refresh(false, true)))
	assert.Equal(t, 1, ctx.Count(), "failed refresh keeps previous list")
}

func TestBackendInitFailure(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(1)
	reg.RegisterBackend(BackendCPU, BackendFunc(func(Candidate) (Device, error) {
		return Device{}, errors.New("out of memory")
	}))
	ctx := NewContext(reg)
	err := ctx.Select(0)
	assert.Equal(t, -140, hsi.Status(err))
	assert.Contains(t, err.Error(), "out of memory")
}

func TestRefreshFlags(t *testing.T) {
	t.Parallel()
	ctx := NewContext(nil)
	assert.NoError(t, ctx.RefreshFlags(0, 1))
	assert.Equal(t, -143, hsi.Status(ctx.RefreshFlags(2, 0)))
	assert.Equal(t, -143, hsi.Status(ctx.RefreshFlags(0, -1)))
}

func TestLibraryProber(t *testing.T) {
	t.Parallel()
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/usr/lib64/libcuda.so.1", []byte{0x7f})

	reg := DefaultRegistry(mfs, 4)
	ctx := NewContext(reg)
	require.NoError(t, ctx.Refresh(true, true))
	require.Equal(t, 2, ctx.Count())
	name, _ := ctx.Name(1)
	assert.Contains(t, name, "CUDA device 0")

	_, err := (&LibraryProber{Kind: BackendOpenCL}).Probe()
	assert.Error(t, err)
}
