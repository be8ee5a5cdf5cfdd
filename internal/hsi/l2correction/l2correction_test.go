package l2correction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/hyperspectral/internal/fsutil"
	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
)

// writeScan stores a uint16 BIL correction scan with constant dark and
// white levels.
func writeScan(t *testing.T, fsys *fsutil.MemoryFileSystem, name string, darkBands, whiteBands, width, lines int, darkLevel, whiteLevel uint16) {
	t.Helper()
	fill := func(bands int, v uint16) []byte {
		buf := make([]uint16, width*bands*lines)
		for i := range buf {
			buf[i] = v
		}
		return l1samples.EncodeLE(l1samples.Uint16Buffer(buf))
	}
	fsys.WriteFile("/cal/"+name+"_dark.raw", fill(darkBands, darkLevel))
	fsys.WriteFile("/cal/"+name+"_white.raw", fill(whiteBands, whiteLevel))

	meta := ScanMeta{
		DataType:   "uint16",
		DataLayout: "BIL",
		Dark:       &ReferenceMeta{File: name + "_dark.raw", Width: width, Bands: darkBands, Lines: lines},
		White:      &ReferenceMeta{File: name + "_white.raw", Width: width, Bands: whiteBands, Lines: lines},
	}
	raw, err := json.Marshal(meta)
	require.NoError(t, err)
	fsys.WriteFile("/cal/"+name+".json", raw)
}

func TestLoadAveragesReferences(t *testing.T) {
	t.Parallel()
	fsys := fsutil.NewMemoryFileSystem()
	writeScan(t, fsys, "scan1", 3, 3, 4, 5, 100, 1100)

	store, err := Load(fsys, "/cal", "scan1")
	require.NoError(t, err)
	assert.Equal(t, 3, store.Bands())
	assert.Equal(t, 4, store.Width())
	assert.InDelta(t, 100, store.Dark.At(2, 3), 1e-6)
	assert.InDelta(t, 1100, store.White.At(0, 0), 1e-6)
	assert.InDelta(t, 0.5, store.Correct(600, 1, 1), 1e-6)
}

func TestLoadMismatchedBands(t *testing.T) {
	t.Parallel()
	fsys := fsutil.NewMemoryFileSystem()
	writeScan(t, fsys, "bad", 3, 4, 4, 2, 10, 20)

	store, err := Load(fsys, "/cal", "bad")
	assert.Nil(t, store)
	assert.Equal(t, -132, hsi.Status(err))
}

func TestLoadFailures(t *testing.T) {
	t.Parallel()

	t.Run("missing metadata", func(t *testing.T) {
		_, err := Load(fsutil.NewMemoryFileSystem(), "/cal", "none")
		assert.Equal(t, -137, hsi.Status(err))
	})

	t.Run("empty arguments", func(t *testing.T) {
		_, err := Load(fsutil.NewMemoryFileSystem(), "", "x")
		assert.Equal(t, -101, hsi.Status(err))
	})

	t.Run("bad json", func(t *testing.T) {
		fsys := fsutil.NewMemoryFileSystem()
		fsys.WriteFile("/cal/x.json", []byte("{"))
		_, err := Load(fsys, "/cal", "x")
		assert.Equal(t, -130, hsi.Status(err))
	})

	t.Run("white not listed", func(t *testing.T) {
		fsys := fsutil.NewMemoryFileSystem()
		fsys.WriteFile("/cal/x.json", []byte(`{"data_type":"uint16","data_layout":"BIL","dark":{"file":"d.raw","width":1,"bands":1}}`))
		_, err := Load(fsys, "/cal", "x")
		assert.Equal(t, -134, hsi.Status(err))
	})

	t.Run("reference file absent", func(t *testing.T) {
		fsys := fsutil.NewMemoryFileSystem()
		writeScan(t, fsys, "x", 2, 2, 2, 1, 0, 10)
		raw, _ := fsys.ReadFile("/cal/x.json")
		fsys.WriteFile("/cal/y.json", raw)
		_, err := Load(fsys, "/cal", "y.json")
		require.NoError(t, err)

		fsys2 := fsutil.NewMemoryFileSystem()
		fsys2.WriteFile("/cal/y.json", raw)
		_, err = Load(fsys2, "/cal", "y")
		assert.Equal(t, -135, hsi.Status(err))
	})

	t.Run("unsupported type", func(t *testing.T) {
		fsys := fsutil.NewMemoryFileSystem()
		fsys.WriteFile("/cal/x.json", []byte(`{"data_type":"uint8","data_layout":"BIL","dark":{"file":"d"},"white":{"file":"w"}}`))
		_, err := Load(fsys, "/cal", "x")
		assert.Equal(t, -136, hsi.Status(err))
	})

	t.Run("short dark file", func(t *testing.T) {
		fsys := fsutil.NewMemoryFileSystem()
		writeScan(t, fsys, "x", 2, 2, 2, 1, 0, 10)
		fsys.WriteFile("/cal/x_dark.raw", []byte{1, 0})
		_, err := Load(fsys, "/cal", "x")
		assert.Equal(t, -131, hsi.Status(err))
	})
}

func TestNewStoreRequiresBoth(t *testing.T) {
	t.Parallel()
	_, err := NewStore("s", Reference{}, Reference{Bands: 1, Width: 1, Data: []float32{1}})
	assert.Equal(t, -134, hsi.Status(err))
}

func TestEngineIdentityWithoutStore(t *testing.T) {
	t.Parallel()
	v, err := l1samples.FrameView([]uint16{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)

	out, applied := Engine{}.Apply(v, nil)
	assert.False(t, applied)
	assert.Equal(t, v, out)
}

func TestEngineAppliesPerColumn(t *testing.T) {
	t.Parallel()
	// 2 bands x 2 columns, dark 0..3, white dark+10.
	dark := Reference{Bands: 2, Width: 2, Data: []float32{0, 1, 2, 3}}
	white := Reference{Bands: 2, Width: 2, Data: []float32{10, 11, 12, 13}}
	store, err := NewStore("s", dark, white)
	require.NoError(t, err)

	// BIL frame: band 0 row then band 1 row.
	v, err := l1samples.FrameView([]uint16{5, 6, 7, 8}, 2, 2)
	require.NoError(t, err)

	out, applied := Engine{Store: store, Workers: 4}.Apply(v, nil)
	require.True(t, applied)
	assert.Equal(t, l1samples.DataTypeFloat, out.Buf.Type)
	assert.InDelta(t, 0.5, out.Sample(0, 0, 0), 1e-6)
	assert.InDelta(t, 0.5, out.Sample(1, 0, 0), 1e-6)
	assert.InDelta(t, 0.5, out.Sample(0, 0, 1), 1e-6)
	assert.InDelta(t, 0.5, out.Sample(1, 0, 1), 1e-6)
}

func TestEngineSkipsUnfittingGeometry(t *testing.T) {
	t.Parallel()
	ref := Reference{Bands: 1, Width: 3, Data: []float32{0, 0, 0}}
	store, err := NewStore("s", ref, Reference{Bands: 1, Width: 3, Data: []float32{1, 1, 1}})
	require.NoError(t, err)

	v, err := l1samples.FrameView([]uint16{1, 2}, 2, 1)
	require.NoError(t, err)
	_, applied := Engine{Store: store}.Apply(v, nil)
	assert.False(t, applied)
}

func TestEnginePerPixelReference(t *testing.T) {
	t.Parallel()
	// 2x2 image, one band, one reference value per pixel.
	dark := Reference{Bands: 1, Width: 4, Data: []float32{0, 0, 0, 100}}
	white := Reference{Bands: 1, Width: 4, Data: []float32{10, 10, 10, 200}}
	store, err := NewStore("s", dark, white)
	require.NoError(t, err)

	v, err := l1samples.NewView(l1samples.FloatBuffer([]float32{5, 5, 5, 150}), l1samples.LayoutBSQ,
		l1samples.Geometry{Width: 2, Height: 2, Bands: 1})
	require.NoError(t, err)

	out, applied := Engine{Store: store, Workers: 2}.Apply(v, nil)
	require.True(t, applied)
	assert.InDelta(t, 0.5, out.Sample(1, 1, 0), 1e-6)
	assert.InDelta(t, 0.5, out.Sample(0, 1, 0), 1e-6)
}

func TestDeadColumnCorrectsToZero(t *testing.T) {
	t.Parallel()
	ref := Reference{Bands: 1, Width: 1, Data: []float32{5}}
	store, err := NewStore("s", ref, ref)
	require.NoError(t, err)
	assert.Equal(t, float32(0), store.Correct(100, 0, 0))
}
