// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files: status assertions plus synthetic projects, frames
// and cubes with predictable classifier output.
//
// Synthetic projects use a linear classifier where decision 0 is the
// background (bias 0.5, zero weights) and decision k >= 1 scores the
// value of band k-1. A pixel whose only lit band is k-1 therefore
// classifies as k, and an all-zero pixel classifies as 0.
package testutil

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/banshee-data/hyperspectral/internal/fsutil"
	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertStatus checks the integer status carried by err.
func AssertStatus(t testing.TB, err error, want int) {
	t.Helper()
	if got := hsi.Status(err); got != want {
		t.Errorf("status = %d, want %d (err: %v)", got, want, err)
	}
}

// ProjectSpec describes a synthetic project document.
type ProjectSpec struct {
	Kind       string // "line-scan" or "snapshot"
	Width      int
	Height     int
	Bands      int
	DataType   string
	Layout     string
	Mask       string
	Correction string
	Decisions  int      // including the background decision 0
	Regression []string // variable i reports mean intensity + i
	Reject     *float64 // optional reject threshold mapped to decision 0
}

// LineScan returns the common line-scan fixture: uint16 BIL with the
// given width, bands and decision count, all foreground decisions joined.
func LineScan(width, bands, decisions int) ProjectSpec {
	return ProjectSpec{
		Kind:      "line-scan",
		Width:     width,
		Bands:     bands,
		DataType:  "uint16",
		Layout:    "BIL",
		Mask:      "all_foreground",
		Decisions: decisions,
	}
}

// Snapshot returns a snapshot fixture in the given type and layout.
func Snapshot(width, height, bands, decisions int, dataType, layout string) ProjectSpec {
	return ProjectSpec{
		Kind:      "snapshot",
		Width:     width,
		Height:    height,
		Bands:     bands,
		DataType:  dataType,
		Layout:    layout,
		Mask:      "all_foreground",
		Decisions: decisions,
	}
}

// ProjectJSON renders s as a project document.
func ProjectJSON(s ProjectSpec) []byte {
	decisions := make([]map[string]any, s.Decisions)
	weights := make([][]float64, s.Decisions)
	bias := make([]float64, s.Decisions)
	for k := range decisions {
		decisions[k] = map[string]any{
			"name":       fmt.Sprintf("class%d", k),
			"color":      []int{(k * 80) % 256, (k * 160) % 256, 255 - (k*40)%256},
			"foreground": k > 0,
		}
		weights[k] = make([]float64, s.Bands)
		if k == 0 {
			bias[k] = 0.5
		} else {
			weights[k][(k-1)%s.Bands] = 1
		}
	}
	if s.Decisions > 0 {
		decisions[0]["name"] = "background"
	}

	classifier := map[string]any{"type": "linear", "weights": weights, "bias": bias}
	if s.Reject != nil {
		classifier["reject"] = map[string]any{"min_intensity": *s.Reject, "decision": 0}
	}

	doc := map[string]any{
		"format":  "mira-project",
		"version": 1,
		"name":    "synthetic",
		"project": map[string]any{
			"kind":        s.Kind,
			"width":       s.Width,
			"height":      s.Height,
			"bands":       s.Bands,
			"data_type":   s.DataType,
			"data_layout": s.Layout,
			"mask":        s.Mask,
			"correction":  s.Correction,
		},
		"decisions":  decisions,
		"classifier": classifier,
	}
	if len(s.Regression) > 0 {
		rw := make([][]float64, len(s.Regression))
		rb := make([]float64, len(s.Regression))
		for i := range rw {
			rw[i] = make([]float64, s.Bands)
			for b := range rw[i] {
				rw[i][b] = 1 / float64(s.Bands)
			}
			rb[i] = float64(i)
		}
		doc["regression"] = map[string]any{"variables": s.Regression, "weights": rw, "bias": rb}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return raw
}

// WriteProject stores s at path in fsys.
func WriteProject(fsys *fsutil.MemoryFileSystem, path string, s ProjectSpec) {
	fsys.WriteFile(path, ProjectJSON(s))
}

// Frame builds raw uint16 BIL line-scan frames.
type Frame struct {
	Width, Bands int
	Data         []uint16
}

// NewFrame returns an all-zero frame.
func NewFrame(width, bands int) *Frame {
	return &Frame{Width: width, Bands: bands, Data: make([]uint16, width*bands)}
}

// Paint lights band class-1 for pixels x0..x1-1 so they classify as class.
func (f *Frame) Paint(x0, x1, class int, v uint16) *Frame {
	b := (class - 1) % f.Bands
	for x := x0; x < x1; x++ {
		f.Data[b*f.Width+x] = v
	}
	return f
}

// Cube builds snapshot cubes of any supported type and layout.
type Cube struct {
	Geom   l1samples.Geometry
	Layout l1samples.Layout
	vals   []float32
}

// NewCube returns an all-zero cube.
func NewCube(g l1samples.Geometry, layout l1samples.Layout) *Cube {
	return &Cube{Geom: g, Layout: layout, vals: make([]float32, g.Samples())}
}

// Paint lights band class-1 for the rectangle [x0,x1)x[y0,y1).
func (c *Cube) Paint(x0, y0, x1, y1, class int, v float32) *Cube {
	b := (class - 1) % c.Geom.Bands
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c.vals[c.Layout.Index(c.Geom, x, y, b)] = v
		}
	}
	return c
}

// Buffer renders the cube as a buffer of type t.
func (c *Cube) Buffer(t l1samples.DataType) l1samples.Buffer {
	switch t {
	case l1samples.DataTypeUint16:
		out := make([]uint16, len(c.vals))
		for i, v := range c.vals {
			out[i] = uint16(v)
		}
		return l1samples.Uint16Buffer(out)
	case l1samples.DataTypeUint8:
		out := make([]uint8, len(c.vals))
		for i, v := range c.vals {
			out[i] = uint8(v)
		}
		return l1samples.Uint8Buffer(out)
	default:
		return l1samples.FloatBuffer(append([]float32(nil), c.vals...))
	}
}

// WriteCorrectionScan stores a uint16 BIL correction scan named scan in
// dir with constant dark and white levels. Dark and white may differ in
// band count to produce a mismatched pair.
func WriteCorrectionScan(fsys *fsutil.MemoryFileSystem, dir, scan string, width, darkBands, whiteBands int, dark, white uint16) {
	fill := func(bands int, v uint16) []byte {
		buf := make([]uint16, width*bands)
		for i := range buf {
			buf[i] = v
		}
		return l1samples.EncodeLE(l1samples.Uint16Buffer(buf))
	}
	fsys.WriteFile(dir+"/"+scan+"_dark.raw", fill(darkBands, dark))
	fsys.WriteFile(dir+"/"+scan+"_white.raw", fill(whiteBands, white))

	meta := map[string]any{
		"data_type":   "uint16",
		"data_layout": "BIL",
		"dark":        map[string]any{"file": scan + "_dark.raw", "width": width, "bands": darkBands, "lines": 1},
		"white":       map[string]any{"file": scan + "_white.raw", "width": width, "bands": whiteBands, "lines": 1},
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		panic(err)
	}
	fsys.WriteFile(dir+"/"+scan+".json", raw)
}
