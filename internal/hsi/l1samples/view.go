package l1samples

import "fmt"

// View is a read-only spectral image: a buffer interpreted with a layout
// and geometry. A line-scan frame is a View with Height 1 and layout BIL.
type View struct {
	Buf    Buffer
	Layout Layout
	Geom   Geometry
}

// NewView validates that buf holds at least geom.Samples() values of a
// known type in a known layout.
func NewView(buf Buffer, layout Layout, geom Geometry) (View, error) {
	if !buf.Type.Valid() {
		return View{}, fmt.Errorf("unsupported sample type %s", buf.Type)
	}
	if !layout.Valid() {
		return View{}, fmt.Errorf("unsupported layout %s", layout)
	}
	if !geom.Valid() {
		return View{}, fmt.Errorf("invalid geometry %s", geom)
	}
	if buf.Len() < geom.Samples() {
		return View{}, fmt.Errorf("buffer holds %d samples, geometry %s needs %d", buf.Len(), geom, geom.Samples())
	}
	return View{Buf: buf, Layout: layout, Geom: geom}, nil
}

// FrameView wraps one raw line-scan frame of width pixels by bands.
func FrameView(frame []uint16, width, bands int) (View, error) {
	return NewView(Uint16Buffer(frame), LayoutBIL, Geometry{Width: width, Height: 1, Bands: bands})
}

// Sample returns the value at pixel (x, y), band b.
func (v View) Sample(x, y, b int) float32 {
	return v.Buf.At(v.Layout.Index(v.Geom, x, y, b))
}

// Spectrum copies the spectrum of pixel (x, y) into dst, growing it as
// needed, and returns it.
func (v View) Spectrum(x, y int, dst []float32) []float32 {
	if cap(dst) < v.Geom.Bands {
		dst = make([]float32, v.Geom.Bands)
	}
	dst = dst[:v.Geom.Bands]
	for b := range dst {
		dst[b] = v.Sample(x, y, b)
	}
	return dst
}

// RowSpectra writes pixels x0..x1-1 of row y into dst as a row-major
// (x1-x0) × Bands float64 matrix backing store. dst must have room for
// (x1-x0)*Bands values.
func (v View) RowSpectra(y, x0, x1 int, dst []float64) {
	bands := v.Geom.Bands
	for x := x0; x < x1; x++ {
		row := dst[(x-x0)*bands : (x-x0+1)*bands]
		for b := range row {
			row[b] = float64(v.Sample(x, y, b))
		}
	}
}
