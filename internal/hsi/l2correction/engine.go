package l2correction

import (
	"sync"

	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
)

// Engine applies a Store to raw frames and cubes. A nil store makes every
// call an identity transform. Engine is a value; it holds no mutable state.
type Engine struct {
	Store   *Store
	Workers int
}

// Enabled reports whether a correction will be applied.
func (e Engine) Enabled() bool { return e.Store != nil }

// Fits reports whether the loaded references can correct geometry g:
// either one reference column per image column, or one per pixel.
func (e Engine) Fits(g l1samples.Geometry) bool {
	if e.Store == nil {
		return false
	}
	if e.Store.Bands() != g.Bands {
		return false
	}
	w := e.Store.Width()
	return w == g.Width || w == g.Pixels()
}

// Apply corrects v into dst (grown as needed) and returns a float view in
// the same layout. When the engine is disabled or the references do not
// fit v, v is returned unchanged with applied=false.
func (e Engine) Apply(v l1samples.View, dst []float32) (out l1samples.View, applied bool) {
	if !e.Fits(v.Geom) {
		return v, false
	}
	g := v.Geom
	n := g.Samples()
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]

	perPixel := e.Store.Width() != g.Width
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > g.Height {
		workers = g.Height
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for y := w; y < g.Height; y += workers {
				for x := 0; x < g.Width; x++ {
					sp := x
					if perPixel {
						sp = y*g.Width + x
					}
					for b := 0; b < g.Bands; b++ {
						i := v.Layout.Index(g, x, y, b)
						dst[i] = e.Store.Correct(v.Buf.At(i), b, sp)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	return l1samples.View{Buf: l1samples.FloatBuffer(dst), Layout: v.Layout, Geom: g}, true
}
