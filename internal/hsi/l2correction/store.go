package l2correction

import (
	"fmt"

	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
)

// Reference is one averaged reference scan, band-major:
// Data[b*Width+s] is band b at spatial position s.
type Reference struct {
	Bands int
	Width int
	Data  []float32
}

// Empty reports whether the reference holds no data.
func (r Reference) Empty() bool { return len(r.Data) == 0 }

// At returns the reference value for band b at spatial position s.
func (r Reference) At(b, s int) float32 { return r.Data[b*r.Width+s] }

// AverageReference collapses a reference scan view to one value per band
// and column by averaging over its lines.
func AverageReference(v l1samples.View) Reference {
	g := v.Geom
	ref := Reference{Bands: g.Bands, Width: g.Width, Data: make([]float32, g.Bands*g.Width)}
	for b := 0; b < g.Bands; b++ {
		for x := 0; x < g.Width; x++ {
			var sum float64
			for y := 0; y < g.Height; y++ {
				sum += float64(v.Sample(x, y, b))
			}
			ref.Data[b*g.Width+x] = float32(sum / float64(g.Height))
		}
	}
	return ref
}

// Store holds a matched dark/white pair and the derived gain table.
// It is immutable once built.
type Store struct {
	Scan  string
	Dark  Reference
	White Reference

	gain []float32 // 1/(white-dark) per band and column, 0 where the span is not positive
}

// NewStore validates the pair and derives the correction function.
func NewStore(scan string, dark, white Reference) (*Store, error) {
	const op = "LoadCorrection"
	if dark.Empty() || white.Empty() {
		return nil, hsi.New(hsi.CodeCorrectionBothRequired, op)
	}
	if dark.Bands != white.Bands || dark.Width != white.Width {
		return nil, hsi.Errorf(hsi.CodeCorrectionMismatch, op,
			"dark %d bands x %d, white %d bands x %d", dark.Bands, dark.Width, white.Bands, white.Width)
	}
	if len(dark.Data) != dark.Bands*dark.Width || len(white.Data) != white.Bands*white.Width {
		return nil, hsi.Errorf(hsi.CodeCorrectionLoad, op, "reference data does not match its geometry")
	}

	gain := make([]float32, len(dark.Data))
	for i := range gain {
		span := white.Data[i] - dark.Data[i]
		if span > 0 {
			gain[i] = 1 / span
		}
	}
	return &Store{Scan: scan, Dark: dark, White: white, gain: gain}, nil
}

// Bands returns the band count of the references.
func (s *Store) Bands() int { return s.Dark.Bands }

// Width returns the spatial size of the references.
func (s *Store) Width() int { return s.Dark.Width }

// Correct applies the correction for band b at spatial position sp.
func (s *Store) Correct(raw float32, b, sp int) float32 {
	i := b*s.Dark.Width + sp
	return (raw - s.Dark.Data[i]) * s.gain[i]
}

func (s *Store) String() string {
	return fmt.Sprintf("correction %q (%d bands x %d)", s.Scan, s.Bands(), s.Width())
}
