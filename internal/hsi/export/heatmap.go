package export

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// planeGrid adapts a row-major float plane to plotter.GridXYZ.
type planeGrid struct {
	plane         []float32
	width, height int
}

func (g planeGrid) Dims() (c, r int)   { return g.width, g.height }
func (g planeGrid) Z(c, r int) float64 { return float64(g.plane[r*g.width+c]) }
func (g planeGrid) X(c int) float64    { return float64(c) }
func (g planeGrid) Y(r int) float64    { return float64(r) }

// RegressionHeatmap plots a regression plane as a PNG heatmap.
func RegressionHeatmap(w io.Writer, plane []float32, width, height int, title string) error {
	if width <= 0 || height <= 0 || len(plane) < width*height {
		return fmt.Errorf("plane of %d values does not cover %dx%d", len(plane), width, height)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row"

	hm := plotter.NewHeatMap(planeGrid{plane: plane, width: width, height: height}, palette.Heat(32, 1))
	p.Add(hm)

	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
