package l4classify

import (
	"github.com/banshee-data/hyperspectral/internal/hsi"
)

// ROI is a rectangular region of interest. Pixels outside it are not
// classified and receive Outside as their decision.
type ROI struct {
	Col, Row      int
	Width, Height int
	Outside       uint8
}

// Contains reports whether pixel (x, y) lies inside the rectangle.
func (r ROI) Contains(x, y int) bool {
	return x >= r.Col && x < r.Col+r.Width && y >= r.Row && y < r.Row+r.Height
}

// Validate checks the rectangle lies within a width x height image.
func (r ROI) Validate(width, height int) error {
	if r.Col < 0 || r.Row < 0 || r.Width <= 0 || r.Height <= 0 ||
		r.Col+r.Width > width || r.Row+r.Height > height {
		return hsi.Errorf(hsi.CodeInvalidROI, "SetCubeROI",
			"(%d,%d %dx%d) outside %dx%d", r.Col, r.Row, r.Width, r.Height, width, height)
	}
	return nil
}

// Result is the output of one Classify call. Decisions is row-major
// width x height; Regression holds one plane of the same size per
// variable.
type Result struct {
	Width, Height int
	Decisions     []uint8
	Regression    [][]float32
}

func (r *Result) reset(width, height, vars int) {
	n := width * height
	r.Width, r.Height = width, height
	if cap(r.Decisions) < n {
		r.Decisions = make([]uint8, n)
	}
	r.Decisions = r.Decisions[:n]
	clear(r.Decisions)

	if cap(r.Regression) < vars {
		r.Regression = make([][]float32, vars)
	}
	r.Regression = r.Regression[:vars]
	for k := range r.Regression {
		if cap(r.Regression[k]) < n {
			r.Regression[k] = make([]float32, n)
		}
		r.Regression[k] = r.Regression[k][:n]
		clear(r.Regression[k])
	}
}

// Empty reports whether no classification has been stored.
func (r *Result) Empty() bool { return r == nil || len(r.Decisions) == 0 }

// Clone returns a deep copy.
func (r *Result) Clone() *Result {
	out := &Result{Width: r.Width, Height: r.Height, Decisions: append([]uint8(nil), r.Decisions...)}
	out.Regression = make([][]float32, len(r.Regression))
	for k, p := range r.Regression {
		out.Regression[k] = append([]float32(nil), p...)
	}
	return out
}

// Plane returns a copy of regression plane v. With mask set, pixels whose
// decision is not a foreground class are replaced by fill.
func (r *Result) Plane(v int, foreground []bool, mask bool, fill float32) ([]float32, error) {
	const op = "GetRegression"
	if len(r.Regression) == 0 {
		return nil, hsi.New(hsi.CodeNoRegression, op)
	}
	if v < 0 || v >= len(r.Regression) {
		return nil, hsi.Errorf(hsi.CodeRegVarIndex, op, "index %d of %d", v, len(r.Regression))
	}
	out := append([]float32(nil), r.Regression[v]...)
	if !mask {
		return out, nil
	}
	for i, d := range r.Decisions {
		if int(d) >= len(foreground) || !foreground[d] {
			out[i] = fill
		}
	}
	return out, nil
}
