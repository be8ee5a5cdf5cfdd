package l5segment

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
)

// Config holds segmentation parameters for one acquisition.
type Config struct {
	MinSize      int // objects smaller than this are discarded
	Connectivity int // 4 or 8
	MaxOpen      int // bound on simultaneously open streaming objects
	Policy       l3model.MaskPolicy
	Foreground   []bool // indexed by decision
	Classes      int    // decision count
	Variables    int    // regression variables per pixel
	KeepValues   bool   // retain per-pixel regression values (median summary)
}

func (c Config) isForeground(d uint8) bool {
	return int(d) < len(c.Foreground) && c.Foreground[d]
}

// slack is the column tolerance when matching runs across rows.
func (c Config) slack() int {
	if c.Connectivity == 4 {
		return 0
	}
	return 1
}

// Blob accumulates the statistics of one object. Frames are line-scan
// frame indexes in streaming mode and cube rows in snapshot mode.
type Blob struct {
	ID         int
	FirstFrame int
	LastFrame  int
	EndFrame   int // frame index at which the object was finalised
	MinCol     int
	MaxCol     int
	Size       int
	ClassSizes []int
	RegSum     []float64
	RegValues  [][]float32

	sumCol int64
}

func newBlob(id int, cfg Config, frame int) *Blob {
	b := &Blob{
		ID:         id,
		FirstFrame: frame,
		LastFrame:  frame,
		MinCol:     math.MaxInt,
		MaxCol:     -1,
		ClassSizes: make([]int, cfg.Classes),
		RegSum:     make([]float64, cfg.Variables),
	}
	if cfg.KeepValues {
		b.RegValues = make([][]float32, cfg.Variables)
	}
	return b
}

// Position returns the centroid column, rounded to the nearest pixel.
func (b *Blob) Position() int {
	if b.Size == 0 {
		return 0
	}
	return int(math.Round(float64(b.sumCol) / float64(b.Size)))
}

// Dominant returns the decision with the most pixels; ties go to the
// lower index.
func (b *Blob) Dominant() int {
	best := 0
	for c, n := range b.ClassSizes {
		if n > b.ClassSizes[best] {
			best = c
		}
	}
	return best
}

// RegMean returns the mean of each regression variable over the object.
func (b *Blob) RegMean() []float64 {
	out := make([]float64, len(b.RegSum))
	if b.Size == 0 {
		return out
	}
	for k, s := range b.RegSum {
		out[k] = s / float64(b.Size)
	}
	return out
}

// RegMedian returns the per-variable median. It falls back to the mean
// when per-pixel values were not retained.
func (b *Blob) RegMedian() []float64 {
	if b.RegValues == nil {
		return b.RegMean()
	}
	out := make([]float64, len(b.RegValues))
	for k, vals := range b.RegValues {
		if len(vals) == 0 {
			continue
		}
		xs := make([]float64, len(vals))
		for i, v := range vals {
			xs[i] = float64(v)
		}
		sort.Float64s(xs)
		out[k] = stat.Quantile(0.5, stat.Empirical, xs, nil)
	}
	return out
}

// addRow adds pixels x0..x1-1 of a row. decisions and regression planes
// are indexed from base.
func (b *Blob) addRow(frame, x0, x1, base int, decisions []uint8, regression [][]float32) {
	if frame < b.FirstFrame {
		b.FirstFrame = frame
	}
	if frame > b.LastFrame {
		b.LastFrame = frame
	}
	if x0 < b.MinCol {
		b.MinCol = x0
	}
	if x1-1 > b.MaxCol {
		b.MaxCol = x1 - 1
	}
	for x := x0; x < x1; x++ {
		b.Size++
		b.sumCol += int64(x)
		if d := int(decisions[base+x]); d < len(b.ClassSizes) {
			b.ClassSizes[d]++
		}
		for k, plane := range regression {
			if k >= len(b.RegSum) {
				break
			}
			v := plane[base+x]
			b.RegSum[k] += float64(v)
			if b.RegValues != nil {
				b.RegValues[k] = append(b.RegValues[k], v)
			}
		}
	}
}

// absorb merges o into b.
func (b *Blob) absorb(o *Blob) {
	if o.FirstFrame < b.FirstFrame {
		b.FirstFrame = o.FirstFrame
	}
	if o.LastFrame > b.LastFrame {
		b.LastFrame = o.LastFrame
	}
	if o.MinCol < b.MinCol {
		b.MinCol = o.MinCol
	}
	if o.MaxCol > b.MaxCol {
		b.MaxCol = o.MaxCol
	}
	b.Size += o.Size
	b.sumCol += o.sumCol
	for c, n := range o.ClassSizes {
		b.ClassSizes[c] += n
	}
	for k, s := range o.RegSum {
		b.RegSum[k] += s
	}
	for k, vals := range o.RegValues {
		b.RegValues[k] = append(b.RegValues[k], vals...)
	}
}

func (b *Blob) clone() *Blob {
	c := *b
	c.ClassSizes = append([]int(nil), b.ClassSizes...)
	c.RegSum = append([]float64(nil), b.RegSum...)
	if b.RegValues != nil {
		c.RegValues = make([][]float32, len(b.RegValues))
		for k, vals := range b.RegValues {
			c.RegValues[k] = append([]float32(nil), vals...)
		}
	}
	return &c
}
