package l4classify

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
)

const batchPixels = 256

// Engine scores pixels against one model. It is safe for concurrent use;
// all per-call scratch lives in the caller's Result and worker locals.
type Engine struct {
	kind    l3model.ClassifierKind
	bands   int
	classes int
	workers int

	weightsT *mat.Dense // bands x decisions (linear) or bands x decisions of means
	bias     []float64
	meanSq   []float64 // ‖m‖² per decision (nearest mean)
	reject   *l3model.Reject

	regT    *mat.Dense // bands x variables, nil without a regressor
	regBias []float64
}

// New prepares an engine for m using the given worker count.
func New(m *l3model.Model, workers int) (*Engine, error) {
	if m == nil {
		return nil, hsi.New(hsi.CodeClassifierNotLoaded, "NewClassifier")
	}
	if workers < 1 {
		workers = 1
	}
	c := m.Classifier
	e := &Engine{
		kind:    c.Kind,
		bands:   m.Bands,
		classes: m.DecCount(),
		workers: workers,
		reject:  c.Reject,
		bias:    make([]float64, m.DecCount()),
	}

	rows := c.Weights
	if c.Kind == l3model.ClassifierNearestMean {
		rows = c.Means
		e.meanSq = make([]float64, len(rows))
		for k, r := range rows {
			e.meanSq[k] = floats.Dot(r, r)
		}
	} else {
		copy(e.bias, c.Bias)
	}
	e.weightsT = transpose(rows, m.Bands)

	if m.HasRegression() {
		e.regT = transpose(m.Regression.Weights, m.Bands)
		e.regBias = make([]float64, len(m.Regression.Variables))
		copy(e.regBias, m.Regression.Bias)
	}
	return e, nil
}

// transpose packs rows (n x bands) into a bands x n dense matrix.
func transpose(rows [][]float64, bands int) *mat.Dense {
	t := mat.NewDense(bands, len(rows), nil)
	for k, r := range rows {
		for b, v := range r {
			t.Set(b, k, v)
		}
	}
	return t
}

// Variables returns the number of regression planes produced.
func (e *Engine) Variables() int { return len(e.regBias) }

// Workers returns the parallelism used by Classify.
func (e *Engine) Workers() int { return e.workers }

type span struct{ y, x0, x1 int }

// Classify scores every pixel of v inside roi (the whole view when roi is
// nil) and writes decisions and regression planes into res. Pixels outside
// roi receive roi.Outside and a zero regression value.
func (e *Engine) Classify(v l1samples.View, roi *ROI, res *Result) {
	g := v.Geom
	res.reset(g.Width, g.Height, e.Variables())

	x0, y0, x1, y1 := 0, 0, g.Width, g.Height
	if roi != nil {
		x0, y0, x1, y1 = roi.Col, roi.Row, roi.Col+roi.Width, roi.Row+roi.Height
		for i := range res.Decisions {
			x, y := i%g.Width, i/g.Width
			if !roi.Contains(x, y) {
				res.Decisions[i] = roi.Outside
			}
		}
	}

	var spans []span
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x += batchPixels {
			end := x + batchPixels
			if end > x1 {
				end = x1
			}
			spans = append(spans, span{y: y, x0: x, x1: end})
		}
	}

	workers := e.workers
	if workers > len(spans) {
		workers = len(spans)
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			s := newScratch(e.bands)
			for i := w; i < len(spans); i += workers {
				e.scoreSpan(v, spans[i], res, s)
			}
		}(w)
	}
	wg.Wait()
}

type scratch struct {
	x      []float64
	scores mat.Dense
	regs   mat.Dense
}

func newScratch(bands int) *scratch {
	return &scratch{x: make([]float64, batchPixels*bands)}
}

func (e *Engine) scoreSpan(v l1samples.View, sp span, res *Result, s *scratch) {
	n := sp.x1 - sp.x0
	xbuf := s.x[:n*e.bands]
	v.RowSpectra(sp.y, sp.x0, sp.x1, xbuf)
	xs := mat.NewDense(n, e.bands, xbuf)

	s.scores.Reset()
	s.scores.Mul(xs, e.weightsT)

	base := sp.y * v.Geom.Width
	for i := 0; i < n; i++ {
		spectrum := xbuf[i*e.bands : (i+1)*e.bands]
		row := s.scores.RawRowView(i)
		res.Decisions[base+sp.x0+i] = e.decide(spectrum, row)
	}

	if e.regT == nil {
		return
	}
	s.regs.Reset()
	s.regs.Mul(xs, e.regT)
	for i := 0; i < n; i++ {
		row := s.regs.RawRowView(i)
		for k, r := range row {
			res.Regression[k][base+sp.x0+i] = float32(r + e.regBias[k])
		}
	}
}

// decide turns one pixel's raw products into a decision. For the linear
// classifier row holds W·x; for nearest mean it holds x·m per class.
func (e *Engine) decide(spectrum, row []float64) uint8 {
	if e.reject != nil && floats.Sum(spectrum)/float64(len(spectrum)) < e.reject.MinIntensity {
		return uint8(e.reject.Decision)
	}
	switch e.kind {
	case l3model.ClassifierNearestMean:
		// ‖x-m‖² = ‖x‖² - 2x·m + ‖m‖²; ‖x‖² is common to every class.
		best, bestD := 0, math.Inf(1)
		for k, dot := range row {
			d := e.meanSq[k] - 2*dot
			if d < bestD {
				best, bestD = k, d
			}
		}
		return uint8(best)
	default:
		floats.Add(row, e.bias)
		return uint8(floats.MaxIdx(row))
	}
}
