package pipeline

import (
	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
	"github.com/banshee-data/hyperspectral/internal/hsi/l2correction"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
	"github.com/banshee-data/hyperspectral/internal/hsi/l4classify"
	"github.com/banshee-data/hyperspectral/internal/hsi/l5segment"
)

// SetCubeROI restricts cube processing to the rectangle at (col, row) of
// size width x height. Pixels outside receive the outside decision and
// are excluded from segmentation.
func (h *Handle) SetCubeROI(col, row, width, height int, outside uint8) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	const op = "SetCubeROI"
	if err := h.requireModel(op); err != nil {
		return h.done(err)
	}
	if h.model.Kind != l3model.KindSnapshot {
		return h.done(hsi.Errorf(hsi.CodeROIUnsupported, op, "project kind %s", h.model.Kind))
	}
	roi := l4classify.ROI{Col: col, Row: row, Width: width, Height: height, Outside: outside}
	g := h.model.Geometry()
	if err := roi.Validate(g.Width, g.Height); err != nil {
		return h.done(err)
	}
	h.roi = &roi
	return h.done(nil)
}

// ClearCubeROI removes the region of interest.
func (h *Handle) ClearCubeROI() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roi = nil
	h.done(nil)
}

// CubeROI returns the active region of interest, if any.
func (h *Handle) CubeROI() (l4classify.ROI, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.roi == nil {
		return l4classify.ROI{}, false
	}
	return *h.roi, true
}

// ProcessCube corrects (when the references fit the cube), classifies and
// segments one snapshot cube. The object table is replaced by the cube's
// objects. On failure the previous decisions and objects are kept.
func (h *Handle) ProcessCube(buf l1samples.Buffer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	const op = "ProcessCube"

	if buf.IsNil() {
		return h.done(hsi.Errorf(hsi.CodeNullArgument, op, "nil cube"))
	}
	if err := h.requireModel(op); err != nil {
		return h.done(err)
	}
	m := h.model
	if m.Kind == l3model.KindLineScan {
		return h.done(hsi.Errorf(hsi.CodeLineScanCube, op, "project kind %s", m.Kind))
	}
	if m.Kind != l3model.KindSnapshot {
		return h.done(hsi.Errorf(hsi.CodeUnsupportedProject, op, "project kind %s", m.Kind))
	}
	if h.state != StateSnapshotReady {
		return h.done(hsi.Errorf(hsi.CodeAcquisitionStopped, op, "state %s", h.state))
	}
	view, err := l4classify.CubeView(m, buf)
	if err != nil {
		return h.done(err)
	}
	if h.roi != nil {
		if err := h.roi.Validate(view.Geom.Width, view.Geom.Height); err != nil {
			return h.done(err)
		}
	}

	if m.Correction != l3model.CorrectionForbidden {
		corr := l2correction.Engine{Store: h.correction, Workers: h.classifier.Workers()}
		var applied bool
		view, applied = corr.Apply(view, h.corrBuf)
		if applied {
			h.corrBuf = view.Buf.F32
		} else if h.correction != nil {
			h.log.Debug().Str("cube", view.Geom.String()).Msg("correction geometry does not fit cube, skipped")
		}
	}

	h.classifier.Classify(view, h.roi, h.scratch)

	if h.segmentation {
		blobs, err := l5segment.Segment(h.tracker.Config(), h.scratch.Decisions,
			view.Geom.Width, view.Geom.Height, h.roi, h.scratch.Regression)
		if err != nil {
			return h.done(err)
		}
		recs := h.records(blobs)
		if len(recs) > h.objects.Capacity() {
			return h.done(hsi.Errorf(hsi.CodeObjectLimit, op, "%d objects, capacity %d", len(recs), h.objects.Capacity()))
		}
		h.objects.Reset(m.Mask)
		if err := h.objects.Append(recs...); err != nil {
			return h.done(err)
		}
		h.publish(recs)
	} else {
		h.objects.Reset(m.Mask)
	}

	h.result, h.scratch = h.scratch, h.result
	return h.done(nil)
}

// CubeDecisions returns the decision mask of the last cube, row-major.
// The slice is owned by the handle and valid until the next cube.
func (h *Handle) CubeDecisions() ([]uint8, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	const op = "GetCubeDecisions"
	if err := h.requireKind(op, l3model.KindSnapshot); err != nil {
		return nil, h.done(err)
	}
	if h.result.Empty() {
		return nil, h.done(hsi.New(hsi.CodeNoLabelImage, op))
	}
	return h.result.Decisions, h.done(nil)
}

// CubeRegression returns a copy of regression plane v of the last cube.
func (h *Handle) CubeRegression(v int, mask bool, fill float32) ([]float32, error) {
	return h.regression("GetCubeRegression", l3model.KindSnapshot, v, mask, fill)
}
