package pipeline

import (
	"github.com/google/uuid"

	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
	"github.com/banshee-data/hyperspectral/internal/hsi/l2correction"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
	"github.com/banshee-data/hyperspectral/internal/hsi/l4classify"
	"github.com/banshee-data/hyperspectral/internal/hsi/l5segment"
	"github.com/banshee-data/hyperspectral/internal/hsi/l6objects"
)

// StartAcquisition validates the setup and enters Streaming (line-scan
// projects) or SnapshotReady (snapshot projects). The object table is
// emptied and a new run id is issued.
func (h *Handle) StartAcquisition() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	const op = "StartAcquisition"

	if h.running() {
		return h.done(hsi.Errorf(hsi.CodeAcquisitionRunning, op, "state %s", h.state))
	}
	dev, ok := h.devices.Selected()
	if !ok {
		return h.done(hsi.Errorf(hsi.CodeDeviceSwitch, op, "no device selected"))
	}
	if err := h.requireModel(op); err != nil {
		return h.done(err)
	}
	m := h.model
	if !m.Layout.Valid() {
		return h.done(hsi.New(hsi.CodeLayoutNotSet, op))
	}
	if !m.DataType.Valid() {
		return h.done(hsi.New(hsi.CodeDataTypeNotSet, op))
	}
	if h.segmentation && m.Mask == l3model.MaskUndefined {
		return h.done(hsi.Errorf(hsi.CodeSegmentationCannotProceed, op, "segmentation enabled but mask policy undefined"))
	}
	if m.Width <= 0 || m.Bands <= 0 {
		return h.done(hsi.Errorf(hsi.CodeLabelGeometry, op, "input geometry %s", m.Geometry()))
	}
	if m.Correction == l3model.CorrectionRequired && h.correction == nil {
		return h.done(hsi.New(hsi.CodeCorrectionNotLoaded, op))
	}
	if h.correction != nil && m.Correction != l3model.CorrectionForbidden {
		g := m.Geometry()
		eng := l2correction.Engine{Store: h.correction}
		if m.Kind == l3model.KindLineScan && !eng.Fits(g) || m.Kind == l3model.KindSnapshot && h.correction.Bands() != g.Bands {
			return h.done(hsi.Errorf(hsi.CodeCorrectionMismatch, op, "%s, model input %s", h.correction, g))
		}
	}

	engine, err := l4classify.New(m, dev.Workers)
	if err != nil {
		return h.done(err)
	}
	h.classifier = engine

	h.tracker = l5segment.NewTracker(h.segmentConfig())
	h.objects.Reset(m.Mask)
	h.clearOutputs()
	h.runID = uuid.New()
	if m.Kind == l3model.KindLineScan {
		h.state = StateStreaming
	} else {
		h.state = StateSnapshotReady
	}
	h.log.Info().Str("run", h.runID.String()).Str("state", h.state.String()).
		Bool("segmentation", h.segmentation).Bool("correction", h.correction != nil).Msg("acquisition started")
	return h.done(nil)
}

func (h *Handle) segmentConfig() l5segment.Config {
	vars := 0
	if h.model.HasRegression() {
		vars = len(h.model.Regression.Variables)
	}
	return l5segment.Config{
		MinSize:      h.minSize,
		Connectivity: h.cfg.GetConnectivity(),
		MaxOpen:      h.cfg.GetMaxOpenObjects(),
		Policy:       h.model.Mask,
		Foreground:   append([]bool(nil), h.foreground...),
		Classes:      h.model.DecCount(),
		Variables:    vars,
		KeepValues:   h.summary == l6objects.SummaryMedian,
	}
}

// StopAcquisition leaves Streaming or SnapshotReady. Objects still open
// are force-closed as they are and stored if they meet the minimum size.
func (h *Handle) StopAcquisition() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running() {
		return h.done(hsi.New(hsi.CodeAcquisitionStopped, "StopAcquisition"))
	}
	return h.done(h.stopLocked())
}

func (h *Handle) stopLocked() error {
	var err error
	if h.state == StateStreaming && h.segmentation && h.tracker != nil {
		open := h.tracker.OpenCount()
		closed := h.tracker.Flush()
		recs := h.records(closed)
		if room := h.objects.Room(); len(recs) > room {
			err = hsi.Errorf(hsi.CodeObjectLimit, "StopAcquisition",
				"%d force-closed objects, room for %d; %d dropped", len(recs), room, len(recs)-room)
			recs = recs[:room]
		}
		if appendErr := h.objects.Append(recs...); appendErr == nil {
			h.publish(recs)
		}
		h.log.Info().Int("open", open).Int("finalised", len(recs)).Msg("force-closed open objects on stop")
	}
	h.log.Info().Str("run", h.runID.String()).Int("objects", h.objects.Count()).Msg("acquisition stopped")
	h.state = StateIdle
	return err
}

func (h *Handle) records(blobs []l5segment.Blob) []l6objects.Record {
	recs := make([]l6objects.Record, len(blobs))
	for i, b := range blobs {
		recs[i] = l6objects.FromBlob(b, h.summary)
	}
	return recs
}

func (h *Handle) publish(recs []l6objects.Record) {
	if h.sink == nil {
		return
	}
	for _, r := range recs {
		if err := h.sink.Record(h.runID, r); err != nil {
			h.log.Warn().Err(err).Int("object", r.ID).Msg("object sink failed")
		}
	}
}

// ProcessFrame corrects, classifies and segments one raw uint16 BIL
// frame. On failure the previous decisions and object table are kept.
func (h *Handle) ProcessFrame(frame []uint16) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	const op = "ProcessFrame"

	if frame == nil {
		return h.done(hsi.Errorf(hsi.CodeNullArgument, op, "nil frame"))
	}
	if err := h.requireModel(op); err != nil {
		return h.done(err)
	}
	m := h.model
	if m.Kind != l3model.KindLineScan {
		return h.done(hsi.Errorf(hsi.CodeFrameOnSnapshot, op, "project kind %s", m.Kind))
	}
	if h.state != StateStreaming {
		return h.done(hsi.Errorf(hsi.CodeAcquisitionStopped, op, "state %s", h.state))
	}
	if err := l4classify.ValidateFrameModel(m); err != nil {
		return h.done(err)
	}
	if m.Correction == l3model.CorrectionForbidden && h.correction != nil {
		return h.done(hsi.Errorf(hsi.CodeFrameCorrection, op, "project forbids correction but %s is loaded", h.correction))
	}
	need := m.Width * m.Bands
	if len(frame) < need {
		return h.done(hsi.Errorf(hsi.CodeNullArgument, op, "frame holds %d samples, need %d", len(frame), need))
	}

	view, err := l1samples.FrameView(frame[:need], m.Width, m.Bands)
	if err != nil {
		return h.done(hsi.Wrap(hsi.CodeGeneric, op, err))
	}
	corr := l2correction.Engine{Store: h.correction, Workers: h.classifier.Workers()}
	view, _ = corr.Apply(view, h.corrBuf)
	if view.Buf.Type == l1samples.DataTypeFloat {
		h.corrBuf = view.Buf.F32
	}

	h.classifier.Classify(view, nil, h.scratch)

	if h.segmentation {
		closed, err := h.tracker.StepWithin(h.scratch.Decisions, h.scratch.Regression, h.objects.Room())
		if err != nil {
			return h.done(err)
		}
		recs := h.records(closed)
		if err := h.objects.Append(recs...); err != nil {
			return h.done(err)
		}
		h.publish(recs)
	}

	h.result, h.scratch = h.scratch, h.result
	return h.done(nil)
}

// FrameDecisions returns the decision row of the last processed frame.
// The slice is owned by the handle and valid until the next frame.
func (h *Handle) FrameDecisions() ([]uint8, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	const op = "GetFrameDecisions"
	if err := h.requireKind(op, l3model.KindLineScan); err != nil {
		return nil, h.done(err)
	}
	if h.result.Empty() {
		return nil, h.done(hsi.New(hsi.CodeNoLabelImage, op))
	}
	return h.result.Decisions, h.done(nil)
}

// FrameRegression returns a copy of regression plane v of the last frame.
// With mask set, non-foreground pixels are replaced by fill.
func (h *Handle) FrameRegression(v int, mask bool, fill float32) ([]float32, error) {
	return h.regression("GetFrameRegression", l3model.KindLineScan, v, mask, fill)
}

func (h *Handle) requireKind(op string, want l3model.Kind) error {
	if err := h.requireModel(op); err != nil {
		return err
	}
	if h.model.Kind == want {
		return nil
	}
	if want == l3model.KindLineScan {
		return hsi.Errorf(hsi.CodeFrameOnSnapshot, op, "project kind %s", h.model.Kind)
	}
	return hsi.Errorf(hsi.CodeCubeOnLineScan, op, "project kind %s", h.model.Kind)
}

func (h *Handle) regression(op string, kind l3model.Kind, v int, mask bool, fill float32) ([]float32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireKind(op, kind); err != nil {
		return nil, h.done(err)
	}
	if !h.model.HasRegression() {
		return nil, h.done(hsi.New(hsi.CodeNoRegression, op))
	}
	if v < 0 || v >= len(h.model.Regression.Variables) {
		return nil, h.done(hsi.Errorf(hsi.CodeRegVarIndex, op, "index %d of %d", v, len(h.model.Regression.Variables)))
	}
	if mask && !h.segmentation {
		return nil, h.done(hsi.New(hsi.CodeRegMaskNoSegmentation, op))
	}
	if h.result.Empty() {
		return nil, h.done(hsi.New(hsi.CodeNoLabelImage, op))
	}
	plane, err := h.result.Plane(v, h.foreground, mask, fill)
	return plane, h.done(err)
}
