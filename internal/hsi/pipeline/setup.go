package pipeline

import (
	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
	"github.com/banshee-data/hyperspectral/internal/hsi/l2correction"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
)

// RefreshDeviceList re-enumerates compute backends. Flags must be 0 or 1.
func (h *Handle) RefreshDeviceList(listCUDA, listOpenCL int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireIdle("RefreshDeviceList"); err != nil {
		return h.done(err)
	}
	return h.done(h.devices.RefreshFlags(listCUDA, listOpenCL))
}

// DeviceCount returns the number of enumerated backends.
func (h *Handle) DeviceCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done(nil)
	return h.devices.Count()
}

// DeviceName returns the name of backend i.
func (h *Handle) DeviceName(i int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	name, err := h.devices.Name(i)
	return name, h.done(err)
}

// SetDevice binds the handle to backend i. Any loaded model and
// correction are discarded and must be loaded again once a switch is
// attempted, even if the backend fails to initialise. An index outside
// the device list is rejected before anything is touched.
func (h *Handle) SetDevice(i int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireIdle("SetDevice"); err != nil {
		return h.done(err)
	}
	if i < 0 || i >= h.devices.Count() {
		return h.done(hsi.Errorf(hsi.CodeDeviceSwitch, "SetDevice", "index %d out of range (%d devices)", i, h.devices.Count()))
	}
	err := h.devices.Select(i)
	if h.model != nil || h.correction != nil {
		h.log.Info().Int("device", i).Msg("device switch discards model and correction")
	}
	h.model = nil
	h.correction = nil
	h.classifier = nil
	h.foreground = nil
	h.roi = nil
	h.clearOutputs()
	return h.done(err)
}

func (h *Handle) clearOutputs() {
	h.result.Decisions = h.result.Decisions[:0]
	h.result.Regression = h.result.Regression[:0]
	h.result.Width, h.result.Height = 0, 0
}

// LoadModel loads the project at path. On failure the previous model,
// if any, stays loaded.
func (h *Handle) LoadModel(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireIdle("LoadModel"); err != nil {
		return h.done(err)
	}
	m, err := l3model.Load(h.fsys, path)
	if err != nil {
		return h.done(err)
	}
	h.model = m
	h.classifier = nil
	h.foreground = m.Foreground()
	h.roi = nil
	h.clearOutputs()
	h.objects.Reset(m.Mask)
	h.log.Info().Str("model", m.Name).Str("kind", m.Kind.String()).
		Int("width", m.Width).Int("bands", m.Bands).Int("decisions", m.DecCount()).Msg("model loaded")
	return h.done(nil)
}

// LoadCorrection loads the dark/white references of scan from dir. On
// failure the previous correction, if any, stays loaded.
func (h *Handle) LoadCorrection(dir, scan string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireIdle("LoadCorrection"); err != nil {
		return h.done(err)
	}
	store, err := l2correction.Load(h.fsys, dir, scan)
	if err != nil {
		return h.done(err)
	}
	h.correction = store
	return h.done(nil)
}

// UnloadCorrection drops the loaded correction.
func (h *Handle) UnloadCorrection() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireIdle("UnloadCorrection"); err != nil {
		return h.done(err)
	}
	h.correction = nil
	return h.done(nil)
}

// CorrectionLoaded reports whether a correction is loaded.
func (h *Handle) CorrectionLoaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.correction != nil
}

// SetMinObjSize sets the minimum pixel count of a finalised object.
func (h *Handle) SetMinObjSize(n int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireIdle("SetMinObjSize"); err != nil {
		return h.done(err)
	}
	if n < 0 {
		return h.done(hsi.Errorf(hsi.CodeGeneric, "SetMinObjSize", "size %d is negative", n))
	}
	h.minSize = n
	return h.done(nil)
}

// MinObjSize returns the minimum object size.
func (h *Handle) MinObjSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.minSize
}

// SetSegmentation enables or disables object segmentation.
func (h *Handle) SetSegmentation(on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireIdle("SetSegmentation"); err != nil {
		return h.done(err)
	}
	h.segmentation = on
	return h.done(nil)
}

// Segmentation reports whether object segmentation is enabled.
func (h *Handle) Segmentation() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.segmentation
}

// SetForegroundClass marks decision i as foreground or background for
// segmentation and regression masking.
func (h *Handle) SetForegroundClass(i int, on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	const op = "SetForegroundClass"
	if err := h.requireModel(op); err != nil {
		return h.done(err)
	}
	if err := h.requireIdle(op); err != nil {
		return h.done(err)
	}
	if i < 0 || i >= len(h.foreground) {
		return h.done(hsi.Errorf(hsi.CodeForegroundIndex, op, "index %d of %d", i, len(h.foreground)))
	}
	h.foreground[i] = on
	return h.done(nil)
}

// ForegroundClass reports whether decision i is foreground.
func (h *Handle) ForegroundClass(i int) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	const op = "GetForegroundClass"
	if err := h.requireModel(op); err != nil {
		return false, h.done(err)
	}
	if i < 0 || i >= len(h.foreground) {
		return false, h.done(hsi.Errorf(hsi.CodeForegroundIndex, op, "index %d of %d", i, len(h.foreground)))
	}
	return h.foreground[i], h.done(nil)
}

// modelQuery runs fn against the loaded model under the handle lock.
func modelQuery[T any](h *Handle, op string, fn func(m *l3model.Model) (T, error)) (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var zero T
	if err := h.requireModel(op); err != nil {
		return zero, h.done(err)
	}
	v, err := fn(h.model)
	return v, h.done(err)
}

// ProjectKind returns the kind of the loaded project.
func (h *Handle) ProjectKind() (l3model.Kind, error) {
	return modelQuery(h, "GetProjectType", func(m *l3model.Model) (l3model.Kind, error) { return m.Kind, nil })
}

// Width returns the input width.
func (h *Handle) Width() (int, error) {
	return modelQuery(h, "GetWidth", func(m *l3model.Model) (int, error) { return m.Width, nil })
}

// Height returns the input height; 1 for line-scan projects.
func (h *Handle) Height() (int, error) {
	return modelQuery(h, "GetHeight", func(m *l3model.Model) (int, error) { return m.Geometry().Height, nil })
}

// Bands returns the input band count.
func (h *Handle) Bands() (int, error) {
	return modelQuery(h, "GetBands", func(m *l3model.Model) (int, error) { return m.Bands, nil })
}

// DataType returns the resolved input data type.
func (h *Handle) DataType() (l1samples.DataType, error) {
	return modelQuery(h, "GetDataType", (*l3model.Model).CheckedDataType)
}

// DataLayout returns the resolved input layout.
func (h *Handle) DataLayout() (l1samples.Layout, error) {
	return modelQuery(h, "GetDataLayout", (*l3model.Model).CheckedLayout)
}

// MaskType returns the mask policy of the loaded project.
func (h *Handle) MaskType() (l3model.MaskPolicy, error) {
	return modelQuery(h, "GetMaskType", (*l3model.Model).CheckedMask)
}

// DecCount returns the number of decision classes.
func (h *Handle) DecCount() (int, error) {
	return modelQuery(h, "GetDecCount", func(m *l3model.Model) (int, error) { return m.DecCount(), nil })
}

// DecName returns the name of decision i.
func (h *Handle) DecName(i int) (string, error) {
	return modelQuery(h, "GetDecName", func(m *l3model.Model) (string, error) { return m.DecName(i) })
}

// DecColor returns the display colour of decision i.
func (h *Handle) DecColor(i int) ([3]uint8, error) {
	return modelQuery(h, "GetDecColor", func(m *l3model.Model) ([3]uint8, error) { return m.DecColor(i) })
}

// RegVarCount returns the number of regression variables.
func (h *Handle) RegVarCount() (int, error) {
	return modelQuery(h, "GetRegVarCount", (*l3model.Model).RegVarCount)
}

// RegVarName returns the name of regression variable i.
func (h *Handle) RegVarName(i int) (string, error) {
	return modelQuery(h, "GetRegVarName", func(m *l3model.Model) (string, error) { return m.RegVarName(i) })
}

// mutateModel runs fn against the loaded model while idle.
func (h *Handle) mutateModel(op string, fn func(m *l3model.Model) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireModel(op); err != nil {
		return h.done(err)
	}
	if err := h.requireIdle(op); err != nil {
		return h.done(err)
	}
	if err := fn(h.model); err != nil {
		return h.done(err)
	}
	h.roi = nil
	return h.done(nil)
}

// SetWidth overrides the input width.
func (h *Handle) SetWidth(w int) error {
	return h.mutateModel("SetWidth", func(m *l3model.Model) error { return m.SetWidth(w) })
}

// SetDataLayout resolves the layout of a model that left it undeclared.
func (h *Handle) SetDataLayout(l l1samples.Layout) error {
	return h.mutateModel("SetDataLayout", func(m *l3model.Model) error { return m.SetLayout(l) })
}

// SetDataType resolves the data type of a model that left it undeclared.
func (h *Handle) SetDataType(t l1samples.DataType) error {
	return h.mutateModel("SetDataType", func(m *l3model.Model) error { return m.SetDataType(t) })
}
