package pipeline

import (
	"github.com/pkg/errors"

	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/export"
)

// SaveImage writes the last decision mask, coloured by decision, to path.
// Only .png is supported.
func (h *Handle) SaveImage(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	const op = "SaveImage"

	if path == "" {
		return h.done(hsi.Errorf(hsi.CodeNullArgument, op, "empty path"))
	}
	if h.model == nil || h.result.Empty() {
		return h.done(hsi.New(hsi.CodeNoLabelImage, op))
	}
	if export.FormatFromPath(path) != export.FormatPNG {
		return h.done(hsi.Errorf(hsi.CodeExportFormat, op, "%s", path))
	}

	f, err := h.fsys.Create(path)
	if err != nil {
		return h.done(hsi.Wrap(hsi.CodeExportWrite, op, errors.Wrapf(err, "create %s", path)))
	}
	err = export.DecisionPNG(f, h.result.Decisions, h.result.Width, h.result.Height, h.model.Colors())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return h.done(hsi.Wrap(hsi.CodeExportWrite, op, errors.Wrapf(err, "write %s", path)))
	}
	h.log.Info().Str("path", path).Msg("decision image saved")
	return h.done(nil)
}

// SaveRegressionHeatmap plots regression plane v of the last output.
func (h *Handle) SaveRegressionHeatmap(path string, v int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	const op = "SaveRegressionHeatmap"

	if h.model == nil || h.result.Empty() {
		return h.done(hsi.New(hsi.CodeNoLabelImage, op))
	}
	if export.FormatFromPath(path) != export.FormatPNG {
		return h.done(hsi.Errorf(hsi.CodeExportFormat, op, "%s", path))
	}
	plane, err := h.result.Plane(v, h.foreground, false, 0)
	if err != nil {
		return h.done(err)
	}
	name, _ := h.model.RegVarName(v)

	f, err := h.fsys.Create(path)
	if err != nil {
		return h.done(hsi.Wrap(hsi.CodeExportWrite, op, errors.Wrapf(err, "create %s", path)))
	}
	err = export.RegressionHeatmap(f, plane, h.result.Width, h.result.Height, name)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return h.done(hsi.Wrap(hsi.CodeExportWrite, op, errors.Wrapf(err, "write %s", path)))
	}
	return h.done(nil)
}

// SaveObjectReport writes an HTML summary of the object table.
func (h *Handle) SaveObjectReport(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	const op = "SaveObjectReport"

	if err := h.requireModel(op); err != nil {
		return h.done(err)
	}
	names := make([]string, h.model.DecCount())
	for i := range names {
		names[i], _ = h.model.DecName(i)
	}

	f, err := h.fsys.Create(path)
	if err != nil {
		return h.done(hsi.Wrap(hsi.CodeExportWrite, op, errors.Wrapf(err, "create %s", path)))
	}
	err = export.ObjectReport(f, h.model.Name, h.objects.Records(), names)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return h.done(hsi.Wrap(hsi.CodeExportWrite, op, errors.Wrapf(err, "write %s", path)))
	}
	return h.done(nil)
}
