package pipeline

import (
	"github.com/banshee-data/hyperspectral/internal/hsi/l6objects"
)

// ObjCount returns the number of finalised objects.
func (h *Handle) ObjCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done(nil)
	return h.objects.Count()
}

// ObjField returns field f of object i.
func (h *Handle) ObjField(i int, f l6objects.Field) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, err := h.objects.Field(i, f)
	return v, h.done(err)
}

// ObjColumn returns field f of every object.
func (h *Handle) ObjColumn(f l6objects.Field) ([]int32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, err := h.objects.Column(f)
	return v, h.done(err)
}

// ObjClassSize returns the pixel count of class c in object i.
func (h *Handle) ObjClassSize(i, c int) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, err := h.objects.ClassSize(i, c)
	return v, h.done(err)
}

// ObjClassFrac returns the fraction of object i classified as c.
func (h *Handle) ObjClassFrac(i, c int) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, err := h.objects.ClassFraction(i, c)
	return v, h.done(err)
}

// ObjRegression returns the regression summary of object i.
func (h *Handle) ObjRegression(i int) ([]float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, err := h.objects.RegressionSummary(i)
	return v, h.done(err)
}

// Objects returns a copy of the object table.
func (h *Handle) Objects() []l6objects.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.objects.Records()
}
