package l4classify

import (
	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
)

// ValidateFrameModel checks that m accepts raw line-scan frames, which are
// always uint16 in BIL layout.
func ValidateFrameModel(m *l3model.Model) error {
	const op = "ProcessFrame"
	if m.DataType != l1samples.DataTypeUint16 {
		return hsi.Errorf(hsi.CodeFrameDataType, op, "model expects %s, frames are uint16", m.DataType)
	}
	if m.Layout != l1samples.LayoutBIL {
		return hsi.Errorf(hsi.CodeFrameLayout, op, "model expects %s", m.Layout)
	}
	return nil
}

// CubeView validates buf against the model declaration and wraps it.
func CubeView(m *l3model.Model, buf l1samples.Buffer) (l1samples.View, error) {
	const op = "ProcessCube"
	g := m.Geometry()
	if !g.Valid() {
		return l1samples.View{}, hsi.Errorf(hsi.CodeMissingGeometry, op, "model geometry %s", g)
	}
	if !m.Layout.Valid() || !m.DataType.Valid() || buf.Type != m.DataType {
		return l1samples.View{}, hsi.Errorf(hsi.CodeCubeDataType, op,
			"cube %s, model expects %s/%s", buf.Type, m.DataType, m.Layout)
	}
	if buf.Len() < g.Samples() {
		return l1samples.View{}, hsi.Errorf(hsi.CodeNullArgument, op,
			"cube holds %d samples, %s needs %d", buf.Len(), g, g.Samples())
	}
	return l1samples.View{Buf: buf, Layout: m.Layout, Geom: g}, nil
}
