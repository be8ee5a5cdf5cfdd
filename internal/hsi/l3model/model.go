package l3model

import (
	"fmt"

	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
)

// Kind is the project kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindLineScan
	KindSnapshot
)

func (k Kind) String() string {
	switch k {
	case KindLineScan:
		return "line-scan"
	case KindSnapshot:
		return "snapshot"
	}
	return "unknown"
}

// MaskPolicy selects how foreground classes are segmented into objects.
// Values match the integers reported at the runtime boundary.
type MaskPolicy int

const (
	MaskUndefined      MaskPolicy = 0
	MaskEachForeground MaskPolicy = 1 // each foreground class segmented separately
	MaskAllForeground  MaskPolicy = 2 // all foreground classes joined into one mask
)

func (p MaskPolicy) String() string {
	switch p {
	case MaskEachForeground:
		return "each_foreground"
	case MaskAllForeground:
		return "all_foreground"
	}
	return "undefined"
}

// CorrectionPolicy states whether a project needs radiometric correction.
type CorrectionPolicy int

const (
	CorrectionOptional CorrectionPolicy = iota
	CorrectionRequired
	CorrectionForbidden
)

func (p CorrectionPolicy) String() string {
	switch p {
	case CorrectionRequired:
		return "required"
	case CorrectionForbidden:
		return "forbidden"
	}
	return "optional"
}

// Decision is one output class.
type Decision struct {
	Name       string
	Color      [3]uint8
	Foreground bool
}

// ClassifierKind selects the per-pixel decision rule.
type ClassifierKind int

const (
	ClassifierLinear ClassifierKind = iota
	ClassifierNearestMean
)

func (k ClassifierKind) String() string {
	if k == ClassifierNearestMean {
		return "nearest_mean"
	}
	return "linear"
}

// Reject assigns a fixed decision to pixels whose mean intensity is below
// MinIntensity, before the classifier runs.
type Reject struct {
	MinIntensity float64
	Decision     int
}

// Classifier holds trained weights. For ClassifierLinear, Weights is
// decisions x bands and Bias has one entry per decision. For
// ClassifierNearestMean, Means is decisions x bands.
type Classifier struct {
	Kind    ClassifierKind
	Weights [][]float64
	Bias    []float64
	Means   [][]float64
	Reject  *Reject
}

// Regression maps a spectrum to one value per variable: R = V·x + c.
type Regression struct {
	Variables []string
	Weights   [][]float64 // variables x bands
	Bias      []float64
}

// Model is a loaded project.
type Model struct {
	Name       string
	Path       string
	Kind       Kind
	Width      int
	Height     int
	Bands      int
	DataType   l1samples.DataType
	Layout     l1samples.Layout
	Mask       MaskPolicy
	Correction CorrectionPolicy
	Decisions  []Decision
	Classifier Classifier
	Regression *Regression

	layoutDeclared bool
	typeDeclared   bool
}

// Geometry returns the declared input geometry. Line-scan projects report
// a height of 1.
func (m *Model) Geometry() l1samples.Geometry {
	h := m.Height
	if m.Kind == KindLineScan {
		h = 1
	}
	return l1samples.Geometry{Width: m.Width, Height: h, Bands: m.Bands}
}

// SetWidth overrides the input width for variable-width acquisition
// setups. It is the only post-load geometry change permitted.
func (m *Model) SetWidth(w int) error {
	if w <= 0 {
		return hsi.Errorf(hsi.CodeInvalidWidth, "SetWidth", "got %d", w)
	}
	m.Width = w
	return nil
}

// SetLayout resolves the input layout of a model that left it undeclared.
func (m *Model) SetLayout(l l1samples.Layout) error {
	const op = "SetDataLayout"
	if m.layoutDeclared {
		return hsi.Errorf(hsi.CodeLayoutDeclared, op, "model declares %s", m.Layout)
	}
	if !l.Valid() {
		return hsi.Errorf(hsi.CodeUndefinedLayout, op, "layout %d", int(l))
	}
	m.Layout = l
	return nil
}

// SetDataType resolves the input data type of a model that left it
// undeclared. Line-scan projects only accept raw uint16 frames.
func (m *Model) SetDataType(t l1samples.DataType) error {
	const op = "SetDataType"
	if m.typeDeclared {
		return hsi.Errorf(hsi.CodeLayoutDeclared, op, "model declares %s", m.DataType)
	}
	if !t.Valid() {
		return hsi.Errorf(hsi.CodeUndefinedDataType, op, "data type %d", int(t))
	}
	if m.Kind == KindLineScan && t != l1samples.DataTypeUint16 {
		return hsi.Errorf(hsi.CodeUnsupportedAcquisition, op, "line-scan frames are uint16, got %s", t)
	}
	m.DataType = t
	return nil
}

// CheckedDataType returns the resolved data type.
func (m *Model) CheckedDataType() (l1samples.DataType, error) {
	if !m.DataType.Valid() {
		return l1samples.DataTypeUnknown, hsi.New(hsi.CodeUndefinedDataType, "GetDataType")
	}
	return m.DataType, nil
}

// CheckedLayout returns the resolved data layout.
func (m *Model) CheckedLayout() (l1samples.Layout, error) {
	if !m.Layout.Valid() {
		return l1samples.LayoutUnknown, hsi.New(hsi.CodeUndefinedLayout, "GetDataLayout")
	}
	return m.Layout, nil
}

// CheckedMask returns the mask policy.
func (m *Model) CheckedMask() (MaskPolicy, error) {
	if m.Mask == MaskUndefined {
		return MaskUndefined, hsi.New(hsi.CodeMaskUndefined, "GetMaskType")
	}
	return m.Mask, nil
}

// DecCount returns the number of decision classes.
func (m *Model) DecCount() int { return len(m.Decisions) }

func (m *Model) decision(op string, i int) (Decision, error) {
	if i < 0 || i >= len(m.Decisions) {
		return Decision{}, hsi.Errorf(hsi.CodeDecisionIndex, op, "index %d of %d", i, len(m.Decisions))
	}
	return m.Decisions[i], nil
}

// DecName returns the name of decision i.
func (m *Model) DecName(i int) (string, error) {
	d, err := m.decision("GetDecName", i)
	return d.Name, err
}

// DecColor returns the display colour of decision i.
func (m *Model) DecColor(i int) ([3]uint8, error) {
	d, err := m.decision("GetDecColor", i)
	return d.Color, err
}

// Colors returns the palette indexed by decision.
func (m *Model) Colors() [][3]uint8 {
	out := make([][3]uint8, len(m.Decisions))
	for i, d := range m.Decisions {
		out[i] = d.Color
	}
	return out
}

// Foreground returns a fresh copy of the per-decision foreground flags.
func (m *Model) Foreground() []bool {
	out := make([]bool, len(m.Decisions))
	for i, d := range m.Decisions {
		out[i] = d.Foreground
	}
	return out
}

// HasRegression reports whether the model carries a regressor.
func (m *Model) HasRegression() bool {
	return m.Regression != nil && len(m.Regression.Variables) > 0
}

// RegVarCount returns the number of regression variables.
func (m *Model) RegVarCount() (int, error) {
	if !m.HasRegression() {
		return 0, hsi.New(hsi.CodeNoRegression, "GetRegVarCount")
	}
	return len(m.Regression.Variables), nil
}

// RegVarName returns the name of regression variable i.
func (m *Model) RegVarName(i int) (string, error) {
	const op = "GetRegVarName"
	if !m.HasRegression() {
		return "", hsi.New(hsi.CodeNoRegression, op)
	}
	if i < 0 || i >= len(m.Regression.Variables) {
		return "", hsi.Errorf(hsi.CodeRegVarIndex, op, "index %d of %d", i, len(m.Regression.Variables))
	}
	return m.Regression.Variables[i], nil
}

func (m *Model) String() string {
	return fmt.Sprintf("%s %s %dx%dx%d %s/%s, %d decisions", m.Name, m.Kind,
		m.Width, m.Geometry().Height, m.Bands, m.DataType, m.Layout, len(m.Decisions))
}
