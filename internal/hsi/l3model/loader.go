package l3model

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/banshee-data/hyperspectral/internal/fsutil"
	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
	"github.com/banshee-data/hyperspectral/internal/monitoring"
)

const (
	// FormatTag identifies a project document.
	FormatTag = "mira-project"
	// FormatVersion is the only project document version understood.
	FormatVersion = 1

	// MaxDecisions bounds the decision catalogue so a decision fits a mask byte.
	MaxDecisions = 255

	maxProjectBytes = 64 << 20
)

// ProjectFile is the on-disk project document.
type ProjectFile struct {
	Format     string          `json:"format"`
	Version    int             `json:"version"`
	Name       string          `json:"name"`
	Project    ProjectSection  `json:"project"`
	Decisions  []DecisionEntry `json:"decisions"`
	Classifier ClassifierEntry `json:"classifier"`
	Regression *RegressionFile `json:"regression,omitempty"`
}

// ProjectSection declares the acquisition the model was trained for.
type ProjectSection struct {
	Kind       string `json:"kind"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Bands      int    `json:"bands"`
	DataType   string `json:"data_type"`
	DataLayout string `json:"data_layout"`
	Mask       string `json:"mask"`
	Correction string `json:"correction"`
}

// DecisionEntry is one decision class.
type DecisionEntry struct {
	Name       string   `json:"name"`
	Color      [3]uint8 `json:"color"`
	Foreground bool     `json:"foreground"`
}

// ClassifierEntry holds the trained classifier.
type ClassifierEntry struct {
	Type    string      `json:"type"`
	Weights [][]float64 `json:"weights,omitempty"`
	Bias    []float64   `json:"bias,omitempty"`
	Means   [][]float64 `json:"means,omitempty"`
	Reject  *RejectFile `json:"reject,omitempty"`
}

// RejectFile is the optional low-intensity reject rule.
type RejectFile struct {
	MinIntensity float64 `json:"min_intensity"`
	Decision     int     `json:"decision"`
}

// RegressionFile holds the optional regressor.
type RegressionFile struct {
	Variables []string    `json:"variables"`
	Weights   [][]float64 `json:"weights"`
	Bias      []float64   `json:"bias"`
}

// Load reads and validates the project at path. On failure no model is
// returned; callers keep whatever model they held before.
func Load(fsys fsutil.FileSystem, path string) (*Model, error) {
	const op = "LoadModel"
	if path == "" {
		return nil, hsi.Errorf(hsi.CodeNullArgument, op, "empty path")
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, hsi.Errorf(hsi.CodeModelFormat, op, "%s: expected a .json project", path)
	}

	raw, err := fsutil.ReadFileLimit(fsys, path, maxProjectBytes)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, hsi.Wrap(hsi.CodeModelOpen, op, err)
		}
		return nil, hsi.Wrap(hsi.CodeModelLoad, op, errors.Wrapf(err, "read %s", path))
	}

	var pf ProjectFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, hsi.Wrap(hsi.CodeModelFormat, op, errors.Wrapf(err, "parse %s", path))
	}

	m, err := pf.Build()
	if err != nil {
		return nil, err
	}
	m.Path = path
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	monitoring.Logf("loaded model %s", m)
	return m, nil
}

// Build validates a decoded project document and turns it into a Model.
func (pf *ProjectFile) Build() (*Model, error) {
	const op = "LoadModel"
	if pf.Format != FormatTag || pf.Version != FormatVersion {
		return nil, hsi.Errorf(hsi.CodeModelFormat, op, "format %q version %d", pf.Format, pf.Version)
	}

	m := &Model{Name: pf.Name}
	p := pf.Project

	switch strings.ToLower(p.Kind) {
	case "line-scan", "linescan":
		m.Kind = KindLineScan
	case "snapshot":
		m.Kind = KindSnapshot
	default:
		return nil, hsi.Errorf(hsi.CodeModelProjectType, op, "project kind %q", p.Kind)
	}

	if p.Width < 0 || p.Height < 0 || p.Bands <= 0 {
		return nil, hsi.Errorf(hsi.CodeModelInternal, op, "geometry %dx%dx%d", p.Width, p.Height, p.Bands)
	}
	m.Width, m.Height, m.Bands = p.Width, p.Height, p.Bands
	if m.Kind == KindLineScan {
		m.Height = 1
	}

	var err error
	if m.DataType, err = l1samples.ParseDataType(p.DataType); err != nil {
		return nil, hsi.Wrap(hsi.CodeModelLoad, op, err)
	}
	m.typeDeclared = m.DataType.Valid()
	if m.Layout, err = l1samples.ParseLayout(p.DataLayout); err != nil {
		return nil, hsi.Wrap(hsi.CodeModelLoad, op, err)
	}
	m.layoutDeclared = m.Layout.Valid()

	switch strings.ToLower(p.Mask) {
	case "":
		m.Mask = MaskUndefined
	case "each_foreground", "each":
		m.Mask = MaskEachForeground
	case "all_foreground", "all":
		m.Mask = MaskAllForeground
	default:
		return nil, hsi.Errorf(hsi.CodeModelLoad, op, "mask policy %q", p.Mask)
	}

	switch strings.ToLower(p.Correction) {
	case "", "optional":
		m.Correction = CorrectionOptional
	case "required":
		m.Correction = CorrectionRequired
	case "forbidden":
		m.Correction = CorrectionForbidden
	default:
		return nil, hsi.Errorf(hsi.CodeModelLoad, op, "correction policy %q", p.Correction)
	}

	if len(pf.Decisions) == 0 || len(pf.Decisions) > MaxDecisions {
		return nil, hsi.Errorf(hsi.CodeModelInternal, op, "%d decision classes (1..%d)", len(pf.Decisions), MaxDecisions)
	}
	m.Decisions = make([]Decision, len(pf.Decisions))
	for i, d := range pf.Decisions {
		m.Decisions[i] = Decision{Name: d.Name, Color: d.Color, Foreground: d.Foreground}
	}

	if m.Classifier, err = pf.Classifier.build(len(m.Decisions), m.Bands); err != nil {
		return nil, err
	}
	if pf.Regression != nil {
		if m.Regression, err = pf.Regression.build(m.Bands); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (c ClassifierEntry) build(decisions, bands int) (Classifier, error) {
	const op = "LoadModel"
	var out Classifier
	switch strings.ToLower(c.Type) {
	case "linear", "":
		out.Kind = ClassifierLinear
		if err := checkMatrix(c.Weights, decisions, bands, "classifier weights"); err != nil {
			return out, err
		}
		if len(c.Bias) != 0 && len(c.Bias) != decisions {
			return out, hsi.Errorf(hsi.CodeModelInternal, op, "classifier bias has %d entries, want %d", len(c.Bias), decisions)
		}
		out.Weights = c.Weights
		out.Bias = c.Bias
	case "nearest_mean":
		out.Kind = ClassifierNearestMean
		if err := checkMatrix(c.Means, decisions, bands, "class means"); err != nil {
			return out, err
		}
		out.Means = c.Means
	default:
		return out, hsi.Errorf(hsi.CodeModelLoad, op, "classifier type %q", c.Type)
	}
	if c.Reject != nil {
		if c.Reject.Decision < 0 || c.Reject.Decision >= decisions {
			return out, hsi.Errorf(hsi.CodeModelInternal, op, "reject decision %d of %d", c.Reject.Decision, decisions)
		}
		out.Reject = &Reject{MinIntensity: c.Reject.MinIntensity, Decision: c.Reject.Decision}
	}
	return out, nil
}

func (r RegressionFile) build(bands int) (*Regression, error) {
	const op = "LoadModel"
	if len(r.Variables) == 0 {
		return nil, nil
	}
	if err := checkMatrix(r.Weights, len(r.Variables), bands, "regression weights"); err != nil {
		return nil, err
	}
	if len(r.Bias) != 0 && len(r.Bias) != len(r.Variables) {
		return nil, hsi.Errorf(hsi.CodeModelInternal, op, "regression bias has %d entries, want %d", len(r.Bias), len(r.Variables))
	}
	return &Regression{Variables: r.Variables, Weights: r.Weights, Bias: r.Bias}, nil
}

func checkMatrix(rows [][]float64, n, bands int, what string) error {
	if len(rows) != n {
		return hsi.Errorf(hsi.CodeModelInternal, "LoadModel", "%s has %d rows, want %d", what, len(rows), n)
	}
	for i, row := range rows {
		if len(row) != bands {
			return hsi.Errorf(hsi.CodeModelInternal, "LoadModel", "%s row %d has %d values, want %d", what, i, len(row), bands)
		}
	}
	return nil
}
