package l3model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/hyperspectral/internal/fsutil"
	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
	"github.com/banshee-data/hyperspectral/internal/testutil"
)

func loadSpec(t *testing.T, s testutil.ProjectSpec) (*Model, error) {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	testutil.WriteProject(fsys, "/models/p.mira.json", s)
	return Load(fsys, "/models/p.mira.json")
}

func TestLoadLineScan(t *testing.T) {
	t.Parallel()
	s := testutil.LineScan(64, 224, 2)
	s.Regression = []string{"fat", "moisture"}

	m, err := loadSpec(t, s)
	require.NoError(t, err)

	assert.Equal(t, KindLineScan, m.Kind)
	assert.Equal(t, l1samples.Geometry{Width: 64, Height: 1, Bands: 224}, m.Geometry())
	assert.Equal(t, l1samples.DataTypeUint16, m.DataType)
	assert.Equal(t, l1samples.LayoutBIL, m.Layout)
	assert.Equal(t, MaskAllForeground, m.Mask)
	assert.Equal(t, CorrectionOptional, m.Correction)
	assert.Equal(t, "synthetic", m.Name)
	assert.Equal(t, 2, m.DecCount())
	assert.Equal(t, []bool{false, true}, m.Foreground())

	name, err := m.DecName(0)
	require.NoError(t, err)
	assert.Equal(t, "background", name)
	_, err = m.DecColor(2)
	assert.Equal(t, -180, hsi.Status(err))

	n, err := m.RegVarCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	v, err := m.RegVarName(1)
	require.NoError(t, err)
	assert.Equal(t, "moisture", v)
	_, err = m.RegVarName(2)
	assert.Equal(t, -301, hsi.Status(err))
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"missing file", "/m/absent.json", "", -113},
		{"wrong extension", "/m/p.bin", "{}", -111},
		{"bad json", "/m/p.json", "{", -111},
		{"wrong format tag", "/m/p.json", `{"format":"other","version":1}`, -111},
		{"unsupported kind", "/m/p.json", `{"format":"mira-project","version":1,"project":{"kind":"video","bands":1}}`, -114},
		{"no decisions", "/m/p.json", `{"format":"mira-project","version":1,"project":{"kind":"snapshot","bands":1}}`, -112},
		{"short weights", "/m/p.json", `{"format":"mira-project","version":1,"project":{"kind":"snapshot","bands":2},
			"decisions":[{"name":"a"}],"classifier":{"type":"linear","weights":[[1]]}}`, -112},
		{"unknown classifier", "/m/p.json", `{"format":"mira-project","version":1,"project":{"kind":"snapshot","bands":1},
			"decisions":[{"name":"a"}],"classifier":{"type":"forest"}}`, -110},
		{"reject out of range", "/m/p.json", `{"format":"mira-project","version":1,"project":{"kind":"snapshot","bands":1},
			"decisions":[{"name":"a"}],"classifier":{"type":"nearest_mean","means":[[1]],"reject":{"decision":3}}}`, -112},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fsys := fsutil.NewMemoryFileSystem()
			if tc.body != "" {
				fsys.WriteFile(tc.path, []byte(tc.body))
			}
			m, err := Load(fsys, tc.path)
			assert.Nil(t, m)
			assert.Equal(t, tc.want, hsi.Status(err), "err: %v", err)
		})
	}
}

func TestSetWidth(t *testing.T) {
	t.Parallel()
	m, err := loadSpec(t, testutil.LineScan(64, 4, 2))
	require.NoError(t, err)

	assert.Equal(t, -230, hsi.Status(m.SetWidth(0)))
	assert.Equal(t, 64, m.Width)
	require.NoError(t, m.SetWidth(128))
	assert.Equal(t, 128, m.Geometry().Width)
}

func TestSetLayoutOnlyWhenUndeclared(t *testing.T) {
	t.Parallel()

	declared, err := loadSpec(t, testutil.LineScan(8, 4, 2))
	require.NoError(t, err)
	assert.Equal(t, -231, hsi.Status(declared.SetLayout(l1samples.LayoutBIP)))

	s := testutil.Snapshot(4, 4, 2, 2, "", "")
	open, err := loadSpec(t, s)
	require.NoError(t, err)

	_, err = open.CheckedLayout()
	assert.Equal(t, -205, hsi.Status(err))
	_, err = open.CheckedDataType()
	assert.Equal(t, -206, hsi.Status(err))

	assert.Equal(t, -205, hsi.Status(open.SetLayout(l1samples.LayoutUnknown)))
	require.NoError(t, open.SetLayout(l1samples.LayoutBSQ))
	require.NoError(t, open.SetDataType(l1samples.DataTypeUint8))
	l, err := open.CheckedLayout()
	require.NoError(t, err)
	assert.Equal(t, l1samples.LayoutBSQ, l)
}

func TestSetDataTypeLineScanRequiresUint16(t *testing.T) {
	t.Parallel()
	s := testutil.LineScan(8, 4, 2)
	s.DataType = ""
	m, err := loadSpec(t, s)
	require.NoError(t, err)

	assert.Equal(t, -165, hsi.Status(m.SetDataType(l1samples.DataTypeFloat)))
	require.NoError(t, m.SetDataType(l1samples.DataTypeUint16))
}

func TestNoRegression(t *testing.T) {
	t.Parallel()
	m, err := loadSpec(t, testutil.LineScan(8, 4, 2))
	require.NoError(t, err)

	assert.False(t, m.HasRegression())
	_, err = m.RegVarCount()
	assert.Equal(t, -302, hsi.Status(err))
	_, err = m.RegVarName(0)
	assert.Equal(t, -302, hsi.Status(err))
}

func TestMaskUndefined(t *testing.T) {
	t.Parallel()
	s := testutil.LineScan(8, 4, 2)
	s.Mask = ""
	m, err := loadSpec(t, s)
	require.NoError(t, err)
	_, err = m.CheckedMask()
	assert.Equal(t, -164, hsi.Status(err))
}
