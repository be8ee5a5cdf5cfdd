package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/hyperspectral/internal/db"
	"github.com/banshee-data/hyperspectral/internal/hsi/l1samples"
	"github.com/banshee-data/hyperspectral/internal/testutil"
)

func TestParseROI(t *testing.T) {
	roi, err := parseROI("1, 2,3,4,9")
	require.NoError(t, err)
	assert.Equal(t, 1, roi.Col)
	assert.Equal(t, 4, roi.Height)
	assert.Equal(t, uint8(9), roi.Outside)

	for _, bad := range []string{"1,2,3,4", "a,2,3,4,5", "1,2,3,4,300"} {
		_, err := parseROI(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFlagsEnvDefaults(t *testing.T) {
	t.Setenv("MIRA_MODEL", "/env/model.json")
	o, err := parseFlags([]string{"-scan", "s1"})
	require.NoError(t, err)
	assert.Equal(t, "/env/model.json", o.model)
	assert.Equal(t, "s1", o.scan)
	assert.Equal(t, -1, o.device)
}

func TestRunLineScan(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(model, testutil.ProjectJSON(testutil.LineScan(64, 4, 2)), 0o644))

	blob := testutil.NewFrame(64, 4).Paint(5, 55, 1, 1000)
	var raw []byte
	for i := 0; i < 10; i++ {
		raw = append(raw, l1samples.EncodeLE(l1samples.Uint16Buffer(blob.Data))...)
	}
	frames := filepath.Join(dir, "scan.raw")
	require.NoError(t, os.WriteFile(frames, raw, 0o644))

	o := &options{
		model:   model,
		frames:  frames,
		save:    filepath.Join(dir, "mask.png"),
		report:  filepath.Join(dir, "report.html"),
		dbPath:  filepath.Join(dir, "objects.db"),
		device:  -1,
		timeout: 0,
	}
	require.NoError(t, run(context.Background(), o))
	assert.FileExists(t, o.save)
	assert.FileExists(t, o.report)

	database, err := db.NewDB(o.dbPath)
	require.NoError(t, err)
	defer database.Close()
	runs, err := db.NewObjectLog(database, "").Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Objects)
	assert.NotEqual(t, uuid.Nil, runs[0].RunID)
}

func TestRunSnapshot(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(model, testutil.ProjectJSON(testutil.Snapshot(8, 6, 2, 3, "float", "BSQ")), 0o644))

	cube := testutil.NewCube(l1samples.Geometry{Width: 8, Height: 6, Bands: 2}, l1samples.LayoutBSQ).
		Paint(1, 1, 3, 3, 1, 9)
	path := filepath.Join(dir, "cube.raw")
	require.NoError(t, os.WriteFile(path, l1samples.EncodeLE(cube.Buffer(l1samples.DataTypeFloat)), 0o644))

	o := &options{model: model, cube: path, roi: "0,0,4,6,0", save: filepath.Join(dir, "mask.png"), device: -1}
	require.NoError(t, run(context.Background(), o))
	assert.FileExists(t, o.save)
}

func TestResolveOutputs(t *testing.T) {
	dir := t.TempDir()
	o := &options{model: "/models/potato sort.json", outDir: filepath.Join(dir, "out")}
	require.NoError(t, resolveOutputs(o))
	assert.Equal(t, filepath.Join(dir, "out", "potato_sort_mask.png"), o.save)
	assert.Equal(t, filepath.Join(dir, "out", "potato_sort_objects.html"), o.report)
	assert.Empty(t, o.heatmap)
	assert.DirExists(t, o.outDir)

	o = &options{model: "m.json", outDir: dir, save: "../escape.png"}
	assert.Error(t, resolveOutputs(o))
}

func TestRunRequiresModel(t *testing.T) {
	assert.Error(t, run(context.Background(), &options{device: -1}))
}
