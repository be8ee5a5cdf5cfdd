package export

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/hyperspectral/internal/hsi/l6objects"
)

func TestFormatFromPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, FormatPNG, FormatFromPath("/tmp/out.PNG"))
	assert.Equal(t, FormatUnknown, FormatFromPath("/tmp/out.jpg"))
	assert.Equal(t, FormatUnknown, FormatFromPath("noext"))
}

func TestDecisionPNG(t *testing.T) {
	t.Parallel()
	colors := [][3]uint8{{0, 0, 0}, {255, 0, 0}}
	mask := []uint8{0, 1, 1, 200}

	var buf bytes.Buffer
	require.NoError(t, DecisionPNG(&buf, mask, 2, 2, colors))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	r, g, _, a := img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0xffff), a)
	r, _, _, _ = img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0), r, "sentinel decisions are painted black")
}

func TestDecisionPNGShortMask(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.Error(t, DecisionPNG(&buf, []uint8{0}, 2, 2, nil))
}

func TestRegressionHeatmap(t *testing.T) {
	t.Parallel()
	plane := make([]float32, 6*4)
	for i := range plane {
		plane[i] = float32(i)
	}
	var buf bytes.Buffer
	require.NoError(t, RegressionHeatmap(&buf, plane, 6, 4, "moisture"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	assert.Error(t, RegressionHeatmap(&buf, plane, 7, 4, "x"))
}

func TestObjectReport(t *testing.T) {
	t.Parallel()
	recs := []l6objects.Record{
		{ID: 1, Class: 1, Size: 40},
		{ID: 2, Class: 1, Size: 10},
		{ID: 3, Class: 2, Size: 5},
	}
	var buf bytes.Buffer
	require.NoError(t, ObjectReport(&buf, "run", recs, []string{"background", "nut", "shell"}))
	html := buf.String()
	assert.True(t, strings.Contains(html, "shell"))
	assert.True(t, strings.Contains(html, "3 objects"))
}
