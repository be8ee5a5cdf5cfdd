package l5segment

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
	"github.com/banshee-data/hyperspectral/internal/hsi/l4classify"
)

func cfg(policy l3model.MaskPolicy, conn int) Config {
	return Config{
		MinSize:      1,
		Connectivity: conn,
		MaxOpen:      16,
		Policy:       policy,
		Foreground:   []bool{false, true, true},
		Classes:      3,
	}
}

// row builds a decision row from a string: '.' is 0, digits are classes.
func row(s string) []uint8 {
	out := make([]uint8, len(s))
	for i, c := range s {
		if c != '.' {
			out[i] = uint8(c - '0')
		}
	}
	return out
}

func TestTrackerBlobAcrossTenFrames(t *testing.T) {
	t.Parallel()
	tr := NewTracker(Config{MinSize: 20, Connectivity: 8, MaxOpen: 256,
		Policy: l3model.MaskAllForeground, Foreground: []bool{false, true}, Classes: 2})

	frame := make([]uint8, 64)
	for x := 7; x < 57; x++ {
		frame[x] = 1
	}
	for i := 0; i < 10; i++ {
		closed, err := tr.Step(frame, nil)
		require.NoError(t, err)
		assert.Empty(t, closed)
	}
	require.Equal(t, 1, tr.OpenCount())

	closed := tr.Flush()
	require.Len(t, closed, 1)
	b := closed[0]
	assert.Equal(t, 500, b.Size)
	assert.Equal(t, 0, b.FirstFrame)
	assert.Equal(t, 9, b.LastFrame)
	assert.Equal(t, 10, b.EndFrame)
	assert.Equal(t, 7, b.MinCol)
	assert.Equal(t, 56, b.MaxCol)
	assert.Equal(t, 32, b.Position())
	assert.Equal(t, 1, b.Dominant())
	assert.Equal(t, 0, tr.OpenCount())
}

func TestTrackerClosesWhenRegionEnds(t *testing.T) {
	t.Parallel()
	tr := NewTracker(cfg(l3model.MaskAllForeground, 8))

	frames := []string{
		"..11....",
		"..11....",
		"........",
	}
	var closed []Blob
	for _, f := range frames {
		c, err := tr.Step(row(f), nil)
		require.NoError(t, err)
		closed = append(closed, c...)
	}
	require.Len(t, closed, 1)
	assert.Equal(t, 4, closed[0].Size)
	assert.Equal(t, 2, closed[0].EndFrame)
	assert.Equal(t, 1, closed[0].LastFrame)
}

func TestTrackerMergesIntoLowestID(t *testing.T) {
	t.Parallel()
	tr := NewTracker(cfg(l3model.MaskAllForeground, 8))

	_, err := tr.Step(row("11....22"), nil)
	require.NoError(t, err)
	open := tr.Open()
	require.Len(t, open, 2)
	assert.Equal(t, 1, open[0].ID)
	assert.Equal(t, 2, open[1].ID)

	_, err = tr.Step(row("11111111"), nil)
	require.NoError(t, err)
	open = tr.Open()
	require.Len(t, open, 1)
	assert.Equal(t, 1, open[0].ID)
	assert.Equal(t, 12, open[0].Size)
	assert.Equal(t, []int{0, 10, 2}, open[0].ClassSizes)

	closed, err := tr.Step(row("........"), nil)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, 1, closed[0].ID)
}

func TestTrackerConnectivity(t *testing.T) {
	t.Parallel()
	frames := []string{"1.....", ".1....", "......"}

	count := func(conn int) int {
		tr := NewTracker(cfg(l3model.MaskAllForeground, conn))
		n := 0
		for _, f := range frames {
			c, err := tr.Step(row(f), nil)
			require.NoError(t, err)
			n += len(c)
		}
		return n
	}
	assert.Equal(t, 1, count(8), "diagonal neighbours join under 8-connectivity")
	assert.Equal(t, 2, count(4), "diagonal neighbours split under 4-connectivity")
}

func TestTrackerEachForegroundSeparatesClasses(t *testing.T) {
	t.Parallel()
	tr := NewTracker(cfg(l3model.MaskEachForeground, 8))

	_, err := tr.Step(row("1122...."), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.OpenCount())
	_, err = tr.Step(row("1122...."), nil)
	require.NoError(t, err)
	closed := tr.Flush()
	require.Len(t, closed, 2)
	assert.Equal(t, 1, closed[0].Dominant())
	assert.Equal(t, 2, closed[1].Dominant())
	assert.Equal(t, 4, closed[0].Size)
}

func TestTrackerMinSizeDiscards(t *testing.T) {
	t.Parallel()
	c := cfg(l3model.MaskAllForeground, 8)
	c.MinSize = 3
	tr := NewTracker(c)

	_, err := tr.Step(row("11...111"), nil)
	require.NoError(t, err)
	closed, err := tr.Step(row("........"), nil)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, 3, closed[0].Size)
}

func TestTrackerOpenLimitIsAtomic(t *testing.T) {
	t.Parallel()
	c := cfg(l3model.MaskAllForeground, 4)
	c.MaxOpen = 2
	tr := NewTracker(c)

	_, err := tr.Step(row("1.1....."), nil)
	require.NoError(t, err)
	before := tr.Open()

	_, err = tr.Step(row("1.1.1.1."), nil)
	assert.Equal(t, -160, hsi.Status(err))
	assert.Equal(t, 1, tr.Frame())
	if diff := cmp.Diff(before, tr.Open(), cmp.AllowUnexported(Blob{})); diff != "" {
		t.Errorf("open set changed after failed step (-before +after):\n%s", diff)
	}

	// The tracker still continues from the committed frame.
	_, err = tr.Step(row("1.1....."), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Frame())
}

func TestTrackerFrameRangeInvariant(t *testing.T) {
	t.Parallel()
	tr := NewTracker(cfg(l3model.MaskAllForeground, 8))
	frames := []string{"11..11..", ".1111...", "...11.1.", "......11", "1......."}
	total := 0
	for _, f := range frames {
		closed, err := tr.Step(row(f), nil)
		require.NoError(t, err)
		for _, b := range append(closed, tr.Open()...) {
			assert.LessOrEqual(t, b.FirstFrame, b.LastFrame)
			sum := 0
			for _, n := range b.ClassSizes {
				sum += n
			}
			assert.LessOrEqual(t, sum, b.Size)
		}
		newTotal := total + len(closed)
		assert.GreaterOrEqual(t, newTotal, total)
		total = newTotal
	}
}

func TestRegressionSummaries(t *testing.T) {
	t.Parallel()
	c := cfg(l3model.MaskAllForeground, 8)
	c.Variables = 1
	c.KeepValues = true
	tr := NewTracker(c)

	_, err := tr.Step(row("111."), [][]float32{{1, 2, 9, 0}})
	require.NoError(t, err)
	closed := tr.Flush()
	require.Len(t, closed, 1)
	assert.InDelta(t, 4, closed[0].RegMean()[0], 1e-9)
	assert.InDelta(t, 2, closed[0].RegMedian()[0], 1e-9)
}

func TestSegmentSnapshot(t *testing.T) {
	t.Parallel()
	mask := [][]uint8{
		row("11..2"),
		row("1...2"),
		row("...22"),
		row("1...."),
	}
	var flat []uint8
	for _, r := range mask {
		flat = append(flat, r...)
	}

	blobs, err := Segment(cfg(l3model.MaskAllForeground, 4), flat, 5, 4, nil, nil)
	require.NoError(t, err)
	require.Len(t, blobs, 3)

	assert.Equal(t, 1, blobs[0].ID)
	assert.Equal(t, 3, blobs[0].Size)
	assert.Equal(t, 0, blobs[0].FirstFrame)
	assert.Equal(t, 1, blobs[0].LastFrame)

	assert.Equal(t, 2, blobs[1].ID)
	assert.Equal(t, 4, blobs[1].Size)
	assert.Equal(t, 2, blobs[1].Dominant())
	assert.Equal(t, 3, blobs[1].MinCol)

	assert.Equal(t, 3, blobs[2].ID)
	assert.Equal(t, 3, blobs[2].FirstFrame)
}

func TestSegmentHonoursROI(t *testing.T) {
	t.Parallel()
	flat := append(row("1111"), row("1111")...)
	roi := &l4classify.ROI{Col: 1, Row: 0, Width: 2, Height: 2}
	blobs, err := Segment(cfg(l3model.MaskAllForeground, 8), flat, 4, 2, roi, nil)
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, 4, blobs[0].Size)
	assert.Equal(t, 1, blobs[0].MinCol)
	assert.Equal(t, 2, blobs[0].MaxCol)
}

func TestSegmentUShapeJoins(t *testing.T) {
	t.Parallel()
	flat := append(append(row("1.1"), row("1.1")...), row("111")...)
	blobs, err := Segment(cfg(l3model.MaskAllForeground, 4), flat, 3, 3, nil, nil)
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, 7, blobs[0].Size)
}

func TestSegmentBadMask(t *testing.T) {
	t.Parallel()
	_, err := Segment(cfg(l3model.MaskAllForeground, 8), make([]uint8, 5), 2, 2, nil, nil)
	assert.Equal(t, -213, hsi.Status(err))
}

func TestStepWithinRoom(t *testing.T) {
	t.Parallel()
	tr := NewTracker(cfg(l3model.MaskAllForeground, 8))
	_, err := tr.Step(row("1.1.1"), nil)
	require.NoError(t, err)

	_, err = tr.StepWithin(row("....."), nil, 2)
	assert.Equal(t, -160, hsi.Status(err))
	assert.Equal(t, 3, tr.OpenCount())

	closed, err := tr.StepWithin(row("....."), nil, 3)
	require.NoError(t, err)
	assert.Len(t, closed, 3)
}
