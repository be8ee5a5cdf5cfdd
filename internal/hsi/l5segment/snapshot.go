package l5segment

import (
	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
	"github.com/banshee-data/hyperspectral/internal/hsi/l4classify"
)

// Segment runs one connected-components pass over a width x height
// decision mask, restricted to roi when it is non-nil. Objects come back
// ordered by their first pixel in raster order with ids 1..n; rows are
// reported in FirstFrame/LastFrame.
func Segment(cfg Config, decisions []uint8, width, height int, roi *l4classify.ROI, regression [][]float32) ([]Blob, error) {
	const op = "ProcessCube"
	if width <= 0 || height <= 0 || len(decisions) != width*height {
		return nil, hsi.Errorf(hsi.CodeCubeSegmentation, op,
			"mask of %d pixels for %dx%d", len(decisions), width, height)
	}
	for k, p := range regression {
		if len(p) != len(decisions) {
			return nil, hsi.Errorf(hsi.CodeCubeSegmentation, op, "regression plane %d has %d pixels", k, len(p))
		}
	}

	x0, y0, x1, y1 := 0, 0, width, height
	if roi != nil {
		x0, y0, x1, y1 = roi.Col, roi.Row, roi.Col+roi.Width, roi.Row+roi.Height
	}

	each := cfg.Policy == l3model.MaskEachForeground
	slack := cfg.slack()

	// Row runs are the union-find nodes; a node's label is its index into
	// all. Runs are created in raster order, so the lowest node of a
	// component holds its first pixel.
	var all []run
	rowStart := make([]int, 0, y1-y0+1)
	parent := []int{}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		switch {
		case ra < rb:
			parent[rb] = ra
		case rb < ra:
			parent[ra] = rb
		}
	}

	for y := y0; y < y1; y++ {
		start := len(all)
		rowStart = append(rowStart, start)
		all = extractRuns(all, decisions[y*width:(y+1)*width], x0, x1, cfg, each)
		for i := start; i < len(all); i++ {
			parent = append(parent, i)
		}
		if y == y0 {
			continue
		}
		prevStart := rowStart[len(rowStart)-2]
		lo := prevStart
		for i := start; i < len(all); i++ {
			r := all[i]
			for lo < start && all[lo].x1-1+slack < r.x0 {
				lo++
			}
			for k := lo; k < start && all[k].x0 <= r.x1-1+slack; k++ {
				if touches(r, all[k], slack) {
					union(i, k)
				}
			}
		}
	}
	rowStart = append(rowStart, len(all))

	blobs := make(map[int]*Blob)
	var order []int
	for row := 0; row < len(rowStart)-1; row++ {
		y := y0 + row
		for i := rowStart[row]; i < rowStart[row+1]; i++ {
			root := find(i)
			b, ok := blobs[root]
			if !ok {
				b = newBlob(0, cfg, y)
				blobs[root] = b
				order = append(order, root)
			}
			b.addRow(y, all[i].x0, all[i].x1, y*width, decisions, regression)
		}
	}

	out := make([]Blob, 0, len(order))
	for _, root := range order {
		b := blobs[root]
		if b.Size < cfg.MinSize {
			continue
		}
		b.ID = len(out) + 1
		out = append(out, *b)
	}
	return out, nil
}
