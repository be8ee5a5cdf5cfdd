package l5segment

// run is a maximal horizontal stretch of foreground pixels in one row.
// Under MaskEachForeground a run holds a single class; otherwise class
// is -1 and any foreground decision extends it.
type run struct {
	x0, x1 int // [x0, x1)
	class  int
	obj    int
}

// extractRuns appends the runs of row[x0:x1] to dst.
func extractRuns(dst []run, row []uint8, x0, x1 int, cfg Config, each bool) []run {
	start, class := -1, -1
	for x := x0; x <= x1; x++ {
		fg, c := false, -1
		if x < x1 && cfg.isForeground(row[x]) {
			fg = true
			if each {
				c = int(row[x])
			}
		}
		if start >= 0 && (!fg || c != class) {
			dst = append(dst, run{x0: start, x1: x, class: class})
			start = -1
		}
		if fg && start < 0 {
			start, class = x, c
		}
	}
	return dst
}

// touches reports whether runs a and b in adjacent rows are connected.
func touches(a, b run, slack int) bool {
	if a.class != b.class {
		return false
	}
	return a.x0 <= b.x1-1+slack && b.x0 <= a.x1-1+slack
}
