package l5segment

import (
	"sort"
	"sync"

	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
)

// trackState is everything a frame may change. Step works on a copy and
// swaps it in only when the frame succeeds.
type trackState struct {
	open   map[int]*Blob
	prev   []run
	nextID int
	frame  int
}

// Tracker follows foreground objects across line-scan frames.
type Tracker struct {
	cfg   Config
	state trackState

	mu sync.RWMutex
}

// NewTracker creates a tracker with no open objects at frame 0.
func NewTracker(cfg Config) *Tracker {
	t := &Tracker{cfg: cfg}
	t.Reset()
	return t
}

// Reset drops every open object and restarts frame numbering.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = trackState{open: make(map[int]*Blob), nextID: 1}
}

// Config returns the segmentation parameters.
func (t *Tracker) Config() Config { return t.cfg }

// Frame returns the index of the next frame to be processed.
func (t *Tracker) Frame() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.frame
}

// OpenCount returns the number of objects still open.
func (t *Tracker) OpenCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.state.open)
}

// Open returns copies of the open objects ordered by id.
func (t *Tracker) Open() []Blob {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Blob, 0, len(t.state.open))
	for _, id := range sortedIDs(t.state.open) {
		out = append(out, *t.state.open[id].clone())
	}
	return out
}

// Step consumes the decision row of one frame and returns the objects
// finalised by it, in id order. Objects below the minimum size are
// dropped rather than returned. On error the tracker is unchanged.
func (t *Tracker) Step(decisions []uint8, regression [][]float32) ([]Blob, error) {
	return t.StepWithin(decisions, regression, -1)
}

// StepWithin is Step with a bound on the number of objects the frame may
// finalise; room < 0 means unbounded. Exceeding it fails the frame.
func (t *Tracker) StepWithin(decisions []uint8, regression [][]float32, room int) ([]Blob, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.state
	work := trackState{
		open:   make(map[int]*Blob, len(cur.open)),
		nextID: cur.nextID,
		frame:  cur.frame,
	}
	for id, b := range cur.open {
		work.open[id] = b
	}
	owned := make(map[int]bool)
	mutable := func(id int) *Blob {
		if !owned[id] {
			work.open[id] = work.open[id].clone()
			owned[id] = true
		}
		return work.open[id]
	}

	each := t.cfg.Policy == l3model.MaskEachForeground
	runs := extractRuns(nil, decisions, 0, len(decisions), t.cfg, each)
	slack := t.cfg.slack()

	// Step 1: match runs against the previous frame's footprints.
	uf := newIDSet()
	lo := 0
	for i := range runs {
		r := &runs[i]
		for lo < len(cur.prev) && cur.prev[lo].x1-1+slack < r.x0 {
			lo++
		}
		for k := lo; k < len(cur.prev) && cur.prev[k].x0 <= r.x1-1+slack; k++ {
			p := cur.prev[k]
			if !touches(*r, p, slack) {
				continue
			}
			if r.obj == 0 {
				r.obj = p.obj
				uf.add(p.obj)
			} else {
				uf.union(r.obj, p.obj)
			}
		}
	}

	// Step 2: merge objects bridged by a run into the lowest id.
	for _, id := range uf.ids() {
		root := uf.find(id)
		if root == id {
			continue
		}
		mutable(root).absorb(work.open[id])
		delete(work.open, id)
	}

	// Step 3: open new objects for unmatched runs, grow matched ones.
	touched := make(map[int]bool, len(runs))
	for i := range runs {
		r := &runs[i]
		if r.obj == 0 {
			r.obj = work.nextID
			work.nextID++
			work.open[r.obj] = newBlob(r.obj, t.cfg, work.frame)
			owned[r.obj] = true
		} else {
			r.obj = uf.find(r.obj)
		}
		mutable(r.obj).addRow(work.frame, r.x0, r.x1, 0, decisions, regression)
		touched[r.obj] = true
	}

	// Step 4: close objects that did not continue into this frame.
	var closed []Blob
	for _, id := range sortedIDs(work.open) {
		if touched[id] {
			continue
		}
		b := work.open[id]
		delete(work.open, id)
		if b.Size >= t.cfg.MinSize {
			fin := *b
			fin.EndFrame = work.frame
			closed = append(closed, fin)
		}
	}

	// Step 5: enforce both bounds before committing.
	if t.cfg.MaxOpen > 0 && len(work.open) > t.cfg.MaxOpen {
		return nil, hsi.Errorf(hsi.CodeObjectLimit, "ProcessFrame",
			"%d open objects exceed the limit of %d", len(work.open), t.cfg.MaxOpen)
	}
	if room >= 0 && len(closed) > room {
		return nil, hsi.Errorf(hsi.CodeObjectLimit, "ProcessFrame",
			"%d finalised objects, room for %d", len(closed), room)
	}

	work.prev = runs
	work.frame++
	t.state = work
	return closed, nil
}

// Flush force-closes every open object as-is, still applying the minimum
// size filter, and returns the survivors in id order. Frame numbering
// continues.
func (t *Tracker) Flush() []Blob {
	t.mu.Lock()
	defer t.mu.Unlock()

	var closed []Blob
	for _, id := range sortedIDs(t.state.open) {
		b := t.state.open[id]
		if b.Size >= t.cfg.MinSize {
			fin := *b
			fin.EndFrame = t.state.frame
			closed = append(closed, fin)
		}
	}
	t.state.open = make(map[int]*Blob)
	t.state.prev = nil
	return closed
}

func sortedIDs(m map[int]*Blob) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// idSet is a union-find over object ids whose roots are always the
// lowest id of their set.
type idSet struct {
	parent map[int]int
}

func newIDSet() *idSet { return &idSet{parent: make(map[int]int)} }

func (s *idSet) add(id int) {
	if _, ok := s.parent[id]; !ok {
		s.parent[id] = id
	}
}

func (s *idSet) find(id int) int {
	p, ok := s.parent[id]
	if !ok {
		return id
	}
	if p == id {
		return id
	}
	root := s.find(p)
	s.parent[id] = root
	return root
}

func (s *idSet) union(a, b int) {
	s.add(a)
	s.add(b)
	ra, rb := s.find(a), s.find(b)
	switch {
	case ra < rb:
		s.parent[rb] = ra
	case rb < ra:
		s.parent[ra] = rb
	}
}

func (s *idSet) ids() []int {
	ids := make([]int, 0, len(s.parent))
	for id := range s.parent {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
