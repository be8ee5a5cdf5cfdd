package l6objects

import (
	"fmt"
	"sync"

	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
	"github.com/banshee-data/hyperspectral/internal/hsi/l5segment"
)

// MaxClasses bounds the class index accepted by the per-class accessors.
const MaxClasses = 10

// Field enumerates the integer fields of a record. Values match the
// integers used at the runtime boundary.
type Field int

const (
	FieldID Field = iota
	FieldFrame
	FieldPos
	FieldMinFrame
	FieldMaxFrame
	FieldMinCol
	FieldMaxCol
	FieldSize
	FieldClass
	fieldCount
)

var fieldNames = [...]string{"id", "frame", "pos", "min_frame", "max_frame", "min_col", "max_col", "size", "class"}

func (f Field) String() string {
	if f >= 0 && f < fieldCount {
		return fieldNames[f]
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Summary selects how regression values are aggregated per object.
type Summary int

const (
	SummaryMean Summary = iota
	SummaryMedian
)

// ParseSummary maps a configuration string to a Summary.
func ParseSummary(s string) Summary {
	if s == "median" {
		return SummaryMedian
	}
	return SummaryMean
}

// Record is one finalised object. It is immutable once stored.
type Record struct {
	ID         int
	Frame      int // frame index at which the object was finalised
	Pos        int // centroid column
	MinFrame   int
	MaxFrame   int
	MinCol     int
	MaxCol     int
	Size       int
	Class      int // dominant decision
	ClassSizes []int
	Regression []float64
}

// FromBlob freezes a segmentation blob into a record.
func FromBlob(b l5segment.Blob, summary Summary) Record {
	r := Record{
		ID:         b.ID,
		Frame:      b.EndFrame,
		Pos:        b.Position(),
		MinFrame:   b.FirstFrame,
		MaxFrame:   b.LastFrame,
		MinCol:     b.MinCol,
		MaxCol:     b.MaxCol,
		Size:       b.Size,
		Class:      b.Dominant(),
		ClassSizes: append([]int(nil), b.ClassSizes...),
	}
	if summary == SummaryMedian {
		r.Regression = b.RegMedian()
	} else {
		r.Regression = b.RegMean()
	}
	return r
}

// Get returns field f of the record.
func (r *Record) Get(f Field) (int, error) {
	switch f {
	case FieldID:
		return r.ID, nil
	case FieldFrame:
		return r.Frame, nil
	case FieldPos:
		return r.Pos, nil
	case FieldMinFrame:
		return r.MinFrame, nil
	case FieldMaxFrame:
		return r.MaxFrame, nil
	case FieldMinCol:
		return r.MinCol, nil
	case FieldMaxCol:
		return r.MaxCol, nil
	case FieldSize:
		return r.Size, nil
	case FieldClass:
		return r.Class, nil
	}
	return 0, hsi.Errorf(hsi.CodeObjectIndex, "GetObjectField", "field %d", int(f))
}

// Store is a fixed-capacity, append-only table of records.
type Store struct {
	capacity int
	policy   l3model.MaskPolicy
	records  []Record

	mu sync.RWMutex
}

// NewStore creates an empty store holding at most capacity records.
func NewStore(capacity int, policy l3model.MaskPolicy) *Store {
	return &Store{capacity: capacity, policy: policy, records: make([]Record, 0, capacity)}
}

// Reset empties the store and sets the mask policy of the next run.
func (s *Store) Reset(policy l3model.MaskPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
	s.policy = policy
}

// Capacity returns the maximum number of records.
func (s *Store) Capacity() int { return s.capacity }

// Count returns the number of records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Room reports how many more records fit.
func (s *Store) Room() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacity - len(s.records)
}

// Append adds records atomically: either all fit or none are stored.
func (s *Store) Append(recs ...Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records)+len(recs) > s.capacity {
		return hsi.Errorf(hsi.CodeObjectLimit, "AppendObject",
			"%d stored + %d new exceeds %d", len(s.records), len(recs), s.capacity)
	}
	s.records = append(s.records, recs...)
	return nil
}

// Records returns a copy of the table.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...)
}

func (s *Store) record(op string, i int) (*Record, error) {
	if i < 0 || i >= len(s.records) {
		return nil, hsi.Errorf(hsi.CodeObjectIndex, op, "index %d of %d", i, len(s.records))
	}
	return &s.records[i], nil
}

// Record returns a copy of record i.
func (s *Store) Record(i int) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.record("GetObject", i)
	if err != nil {
		return Record{}, err
	}
	return *r, nil
}

// Field returns field f of record i.
func (s *Store) Field(i int, f Field) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.record("GetObjectField", i)
	if err != nil {
		return 0, err
	}
	return r.Get(f)
}

// Column returns field f of every record.
func (s *Store) Column(f Field) ([]int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int32, len(s.records))
	for i := range s.records {
		v, err := s.records[i].Get(f)
		if err != nil {
			return nil, err
		}
		out[i] = int32(v)
	}
	return out, nil
}

func (s *Store) classRecord(op string, i, class int) (*Record, error) {
	if s.policy != l3model.MaskAllForeground {
		return nil, hsi.Errorf(hsi.CodeObjectPolicy, op, "mask policy is %s", s.policy)
	}
	r, err := s.record(op, i)
	if err != nil {
		return nil, err
	}
	if class < 0 || class >= MaxClasses {
		return nil, hsi.Errorf(hsi.CodeObjectClassIndex, op, "class %d", class)
	}
	return r, nil
}

// ClassSize returns the number of pixels of record i classified as class.
func (s *Store) ClassSize(i, class int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.classRecord("GetObjectClassSize", i, class)
	if err != nil {
		return 0, err
	}
	if class >= len(r.ClassSizes) {
		return 0, nil
	}
	return r.ClassSizes[class], nil
}

// ClassFraction returns ClassSize divided by the record size.
func (s *Store) ClassFraction(i, class int) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.classRecord("GetObjectClassFraction", i, class)
	if err != nil {
		return 0, err
	}
	if class >= len(r.ClassSizes) || r.Size == 0 {
		return 0, nil
	}
	return float64(r.ClassSizes[class]) / float64(r.Size), nil
}

// RegressionSummary returns the per-variable summary of record i.
func (s *Store) RegressionSummary(i int) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.record("GetObjectRegression", i)
	if err != nil {
		return nil, err
	}
	if len(r.Regression) == 0 {
		return nil, hsi.New(hsi.CodeNoRegression, "GetObjectRegression")
	}
	return append([]float64(nil), r.Regression...), nil
}
