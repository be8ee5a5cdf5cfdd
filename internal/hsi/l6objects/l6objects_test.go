package l6objects

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/banshee-data/hyperspectral/internal/hsi"
	"github.com/banshee-data/hyperspectral/internal/hsi/l3model"
	"github.com/banshee-data/hyperspectral/internal/hsi/l5segment"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func blob() l5segment.Blob {
	tr := l5segment.NewTracker(l5segment.Config{
		MinSize: 1, Connectivity: 8, MaxOpen: 4,
		Policy: l3model.MaskAllForeground, Foreground: []bool{false, true, true}, Classes: 3,
		Variables: 1,
	})
	_, _ = tr.Step([]uint8{0, 1, 1, 2, 0}, [][]float32{{0, 2, 4, 6, 0}})
	_, _ = tr.Step([]uint8{0, 0, 1, 0, 0}, [][]float32{{0, 0, 8, 0, 0}})
	return tr.Flush()[0]
}

func wantStatus(t *testing.T, err error, want int) {
	t.Helper()
	if got := hsi.Status(err); got != want {
		t.Errorf("status = %d, want %d (err: %v)", got, want, err)
	}
}

func TestFromBlob(t *testing.T) {
	t.Parallel()
	r := FromBlob(blob(), SummaryMean)

	got := [9]int{r.ID, r.Frame, r.MinFrame, r.MaxFrame, r.MinCol, r.MaxCol, r.Size, r.Class, r.Pos}
	want := [9]int{1, 2, 0, 1, 1, 3, 4, 1, 2}
	if got != want {
		t.Errorf("record fields = %v, want %v", got, want)
	}
	if diff := cmp.Diff([]float64{5}, r.Regression, approx); diff != "" {
		t.Errorf("regression mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreFieldsAndColumns(t *testing.T) {
	t.Parallel()
	s := NewStore(4, l3model.MaskAllForeground)
	if err := s.Append(FromBlob(blob(), SummaryMean)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	tests := []struct {
		f    Field
		want int
	}{
		{FieldID, 1}, {FieldFrame, 2}, {FieldPos, 2}, {FieldMinFrame, 0}, {FieldMaxFrame, 1},
		{FieldMinCol, 1}, {FieldMaxCol, 3}, {FieldSize, 4}, {FieldClass, 1},
	}
	for _, tc := range tests {
		t.Run(tc.f.String(), func(t *testing.T) {
			got, err := s.Field(0, tc.f)
			if err != nil {
				t.Fatalf("Field: %v", err)
			}
			if got != tc.want {
				t.Errorf("Field(0, %s) = %d, want %d", tc.f, got, tc.want)
			}
		})
	}

	col, err := s.Column(FieldSize)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if diff := cmp.Diff([]int32{4}, col); diff != "" {
		t.Errorf("size column (-want +got):\n%s", diff)
	}

	_, err = s.Field(1, FieldID)
	wantStatus(t, err, -161)
	_, err = s.Field(0, Field(9))
	wantStatus(t, err, -161)
	_, err = s.Column(Field(-1))
	wantStatus(t, err, -161)
}

func TestStoreCapacity(t *testing.T) {
	t.Parallel()
	s := NewStore(2, l3model.MaskAllForeground)
	r := FromBlob(blob(), SummaryMean)

	if err := s.Append(r); err != nil {
		t.Fatalf("Append: %v", err)
	}
	wantStatus(t, s.Append(r, r), -160)
	if got := s.Count(); got != 1 {
		t.Errorf("Count() = %d after failed append, want 1", got)
	}
	if err := s.Append(r); err != nil {
		t.Fatalf("Append into last slot: %v", err)
	}
	if got := s.Room(); got != 0 {
		t.Errorf("Room() = %d, want 0", got)
	}

	s.Reset(l3model.MaskAllForeground)
	if got := s.Count(); got != 0 {
		t.Errorf("Count() = %d after Reset, want 0", got)
	}
}

func TestClassStatisticsPolicy(t *testing.T) {
	t.Parallel()
	r := FromBlob(blob(), SummaryMean)

	each := NewStore(4, l3model.MaskEachForeground)
	if err := each.Append(r); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_, err := each.ClassSize(0, 1)
	wantStatus(t, err, -163)
	_, err = each.ClassFraction(0, 1)
	wantStatus(t, err, -163)

	all := NewStore(4, l3model.MaskAllForeground)
	if err := all.Append(r); err != nil {
		t.Fatalf("Append: %v", err)
	}
	n, err := all.ClassSize(0, 1)
	if err != nil || n != 3 {
		t.Errorf("ClassSize(0, 1) = %d, %v; want 3", n, err)
	}

	var sum float64
	for c := 0; c < MaxClasses; c++ {
		f, err := all.ClassFraction(0, c)
		if err != nil {
			t.Fatalf("ClassFraction(0, %d): %v", c, err)
		}
		sum += f
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("class fractions sum to %v, want 1", sum)
	}

	_, err = all.ClassSize(0, 10)
	wantStatus(t, err, -162)
	_, err = all.ClassFraction(0, -1)
	wantStatus(t, err, -162)
	_, err = all.ClassSize(3, 0)
	wantStatus(t, err, -161)
}

func TestRegressionSummary(t *testing.T) {
	t.Parallel()
	s := NewStore(4, l3model.MaskAllForeground)
	if err := s.Append(FromBlob(blob(), SummaryMean)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.RegressionSummary(0)
	if err != nil {
		t.Fatalf("RegressionSummary: %v", err)
	}
	if diff := cmp.Diff([]float64{5}, got, approx); diff != "" {
		t.Errorf("summary (-want +got):\n%s", diff)
	}

	s.Reset(l3model.MaskAllForeground)
	if err := s.Append(Record{ID: 1, Size: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_, err = s.RegressionSummary(0)
	wantStatus(t, err, -302)
}

func TestParseSummary(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Summary{"median": SummaryMedian, "mean": SummaryMean, "": SummaryMean} {
		if got := ParseSummary(in); got != want {
			t.Errorf("ParseSummary(%q) = %v, want %v", in, got, want)
		}
	}
}
