package stats

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/lattica-org/lattica/material"
)

// ============================================================================
// AGGREGATION TESTS
// ============================================================================

// corpusWith builds single-atom carbon records carrying the given bandgap
// values. A NaN in the input means "record without the property".
func corpusWith(values []float64) []*material.StructureRecord {
	recs := make([]*material.StructureRecord, 0, len(values))
	for i, v := range values {
		rec := &material.StructureRecord{
			MaterialID: fmt.Sprintf("2dm-%d", i+1),
			Atoms:      []material.Atom{{Symbol: "C"}},
			Periodic:   [3]bool{true, true, true},
			Properties: map[string]float64{},
		}
		if !math.IsNaN(v) {
			rec.Properties[material.PropBandgap] = v
		}
		recs = append(recs, rec)
	}
	return recs
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregateRoundTrip(t *testing.T) {
	src := NewSliceSource(corpusWith([]float64{1, 2, 3, 4}))
	res, err := Aggregate(src, material.PropBandgap, BinPolicy{})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if res.TotalSeen != 4 || res.PresentCount != 4 {
		t.Errorf("seen/present = %d/%d, want 4/4", res.TotalSeen, res.PresentCount)
	}
	if res.Min != 1 || res.Max != 4 {
		t.Errorf("min/max = %v/%v, want 1/4", res.Min, res.Max)
	}
	if !almostEqual(res.Mean, 2.5) {
		t.Errorf("mean = %v, want 2.5", res.Mean)
	}
	if !almostEqual(res.Median, 2.5) {
		t.Errorf("median = %v, want 2.5", res.Median)
	}
	if !almostEqual(res.Stddev, math.Sqrt(1.25)) {
		t.Errorf("stddev = %v, want sqrt(1.25)", res.Stddev)
	}
}

func TestAggregateSparse(t *testing.T) {
	nan := math.NaN()
	values := []float64{0.5, nan, nan, 1.5, nan, nan, nan, 2.5, nan, nan}
	src := NewSliceSource(corpusWith(values))

	res, err := Aggregate(src, material.PropBandgap, BinPolicy{})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if res.TotalSeen != 10 {
		t.Errorf("TotalSeen = %d, want 10", res.TotalSeen)
	}
	if res.PresentCount != 3 {
		t.Errorf("PresentCount = %d, want 3", res.PresentCount)
	}
	if !almostEqual(res.Mean, 1.5) {
		t.Errorf("mean = %v, want 1.5 (absent values must not dilute)", res.Mean)
	}
}

func TestAggregateUnknownProperty(t *testing.T) {
	src := NewSliceSource(corpusWith([]float64{1, 2, 3}))
	res, err := Aggregate(src, material.PropDecompositionEnergy, BinPolicy{})

	if !errors.Is(err, ErrUnknownProperty) {
		t.Fatalf("expected ErrUnknownProperty, got %v", err)
	}
	if res.TotalSeen != 3 || res.PresentCount != 0 {
		t.Errorf("seen/present = %d/%d, want 3/0", res.TotalSeen, res.PresentCount)
	}
	if !math.IsNaN(res.Mean) || !math.IsNaN(res.Median) {
		t.Error("statistics over zero present values must be NaN-flagged")
	}
	if len(res.Histogram) != 0 {
		t.Error("histogram must be empty when nothing was present")
	}
}

func TestAggregateEmptyCorpus(t *testing.T) {
	src := NewSliceSource(nil)
	_, err := Aggregate(src, material.PropBandgap, BinPolicy{})
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestBinCountRule(t *testing.T) {
	tests := []struct {
		present int
		policy  BinPolicy
		want    int
	}{
		{4, BinPolicy{}, 10},     // sqrt(4)=2, clamped up
		{100, BinPolicy{}, 10},   // sqrt=10
		{400, BinPolicy{}, 20},   // sqrt=20
		{2500, BinPolicy{}, 50},  // sqrt=50
		{20000, BinPolicy{}, 100}, // sqrt≈141, clamped down
		{400, BinPolicy{Bins: 7}, 7},
	}

	for _, tt := range tests {
		if got := binCount(tt.present, tt.policy); got != tt.want {
			t.Errorf("binCount(%d, %+v) = %d, want %d", tt.present, tt.policy, got, tt.want)
		}
	}
}

func TestHistogramCoversRange(t *testing.T) {
	values := []float64{0, 0.3, 1.1, 2.7, 5, 5, 5, 9.2, 10, 10}
	src := NewSliceSource(corpusWith(values))
	res, err := Aggregate(src, material.PropBandgap, BinPolicy{})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	bins := res.Histogram
	if len(bins) != 10 {
		t.Fatalf("got %d bins, want 10", len(bins))
	}
	if bins[0].Lower != 0 {
		t.Errorf("first bin lower = %v, want min 0", bins[0].Lower)
	}
	if bins[len(bins)-1].Upper != 10 {
		t.Errorf("last bin upper = %v, want max 10", bins[len(bins)-1].Upper)
	}

	// Every present value lands in exactly one bin; max is inclusive.
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != res.PresentCount {
		t.Errorf("histogram holds %d values, want %d", total, res.PresentCount)
	}
	if bins[len(bins)-1].Count != 3 {
		t.Errorf("last bin count = %d, want 3 (9.2 plus both values equal to max)", bins[len(bins)-1].Count)
	}
}

func TestHistogramDegenerateRange(t *testing.T) {
	src := NewSliceSource(corpusWith([]float64{3.3, 3.3, 3.3}))
	res, err := Aggregate(src, material.PropBandgap, BinPolicy{})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(res.Histogram) != 1 {
		t.Fatalf("min==max should collapse to one bin, got %d", len(res.Histogram))
	}
	bin := res.Histogram[0]
	if bin.Lower != 3.3 || bin.Upper != 3.3 || bin.Count != 3 {
		t.Errorf("degenerate bin = %+v, want [3.3, 3.3] count 3", bin)
	}
}

func TestVirtualMetrics(t *testing.T) {
	recs := []*material.StructureRecord{
		{Atoms: []material.Atom{{Symbol: "C"}, {Symbol: "C"}, {Symbol: "H"}}},
		{Atoms: []material.Atom{{Symbol: "B"}, {Symbol: "N"}}},
	}

	res, err := Aggregate(NewSliceSource(recs), MetricAtomCount, BinPolicy{})
	if err != nil {
		t.Fatalf("atom_count aggregate failed: %v", err)
	}
	if res.PresentCount != 2 || res.Min != 2 || res.Max != 3 {
		t.Errorf("atom_count: present=%d min=%v max=%v", res.PresentCount, res.Min, res.Max)
	}

	res, err = Aggregate(NewSliceSource(recs), MetricElementCount, BinPolicy{})
	if err != nil {
		t.Fatalf("element_count aggregate failed: %v", err)
	}
	if res.Min != 2 || res.Max != 2 {
		t.Errorf("element_count: min=%v max=%v, want 2/2", res.Min, res.Max)
	}
}

func TestKnownMetric(t *testing.T) {
	for _, name := range []string{"bandgap", "energy_per_atom", MetricAtomCount, MetricElementCount} {
		if !KnownMetric(name) {
			t.Errorf("KnownMetric(%q) = false, want true", name)
		}
	}
	if KnownMetric("band_gap") {
		t.Error("KnownMetric should reject unrecognized names")
	}
}
