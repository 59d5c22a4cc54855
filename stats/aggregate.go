package stats

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/lattica-org/lattica/material"
)

// ============================================================================
// STREAMING AGGREGATOR — Single-Pass Descriptive Statistics
// ============================================================================
// One pass over a record stream folds a named metric into count, min, max,
// mean, population stddev, and equal-width histogram bins. Min/max/mean/
// stddev run on constant state; the median needs the full value set, so
// present values are retained per call — the one accepted O(n) cost.
// All accumulator state is private to the call; nothing persists between
// pipeline runs.
// ============================================================================

// Virtual metrics derived per record rather than read from Properties.
// Always present, so they never trigger ErrUnknownProperty.
const (
	MetricAtomCount    = "atom_count"
	MetricElementCount = "element_count"
)

// KnownMetric reports whether name can be aggregated: a recognized scalar
// property key or a virtual metric.
func KnownMetric(name string) bool {
	return name == MetricAtomCount || name == MetricElementCount ||
		material.KnownProperty(name)
}

// BinPolicy controls histogram binning. The zero value applies the default
// rule: clamp(round(sqrt(present_count)), 10, 100) equal-width bins.
type BinPolicy struct {
	Bins int // explicit bin count; 0 = sqrt rule
}

// HistogramBin is one equal-width interval [Lower, Upper). The last bin of
// a histogram is inclusive of its upper edge.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// AggregationResult holds the statistics for one metric across a corpus.
// When PresentCount is zero the float statistics are NaN and Histogram is
// empty — callers must check PresentCount (or the returned error) before
// reading them.
type AggregationResult struct {
	Metric       string         `json:"metric"`
	TotalSeen    int            `json:"total_seen"`
	PresentCount int            `json:"present_count"`
	Min          float64        `json:"min"`
	Max          float64        `json:"max"`
	Mean         float64        `json:"mean"`
	Median       float64        `json:"median"`
	Stddev       float64        `json:"stddev"`
	Histogram    []HistogramBin `json:"histogram,omitempty"`
}

// Range returns Max - Min.
func (r AggregationResult) Range() float64 { return r.Max - r.Min }

// ============================================================================
// ACCUMULATOR
// ============================================================================

// Aggregator folds one metric over a record stream. Create one per
// aggregation call with NewAggregator; it is not safe for concurrent use.
type Aggregator struct {
	metric string
	policy BinPolicy

	totalSeen int
	values    []float64 // retained for median + histogram
	min, max  float64
	sum       float64
	sumSq     float64
}

// NewAggregator creates an accumulator for one metric.
func NewAggregator(metric string, policy BinPolicy) *Aggregator {
	return &Aggregator{metric: metric, policy: policy}
}

// Observe folds one record. A record without the metric only advances
// TotalSeen — absence is never coerced to zero.
func (a *Aggregator) Observe(rec *material.StructureRecord) {
	a.totalSeen++
	v, ok := metricValue(rec, a.metric)
	if !ok {
		return
	}
	if len(a.values) == 0 || v < a.min {
		a.min = v
	}
	if len(a.values) == 0 || v > a.max {
		a.max = v
	}
	a.values = append(a.values, v)
	a.sum += v
	a.sumSq += v * v
}

// Result finalizes the aggregation.
//
// Zero records observed → ErrEmptyCorpus. Metric present in no record of a
// non-empty corpus → ErrUnknownProperty, with a NaN-flagged result still
// returned so the caller sees TotalSeen.
func (a *Aggregator) Result() (AggregationResult, error) {
	res := AggregationResult{
		Metric:       a.metric,
		TotalSeen:    a.totalSeen,
		PresentCount: len(a.values),
	}

	if a.totalSeen == 0 {
		return res, fmt.Errorf("aggregate %q: %w", a.metric, ErrEmptyCorpus)
	}
	if len(a.values) == 0 {
		nan := math.NaN()
		res.Min, res.Max, res.Mean, res.Median, res.Stddev = nan, nan, nan, nan, nan
		return res, fmt.Errorf("aggregate %q: %w: present in 0 of %d records",
			a.metric, ErrUnknownProperty, a.totalSeen)
	}

	n := float64(len(a.values))
	res.Min = a.min
	res.Max = a.max
	res.Mean = a.sum / n

	// Population variance from running sums; float cancellation can dip
	// slightly below zero.
	variance := a.sumSq/n - res.Mean*res.Mean
	if variance < 0 {
		variance = 0
	}
	res.Stddev = math.Sqrt(variance)

	sorted := make([]float64, len(a.values))
	copy(sorted, a.values)
	sort.Float64s(sorted)
	res.Median = median(sorted)

	res.Histogram = buildHistogram(a.values, a.min, a.max, a.policy)
	return res, nil
}

// Aggregate runs one full pass of src through an Aggregator.
func Aggregate(src Source, metric string, policy BinPolicy) (AggregationResult, error) {
	agg := NewAggregator(metric, policy)
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return AggregationResult{}, fmt.Errorf("aggregate %q: %w", metric, err)
		}
		agg.Observe(rec)
	}
	return agg.Result()
}

// ============================================================================
// METRIC LOOKUP
// ============================================================================

// metricValue reads a metric off one record: virtual metrics are derived,
// everything else is a Properties lookup with explicit presence.
func metricValue(rec *material.StructureRecord, metric string) (float64, bool) {
	switch metric {
	case MetricAtomCount:
		return float64(len(rec.Atoms)), true
	case MetricElementCount:
		return float64(len(rec.ElementSet())), true
	}
	return rec.Property(metric)
}

// ============================================================================
// HISTOGRAM
// ============================================================================

const (
	minBins = 10
	maxBins = 100
)

// binCount applies the policy: explicit count, else the sqrt rule clamped
// to [10, 100].
func binCount(present int, policy BinPolicy) int {
	if policy.Bins > 0 {
		return policy.Bins
	}
	n := int(math.Round(math.Sqrt(float64(present))))
	if n < minBins {
		n = minBins
	}
	if n > maxBins {
		n = maxBins
	}
	return n
}

// buildHistogram bins values into equal-width intervals covering
// [min, max]. The last bin is inclusive of max. A degenerate range
// (min == max) collapses to a single bin holding every value.
func buildHistogram(values []float64, min, max float64, policy BinPolicy) []HistogramBin {
	if len(values) == 0 {
		return nil
	}
	if min == max {
		return []HistogramBin{{Lower: min, Upper: max, Count: len(values)}}
	}

	n := binCount(len(values), policy)
	width := (max - min) / float64(n)

	bins := make([]HistogramBin, n)
	for i := range bins {
		bins[i].Lower = min + float64(i)*width
		bins[i].Upper = min + float64(i+1)*width
	}
	bins[n-1].Upper = max // exact upper edge, no float drift

	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= n {
			idx = n - 1 // v == max lands in the last, inclusive bin
		}
		bins[idx].Count++
	}
	return bins
}

// median of an already-sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
