package stats

import (
	"fmt"
	"io"
	"math"
)

// ============================================================================
// REPORT BUILDER — Plain-Text Statistic Summaries
// ============================================================================
// The report sink is a human-readable text file: one labeled line per
// statistic, 2–6 decimal digits depending on magnitude, followed by the
// histogram intervals. Downstream consumers are readers and scripts, not
// machines — the line layout is the only wire contract.
// ============================================================================

// FormatValue renders a statistic with magnitude-dependent precision:
// large values get 2 decimals, unit-scale values 4, small values 6.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "undefined"
	}
	abs := math.Abs(v)
	switch {
	case abs >= 100:
		return fmt.Sprintf("%.2f", v)
	case abs >= 1:
		return fmt.Sprintf("%.4f", v)
	default:
		return fmt.Sprintf("%.6f", v)
	}
}

// WriteReport emits the statistics for one metric. The label heads the
// report ("bandgap statistics:"); statistics follow in fixed order, then
// the histogram distribution.
func WriteReport(w io.Writer, label string, res AggregationResult) error {
	if label == "" {
		label = res.Metric
	}

	var pct float64
	if res.TotalSeen > 0 {
		pct = float64(res.PresentCount) / float64(res.TotalSeen) * 100
	}

	lines := []string{
		fmt.Sprintf("%s statistics:\n", label),
		fmt.Sprintf("  Total structures: %d\n", res.TotalSeen),
		fmt.Sprintf("  Structures with %s: %d (%.2f%%)\n", res.Metric, res.PresentCount, pct),
		fmt.Sprintf("  Min: %s\n", FormatValue(res.Min)),
		fmt.Sprintf("  Max: %s\n", FormatValue(res.Max)),
		fmt.Sprintf("  Range: %s\n", FormatValue(res.Range())),
		fmt.Sprintf("  Mean: %s\n", FormatValue(res.Mean)),
		fmt.Sprintf("  Median: %s\n", FormatValue(res.Median)),
		fmt.Sprintf("  Standard deviation: %s\n", FormatValue(res.Stddev)),
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}

	if len(res.Histogram) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "\nHistogram distribution:\n"); err != nil {
		return err
	}
	for _, bin := range res.Histogram {
		line := fmt.Sprintf("  %.4f to %.4f: %d structures\n", bin.Lower, bin.Upper, bin.Count)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteCensusReport emits the element census, most common element first.
func WriteCensusReport(w io.Writer, entries []CensusEntry) error {
	if _, err := io.WriteString(w, "Element occurrence in structures:\n"); err != nil {
		return err
	}
	for _, e := range entries {
		line := fmt.Sprintf("  %s: %d structures\n", e.Symbol, e.Count)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteCatalog emits the corpus overview: record count and the formula of
// every material, numbered in store order.
func WriteCatalog(w io.Writer, formulas []string) error {
	if _, err := fmt.Fprintf(w, "Database contains %d materials\n", len(formulas)); err != nil {
		return err
	}
	if len(formulas) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "\nMaterials in the database:\n"); err != nil {
		return err
	}
	for i, formula := range formulas {
		if _, err := fmt.Fprintf(w, "  %d. %s\n", i+1, formula); err != nil {
			return err
		}
	}
	return nil
}
