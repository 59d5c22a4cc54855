package stats

// ============================================================================
// PLOT BUILDER — Histogram Data for the External Renderer
// ============================================================================
// The rendering collaborator receives bin edges, counts, and marker lines;
// styling and drawing are its problem. The only obligation here is
// correctly-binned, correctly-labeled numbers.
// ============================================================================

// HistogramPlot is render-ready distribution data for one metric.
type HistogramPlot struct {
	Title    string    `json:"title"`
	XLabel   string    `json:"xlabel"`
	YLabel   string    `json:"ylabel"`
	LogScale bool      `json:"logScale"`
	Edges    []float64 `json:"edges"` // len(Counts)+1 ascending bin edges
	Counts   []int     `json:"counts"`
	Mean     float64   `json:"mean"`   // vertical marker
	Median   float64   `json:"median"` // vertical marker
}

// BuildHistogramPlot converts an AggregationResult into plot data.
// Returns nil when the result carries no histogram (nothing to draw).
func BuildHistogramPlot(res AggregationResult, title, xlabel, ylabel string, logScale bool) *HistogramPlot {
	if len(res.Histogram) == 0 {
		return nil
	}
	if ylabel == "" {
		ylabel = "Number of structures"
	}

	edges := make([]float64, 0, len(res.Histogram)+1)
	counts := make([]int, 0, len(res.Histogram))
	for _, bin := range res.Histogram {
		edges = append(edges, bin.Lower)
		counts = append(counts, bin.Count)
	}
	edges = append(edges, res.Histogram[len(res.Histogram)-1].Upper)

	return &HistogramPlot{
		Title:    title,
		XLabel:   xlabel,
		YLabel:   ylabel,
		LogScale: logScale,
		Edges:    edges,
		Counts:   counts,
		Mean:     res.Mean,
		Median:   res.Median,
	}
}
