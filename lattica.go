// Package lattica provides a crystal-structure corpus analytics pipeline.
//
// Usage:
//
//	import (
//	    "github.com/lattica-org/lattica/ingest"
//	    "github.com/lattica-org/lattica/stats"
//	)
//
//	rec, err := ingest.ParseRecord(rawJSON)
//	res, err := stats.Aggregate(source, "bandgap", stats.BinPolicy{})
//
// Raw nested materials-database records are normalized into immutable
// StructureRecords, optionally screened by element composition, and folded
// into descriptive statistics, histograms, and a per-element census in a
// single forward pass. Persistence lives in the store package; report and
// plot builders only produce data — rendering is the consumer's job.
package lattica
