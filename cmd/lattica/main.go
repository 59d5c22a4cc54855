package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lattica-org/lattica/config"
	"github.com/lattica-org/lattica/ingest"
	"github.com/lattica-org/lattica/material"
	"github.com/lattica-org/lattica/stats"
	"github.com/lattica-org/lattica/store"
)

// ============================================================================
// LATTICA CLI — Crystal-Structure Corpus Analytics
// ============================================================================
// Pipeline driver: ingest raw records into the store, screen by element
// composition, and write statistics/census reports plus plot data. All
// skip-vs-abort decisions live here — the core packages report failures
// and never skip on their own.
// ============================================================================

const version = "0.1.0"

// sampleLimit caps the eligible-sample store written alongside the filter.
const sampleLimit = 4

func main() {
	// ── Flags ─────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "Path to YAML pipeline config")
	inputPath := flag.String("input", "", "Raw JSON-lines export (overrides config)")
	storeDir := flag.String("store", "", "Corpus store directory (overrides config)")
	outDir := flag.String("out", "", "Report output directory (overrides config)")
	mode := flag.String("mode", "all", "Pipeline stage: ingest, filter, analyze, census, all")
	failFast := flag.Bool("fail-fast", false, "Abort ingestion on the first malformed record")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Lattica — crystal-structure corpus analytics

Usage:
  lattica --input db.json --mode ingest
  lattica --mode filter
  lattica --mode analyze --out analysis_results
  lattica --config pipeline.yaml --mode all

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Modes:
  ingest     Raw JSON-lines export → structure-record store
  filter     Store → eligibility-screened store (plus small sample store)
  analyze    Statistics report + histogram plot data per configured property
  census     Per-element structure-presence counts
  all        Full pipeline in order

Examples:
  # One-shot run over a fresh export
  lattica --input db.json --mode all

  # Re-analyze an existing store with custom bins
  lattica --config pipeline.yaml --mode analyze
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("lattica %s\n", version)
		os.Exit(0)
	}

	// ── Config ────────────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatalf("%v", err)
		}
		cfg = loaded
		log.Printf("📋 Loaded config: %d properties, filter=%v", len(cfg.Properties), cfg.ApplyFilter)
	}
	if *inputPath != "" {
		cfg.Input = *inputPath
	}
	if *storeDir != "" {
		cfg.StoreDir = *storeDir
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *failFast {
		cfg.SkipMalformed = false
	}

	// ── Dispatch ──────────────────────────────────────────────────────────
	switch *mode {
	case "ingest":
		runIngest(cfg)
	case "filter":
		runFilter(cfg)
	case "analyze":
		runAnalyze(cfg)
	case "census":
		runCensus(cfg)
	case "all":
		runIngest(cfg)
		runFilter(cfg)
		runAnalyze(cfg)
		runCensus(cfg)
	default:
		fatalf("unknown mode %q", *mode)
	}
}

// ============================================================================
// INGEST — raw export → store
// ============================================================================

func runIngest(cfg *config.Config) {
	if cfg.Input == "" {
		fatalf("--input (or config input:) is required for ingestion")
	}

	f, err := os.Open(cfg.Input)
	if err != nil {
		fatalf("open input: %v", err)
	}
	defer f.Close()

	st, err := store.Open(cfg.StoreDir)
	if err != nil {
		fatalf("%v", err)
	}
	defer st.Close()

	reader := ingest.NewReader(f)
	stored, skipped := 0, 0
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		var malformed *ingest.MalformedRecordError
		if errors.As(err, &malformed) {
			if !cfg.SkipMalformed {
				fatalf("%v", err)
			}
			skipped++
			log.Printf("⚠️ Skipping %v", err)
			continue
		}
		if err != nil {
			fatalf("%v", err)
		}
		if _, err := st.Append(rec); err != nil {
			fatalf("%v", err)
		}
		stored++
	}

	log.Printf("📥 Ingested %d records into %s (%d malformed skipped)",
		stored, cfg.StoreDir, skipped)
}

// ============================================================================
// FILTER — store → eligibility-screened store
// ============================================================================

func runFilter(cfg *config.Config) {
	src, err := store.Open(cfg.StoreDir)
	if err != nil {
		fatalf("%v", err)
	}
	defer src.Close()

	dst, err := store.Open(cfg.FilteredStoreDir)
	if err != nil {
		fatalf("%v", err)
	}
	defer dst.Close()

	var sample *store.Store
	if cfg.SampleStoreDir != "" {
		sample, err = store.Open(cfg.SampleStoreDir)
		if err != nil {
			fatalf("%v", err)
		}
		defer sample.Close()
	}

	total, kept := 0, 0
	err = src.Iterate(func(id string, rec *material.StructureRecord) error {
		total++
		if !material.EligibleRecord(rec) {
			return nil
		}
		if _, err := dst.Append(rec); err != nil {
			return err
		}
		if sample != nil && kept < sampleLimit {
			if _, err := sample.Append(rec); err != nil {
				return err
			}
		}
		kept++
		return nil
	})
	if err != nil {
		fatalf("%v", err)
	}

	log.Printf("🧪 Eligibility filter kept %d of %d records → %s", kept, total, cfg.FilteredStoreDir)
}

// ============================================================================
// ANALYZE — statistics reports + plot data
// ============================================================================

func runAnalyze(cfg *config.Config) {
	dir := cfg.StoreDir
	if cfg.ApplyFilter {
		dir = cfg.FilteredStoreDir
	}

	st, err := store.Open(dir)
	if err != nil {
		fatalf("%v", err)
	}
	defer st.Close()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fatalf("create output dir: %v", err)
	}
	prefix := storePrefix(dir)
	policy := stats.BinPolicy{Bins: cfg.Bins}

	writeCatalogReport(st, cfg.OutputDir, prefix)

	for _, prop := range cfg.Properties {
		src := st.Source()
		res, err := stats.Aggregate(src, prop.Metric, policy)
		src.Close()

		if errors.Is(err, stats.ErrUnknownProperty) {
			log.Printf("⚠️ No structures carry %q — skipping its report", prop.Metric)
			continue
		}
		if err != nil {
			fatalf("%v", err)
		}

		statsPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s_stats.txt", prefix, prop.Metric))
		writeFile(statsPath, func(w io.Writer) error {
			return stats.WriteReport(w, prop.Title, res)
		})

		plot := stats.BuildHistogramPlot(res, prop.Title, prop.XLabel, prop.YLabel, prop.Log())
		plotPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s_distribution.json", prefix, prop.Metric))
		writeFile(plotPath, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(plot)
		})

		log.Printf("📊 %s: %d/%d present, %d bins → %s",
			prop.Metric, res.PresentCount, res.TotalSeen, len(res.Histogram), statsPath)
	}
}

func writeCatalogReport(st *store.Store, outDir, prefix string) {
	var formulas []string
	err := st.Iterate(func(id string, rec *material.StructureRecord) error {
		formulas = append(formulas, rec.Formula)
		return nil
	})
	if err != nil {
		fatalf("%v", err)
	}

	path := filepath.Join(outDir, prefix+"_analysis.txt")
	writeFile(path, func(w io.Writer) error {
		return stats.WriteCatalog(w, formulas)
	})
	log.Printf("📄 Catalog of %d materials → %s", len(formulas), path)
}

// ============================================================================
// CENSUS — per-element structure-presence counts
// ============================================================================

func runCensus(cfg *config.Config) {
	dir := cfg.StoreDir
	if cfg.ApplyFilter {
		dir = cfg.FilteredStoreDir
	}

	st, err := store.Open(dir)
	if err != nil {
		fatalf("%v", err)
	}
	defer st.Close()

	src := st.Source()
	acc, err := stats.Census(src)
	src.Close()
	if err != nil {
		fatalf("%v", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fatalf("create output dir: %v", err)
	}
	path := filepath.Join(cfg.OutputDir, storePrefix(dir)+"_element_analysis.txt")
	writeFile(path, func(w io.Writer) error {
		return stats.WriteCensusReport(w, acc.Entries())
	})

	log.Printf("🔬 Census: %d elements across %d records → %s",
		len(acc.Entries()), acc.Records(), path)
}

// ============================================================================
// HELPERS
// ============================================================================

// storePrefix derives the report filename prefix from the store directory.
func storePrefix(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func writeFile(path string, fn func(w io.Writer) error) {
	f, err := os.Create(path)
	if err != nil {
		fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		fatalf("write %s: %v", path, err)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
