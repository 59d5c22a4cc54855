package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lattica-org/lattica/stats"
)

// ============================================================================
// RUN CONFIGURATION — YAML Pipeline Settings
// ============================================================================

// PropertySpec names one metric to analyze and how to label its report and
// histogram plot.
type PropertySpec struct {
	Metric   string `yaml:"metric"`
	Title    string `yaml:"title"`
	XLabel   string `yaml:"xlabel"`
	YLabel   string `yaml:"ylabel"`    // default "Number of structures"
	LogScale *bool  `yaml:"log_scale"` // default true
}

// Log reports the plot's log-scale setting with the default applied.
func (p PropertySpec) Log() bool {
	if p.LogScale == nil {
		return true
	}
	return *p.LogScale
}

// Config is one pipeline run.
type Config struct {
	Input            string `yaml:"input"`              // raw JSON-lines export
	StoreDir         string `yaml:"store_dir"`          // full corpus store
	FilteredStoreDir string `yaml:"filtered_store_dir"` // eligibility-screened store
	SampleStoreDir   string `yaml:"sample_store_dir"`   // small eligible sample, optional
	OutputDir        string `yaml:"output_dir"`         // report + plot files

	ApplyFilter   bool `yaml:"apply_filter"`   // analyze the filtered corpus
	SkipMalformed bool `yaml:"skip_malformed"` // skip-and-count vs abort on bad records
	Bins          int  `yaml:"bins"`           // histogram bins; 0 = sqrt rule

	Properties []PropertySpec `yaml:"properties"`
}

// Default returns the standard analysis set: the computed properties the
// database exports plus the structural size distributions.
func Default() *Config {
	return &Config{
		StoreDir:         "all_2dmat.store",
		FilteredStoreDir: "filtered_2dmat.store",
		OutputDir:        "analysis_results",
		SkipMalformed:    true,
		Properties: []PropertySpec{
			{Metric: "bandgap", Title: "Distribution of band gap", XLabel: "Band Gap (eV)"},
			{Metric: "decomposition_energy", Title: "Distribution of Decomposition Energy", XLabel: "Decomposition Energy (eV)"},
			{Metric: "exfoliation_energy_per_atom", Title: "Distribution of Exfoliation Energy per Atom", XLabel: "Exfoliation Energy per Atom (eV/atom)"},
			{Metric: "total_magnetization", Title: "Distribution of Total Magnetization", XLabel: "Total Magnetization (μB)"},
			{Metric: stats.MetricAtomCount, Title: "Distribution of atoms per structure", XLabel: "Number of atoms"},
			{Metric: stats.MetricElementCount, Title: "Distribution of elements per structure", XLabel: "Number of elements"},
		},
	}
}

// Parse decodes and validates a YAML config. Fields left empty keep the
// Default() values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return Parse(data)
}

func (c *Config) validate() error {
	if len(c.Properties) == 0 {
		return fmt.Errorf("config: no properties to analyze")
	}
	for _, p := range c.Properties {
		if !stats.KnownMetric(p.Metric) {
			return fmt.Errorf("config: unknown metric %q", p.Metric)
		}
	}
	if c.Bins < 0 {
		return fmt.Errorf("config: bins must be >= 0, got %d", c.Bins)
	}
	return nil
}
