package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/wdm0006/proxfill/pkg/forest"
	"github.com/wdm0006/proxfill/pkg/proxfill"
)

type Config struct {
	Input struct {
		Path      string `json:"path" toml:"path" yaml:"path"`
		Type      string `json:"type" toml:"type" yaml:"type"` // csv|parquet (default by extension)
		HasHeader bool   `json:"has_header" toml:"has_header" yaml:"has_header"`
		Delimiter string `json:"delimiter" toml:"delimiter" yaml:"delimiter"`
	} `json:"input" toml:"input" yaml:"input"`
	Output struct {
		Path string `json:"path" toml:"path" yaml:"path"` // csv|parquet by extension
	} `json:"output" toml:"output" yaml:"output"`

	Target     string   `json:"target" toml:"target" yaml:"target"`
	Rounds     int      `json:"rounds" toml:"rounds" yaml:"rounds"`
	Window     int      `json:"window" toml:"window" yaml:"window"`
	Decimals   int      `json:"decimals" toml:"decimals" yaml:"decimals"`
	Resilience int      `json:"resilience" toml:"resilience" yaml:"resilience"`
	Forbidden  []string `json:"forbidden" toml:"forbidden" yaml:"forbidden"`
	Ordinal    []string `json:"ordinal" toml:"ordinal" yaml:"ordinal"`
	PlotsDir   string   `json:"plots_dir" toml:"plots_dir" yaml:"plots_dir"`

	Ensemble struct {
		InitialTrees          int     `json:"initial_trees" toml:"initial_trees" yaml:"initial_trees"`
		TreeIncrement         int     `json:"tree_increment" toml:"tree_increment" yaml:"tree_increment"`
		MaxDepth              int     `json:"max_depth" toml:"max_depth" yaml:"max_depth"`
		MinSamplesSplit       int     `json:"min_samples_split" toml:"min_samples_split" yaml:"min_samples_split"`
		MinSamplesLeaf        int     `json:"min_samples_leaf" toml:"min_samples_leaf" yaml:"min_samples_leaf"`
		MinWeightFractionLeaf float64 `json:"min_weight_fraction_leaf" toml:"min_weight_fraction_leaf" yaml:"min_weight_fraction_leaf"`
		MaxFeatures           string  `json:"max_features" toml:"max_features" yaml:"max_features"` // sqrt|log2|all
		MaxLeafNodes          int     `json:"max_leaf_nodes" toml:"max_leaf_nodes" yaml:"max_leaf_nodes"`
		MinImpurityDecrease   float64 `json:"min_impurity_decrease" toml:"min_impurity_decrease" yaml:"min_impurity_decrease"`
		Workers               int     `json:"workers" toml:"workers" yaml:"workers"`
		Seed                  int64   `json:"seed" toml:"seed" yaml:"seed"`
	} `json:"ensemble" toml:"ensemble" yaml:"ensemble"`
}

// loadConfig parses the config file; the format follows the extension
// (.toml, .yaml/.yml, anything else JSON).
func loadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	default:
		err = json.Unmarshal(b, &cfg)
	}
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ensembleConfig maps the file representation onto the library defaults;
// zero fields keep the default value.
func (c Config) ensembleConfig() (proxfill.EnsembleConfig, error) {
	ec := proxfill.DefaultEnsembleConfig()
	e := c.Ensemble
	if e.InitialTrees > 0 {
		ec.InitialTrees = e.InitialTrees
	}
	if e.TreeIncrement != 0 {
		ec.TreeIncrement = e.TreeIncrement
	}
	if e.MaxDepth > 0 {
		ec.MaxDepth = e.MaxDepth
	}
	if e.MinSamplesSplit > 0 {
		ec.MinSamplesSplit = e.MinSamplesSplit
	}
	if e.MinSamplesLeaf > 0 {
		ec.MinSamplesLeaf = e.MinSamplesLeaf
	}
	if e.MinWeightFractionLeaf > 0 {
		ec.MinWeightFractionLeaf = e.MinWeightFractionLeaf
	}
	if e.MaxLeafNodes > 0 {
		ec.MaxLeafNodes = e.MaxLeafNodes
	}
	if e.MinImpurityDecrease > 0 {
		ec.MinImpurityDecrease = e.MinImpurityDecrease
	}
	if e.Workers > 0 {
		ec.Workers = e.Workers
	}
	ec.Seed = e.Seed
	switch strings.ToLower(e.MaxFeatures) {
	case "", "sqrt":
		ec.MaxFeatures = forest.SampleSqrt
	case "log2":
		ec.MaxFeatures = forest.SampleLog2
	case "all":
		ec.MaxFeatures = forest.SampleAll
	default:
		return ec, fmt.Errorf("unknown max_features %q", e.MaxFeatures)
	}
	return ec, nil
}
