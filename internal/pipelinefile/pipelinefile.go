// Package pipelinefile loads and saves batch pipeline definitions: the selection
// edits, clustering configuration and optional plot projection applied to a dataset
// outside the HTTP workbench.
package pipelinefile

import (
	"fmt"
	"os"
	"path/filepath"

	"featurelab/domain/dataset"
	"featurelab/internal/pipeline"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// File is one pipeline definition
type File struct {
	// Selection edits are folded in order over the inferred selection.
	Selection []dataset.SelectionEdit `mapstructure:"selection" yaml:"selection,omitempty"`
	// Weights, when set, replaces every feature weight after the edits.
	Weights []float64                 `mapstructure:"weights" yaml:"weights,omitempty"`
	Cluster pipeline.ClusterConfig    `mapstructure:"cluster" yaml:"cluster"`
	Plot    *pipeline.ReductionConfig `mapstructure:"plot" yaml:"plot,omitempty"`
	// Seed overrides the configured random seed.
	Seed *int64 `mapstructure:"seed" yaml:"seed,omitempty"`
}

// Default returns a definition that clusters every inferred feature with k-means
func Default() *File {
	return &File{
		Cluster: pipeline.ClusterConfig{
			Reduction:   pipeline.ReductionConfig{Algorithm: pipeline.ReduceNone},
			Algorithm:   pipeline.ClusterKMeans,
			NumClusters: pipeline.DefaultClusters,
		},
	}
}

// Load reads a definition from path. FEATURELAB_SEED in the environment overrides
// the file's seed; missing cluster settings keep their defaults.
func Load(path string) (*File, error) {
	v := viper.New()
	v.SetEnvPrefix("FEATURELAB")
	v.AutomaticEnv()
	_ = v.BindEnv("seed")

	v.SetDefault("cluster.algorithm", string(pipeline.ClusterKMeans))
	v.SetDefault("cluster.num_clusters", pipeline.DefaultClusters)
	v.SetDefault("cluster.reduction.algorithm", string(pipeline.ReduceNone))

	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("unmarshal pipeline file: %w", err)
	}
	if v.IsSet("seed") && f.Seed == nil {
		seed := v.GetInt64("seed")
		f.Seed = &seed
	}
	return &f, nil
}

// Save writes the definition to path as YAML
func Save(f *File, path string) error {
	b, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write pipeline file: %w", err)
	}
	return nil
}

// ApplySelection folds the edits and weights of the definition over sel
func (f *File) ApplySelection(sel pipeline.Selection) (pipeline.Selection, error) {
	out, err := sel.Apply(f.Selection...)
	if err != nil {
		return nil, err
	}
	if len(f.Weights) > 0 {
		return out.SetWeights(f.Weights)
	}
	return out, nil
}

// Options applies the definition's seed override to opts
func (f *File) Options(opts pipeline.Options) pipeline.Options {
	if f.Seed != nil {
		opts.Seed = *f.Seed
	}
	return opts
}
