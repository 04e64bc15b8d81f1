// Package pipeline implements the feature-processing and clustering workbench core:
// selection normalization, encoding, weighting, transformation, dimension reduction,
// clustering and label reattachment.
//
// Every function takes its inputs by pointer or value and returns new tables; no
// stage mutates a table it was given, so concurrent runs over the same session data
// need no locking.
package pipeline

import (
	"featurelab/internal"
	"featurelab/internal/config"
)

var logger = internal.DefaultLogger.With("Pipeline")

// Fallback values used when a requested count is outside its valid range
const (
	DefaultComponents     = 3
	DefaultClusters       = 3
	DefaultMinClusterSize = 2
	DefaultCorrelationMax = 10
	DefaultScreeMax       = 10
	DefaultHistogramBins  = 20
)

// Options carries reproducibility and estimator settings shared by all runs
type Options struct {
	Seed int64
	// TSNEMaxComponents bounds the t-SNE component count; 0 means the feature count.
	TSNEMaxComponents int
	TSNEPerplexity    float64
	TSNEIterations    int
	KMeansRestarts    int
	KMeansMaxIter     int
}

// DefaultOptions returns the settings used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Seed:              0,
		TSNEMaxComponents: 3,
		TSNEPerplexity:    30,
		TSNEIterations:    500,
		KMeansRestarts:    10,
		KMeansMaxIter:     300,
	}
}

// OptionsFromConfig maps the environment driven pipeline configuration onto Options
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	return Options{
		Seed:              cfg.Seed,
		TSNEMaxComponents: cfg.TSNEMaxComponents,
		TSNEPerplexity:    cfg.TSNEPerplexity,
		TSNEIterations:    cfg.TSNEIterations,
		KMeansRestarts:    cfg.KMeansRestarts,
		KMeansMaxIter:     cfg.KMeansMaxIter,
	}
}
