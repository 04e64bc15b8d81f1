package pipeline

import (
	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// ClusterAlgorithm selects the clusterer
type ClusterAlgorithm string

const (
	ClusterKMeans  ClusterAlgorithm = "kmeans"
	ClusterHDBSCAN ClusterAlgorithm = "hdbscan"
)

// ClusterConfig describes one clustering run over a processed table
type ClusterConfig struct {
	RandomSampling bool `json:"random_sampling" mapstructure:"random_sampling" yaml:"random_sampling"`
	// SampleSize is a percentage of rows in (0, 100].
	SampleSize     float64          `json:"sample_size" mapstructure:"sample_size" yaml:"sample_size"`
	Reduction      ReductionConfig  `json:"reduction" mapstructure:"reduction" yaml:"reduction"`
	Algorithm      ClusterAlgorithm `json:"algorithm" mapstructure:"algorithm" yaml:"algorithm"`
	NumClusters    int              `json:"num_clusters" mapstructure:"num_clusters" yaml:"num_clusters"`
	MinClusterSize int              `json:"min_cluster_size" mapstructure:"min_cluster_size" yaml:"min_cluster_size"`
}

// ClusterResult is the outcome of a clustering run
type ClusterResult struct {
	// Table holds the cluster label column followed by the processed columns,
	// keyed by the index of every clustered row.
	Table dataset.Table
	// Labels are the 1-based labels in row order; 0 marks HDBSCAN noise.
	Labels    []int
	Reduction *Reduction
	Report    Report
	Sampled   bool
	// Parameter is the effective k (kmeans) or minimum cluster size (hdbscan).
	Parameter  int
	Clusters   int
	NoiseCount int
}

// Cluster runs optional sampling, dimension reduction and clustering over a
// processed table, then joins the shifted labels back onto the processed rows by
// index. Out of range counts fall back to defaults and the report says so.
func Cluster(processed *dataset.Table, cfg ClusterConfig, opts Options) (*ClusterResult, error) {
	if processed.Rows() == 0 || len(processed.Columns) == 0 {
		return nil, errors.ValidationError("processed table is empty")
	}
	result := &ClusterResult{}
	work := processed

	if cfg.RandomSampling {
		positions, ok := Sample(processed.Rows(), cfg.SampleSize, opts.Seed)
		switch {
		case !ok:
			result.Report.add("Invalid sample size (%g%%). Random sampling not performed.", cfg.SampleSize)
		case len(positions) == 0:
			return nil, errors.Newf(errors.CodeValidationError, "a %g%% sample of %d rows is empty", cfg.SampleSize, processed.Rows())
		default:
			sampled := processed.SelectRows(positions)
			work = &sampled
			result.Sampled = true
			result.Report.add("Sampled %d records.", len(positions))
		}
	} else {
		result.Report.add("Random sampling not performed.")
	}

	x, err := featureMatrix(work)
	if err != nil {
		return nil, err
	}

	red, err := Reduce(x, work.Names(), cfg.Reduction, opts)
	if err != nil {
		return nil, err
	}
	result.Reduction = red
	if red.FellBack {
		result.Report.add("Invalid number of components (%d). Using %d.", red.Requested, DefaultComponents)
	}
	if red.Capped {
		result.Report.add("Only %d components available for PCA.", red.Components)
	}
	switch red.Algorithm {
	case ReducePCA:
		result.Report.add("Extracted %d components with PCA.", red.Components)
	case ReduceTSNE:
		result.Report.add("Extracted %d components with TSNE.", red.Components)
	default:
		result.Report.add("Dimension reduction not performed.")
	}

	raw, err := result.fit(red.Matrix, cfg, opts)
	if err != nil {
		return nil, err
	}

	result.Labels = ShiftLabels(raw)
	distinct := make(map[int]struct{})
	for _, l := range result.Labels {
		distinct[l] = struct{}{}
		if l == 0 && cfg.Algorithm == ClusterHDBSCAN {
			result.NoiseCount++
		}
	}
	result.Clusters = len(distinct)
	result.Report.add("Found %d clusters.", result.Clusters)

	table, err := joinLabels(work.Index, result.Labels, processed)
	if err != nil {
		return nil, err
	}
	result.Table = table

	logger.Debug("clustered %d rows with %s into %d clusters", work.Rows(), cfg.Algorithm, result.Clusters)
	return result, nil
}

func (r *ClusterResult) fit(x *mat.Dense, cfg ClusterConfig, opts Options) ([]int, error) {
	rows, _ := x.Dims()
	switch cfg.Algorithm {
	case ClusterKMeans, "":
		k := cfg.NumClusters
		if k <= 0 || k > rows {
			k = DefaultClusters
			if k > rows {
				k = rows
			}
			r.Report.add("Invalid number of clusters (%d). Using %d.", cfg.NumClusters, k)
		}
		r.Parameter = k
		km := KMeans{K: k, MaxIter: opts.KMeansMaxIter, Restarts: opts.KMeansRestarts, Seed: opts.Seed}
		labels, _, err := km.Fit(x)
		if err != nil {
			return nil, err
		}
		r.Report.add("Performed K-means clustering.")
		return labels, nil

	case ClusterHDBSCAN:
		size := cfg.MinClusterSize
		if size <= 1 || size > rows {
			size = DefaultMinClusterSize
			r.Report.add("Invalid minimum cluster size (%d). Using %d.", cfg.MinClusterSize, size)
		}
		r.Parameter = size
		labels, err := HDBSCAN{MinClusterSize: size}.Fit(x)
		if err != nil {
			return nil, err
		}
		r.Report.add("Performed HDBSCAN clustering.")
		return labels, nil
	}
	return nil, errors.Newf(errors.CodeInvalidInput, "unknown clustering algorithm %q", cfg.Algorithm)
}

// ShiftLabels maps raw labels to 1-based labels, so HDBSCAN noise (-1) becomes 0
func ShiftLabels(labels []int) []int {
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = l + 1
	}
	return out
}

// joinLabels left joins the (index, label) pairs onto the processed table by index value
func joinLabels(index, labels []int, processed *dataset.Table) (dataset.Table, error) {
	pos := processed.Positions()
	positions := make([]int, len(index))
	for i, idx := range index {
		p, ok := pos[idx]
		if !ok {
			return dataset.Table{}, errors.Newf(errors.CodeInternalError, "index %d missing from processed table", idx)
		}
		positions[i] = p
	}
	joined := processed.SelectRows(positions)

	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = float64(l)
	}
	joined.Columns = append([]dataset.Column{dataset.NumericColumn(dataset.LabelColumn, values)}, joined.Columns...)
	return joined, nil
}
