package pipeline

import (
	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ReductionAlgorithm selects the dimension reducer
type ReductionAlgorithm string

const (
	ReduceNone ReductionAlgorithm = "none"
	ReducePCA  ReductionAlgorithm = "pca"
	ReduceTSNE ReductionAlgorithm = "tsne"
)

// ReductionConfig requests a projection to Components dimensions
type ReductionConfig struct {
	Algorithm  ReductionAlgorithm `json:"algorithm" mapstructure:"algorithm" yaml:"algorithm"`
	Components int                `json:"components" mapstructure:"components" yaml:"components"`
}

// Reduction is the projected matrix and how it was produced
type Reduction struct {
	Algorithm  ReductionAlgorithm
	Matrix     *mat.Dense
	Names      []string
	Requested  int
	Components int
	// FellBack is set when the requested component count was out of range and
	// DefaultComponents was used instead.
	FellBack bool
	// Capped is set when PCA could extract fewer components than asked for,
	// min(rows, columns), and returned that many instead.
	Capped bool
	// ExplainedVariance holds per-component variance ratios for PCA.
	ExplainedVariance []float64
}

// Reduce projects x according to cfg. names labels the columns of x and is reused
// unchanged when no reduction is requested. Projected columns are named
// "Component 1".."Component k".
func Reduce(x *mat.Dense, names []string, cfg ReductionConfig, opts Options) (*Reduction, error) {
	n, d := x.Dims()
	out := &Reduction{Algorithm: cfg.Algorithm, Requested: cfg.Components}

	switch cfg.Algorithm {
	case ReduceNone, "":
		out.Algorithm = ReduceNone
		out.Matrix = mat.DenseCopyOf(x)
		out.Names = append([]string(nil), names...)
		out.Components = d
		return out, nil

	case ReducePCA:
		k := cfg.Components
		if k <= 0 || k > d {
			k, out.FellBack = DefaultComponents, true
		}
		proj, ratios, err := PCA(x, k)
		if err != nil {
			return nil, err
		}
		_, out.Components = proj.Dims()
		out.Capped = out.Components < k
		out.Matrix = proj
		out.ExplainedVariance = ratios
		out.Names = componentNames(out.Components)

	case ReduceTSNE:
		upper := opts.TSNEMaxComponents
		if upper <= 0 {
			upper = d
		}
		k := cfg.Components
		if k <= 0 || k > upper {
			k, out.FellBack = DefaultComponents, true
		}
		tsne := NewTSNE(k, opts.TSNEPerplexity, opts.TSNEIterations, opts.Seed)
		emb, err := tsne.Embed(x)
		if err != nil {
			return nil, err
		}
		out.Matrix = emb
		out.Components = k
		out.Names = componentNames(k)

	default:
		return nil, errors.Newf(errors.CodeInvalidInput, "unknown dimension reduction %q", cfg.Algorithm)
	}

	logger.Debug("reduced %dx%d with %s to %d components (requested %d)", n, d, out.Algorithm, out.Components, cfg.Components)
	return out, nil
}

// PCA projects the centered data onto its first k principal components and returns
// the projection with the explained variance ratio of those components. k is capped
// at the number of components the data supports, min(rows, columns). Each
// component's sign is fixed so its largest-magnitude loading is positive, making the
// projection deterministic.
func PCA(x *mat.Dense, k int) (*mat.Dense, []float64, error) {
	n, d := x.Dims()
	if n < 2 {
		return nil, nil, errors.ValidationError("PCA needs at least two rows")
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, nil, errors.InternalError("principal component decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	_, avail := vecs.Dims()
	if k > avail {
		k = avail
	}

	loadings := mat.DenseCopyOf(vecs.Slice(0, d, 0, k))
	for j := 0; j < k; j++ {
		col := mat.Col(nil, j, loadings)
		if col[floats.MaxIdx(absAll(col))] < 0 {
			floats.Scale(-1, col)
			loadings.SetCol(j, col)
		}
	}

	centered := mat.DenseCopyOf(x)
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, x)
		floats.AddConst(-stat.Mean(col, nil), col)
		centered.SetCol(j, col)
	}

	var proj mat.Dense
	proj.Mul(centered, loadings)

	total := floats.Sum(vars)
	ratios := make([]float64, k)
	for i := 0; i < k && i < len(vars); i++ {
		if total > 0 {
			ratios[i] = vars[i] / total
		}
	}
	return &proj, ratios, nil
}

// Scree returns the explained variance ratio of the first min(DefaultScreeMax,
// features) principal components of the table.
func Scree(t *dataset.Table) ([]float64, error) {
	x, err := featureMatrix(t)
	if err != nil {
		return nil, err
	}
	_, d := x.Dims()
	k := DefaultScreeMax
	if d < k {
		k = d
	}
	_, ratios, err := PCA(x, k)
	return ratios, err
}

func absAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = abs(x)
	}
	return out
}
