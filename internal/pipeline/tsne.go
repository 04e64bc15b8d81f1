package pipeline

import (
	"math"
	"math/rand"

	"featurelab/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	tsneLearningRate    = 200.0
	tsneExaggeration    = 12.0
	tsneExaggerationEnd = 250
	tsneMomentumSwitch  = 250
	tsneMinGain         = 0.01
	tsneMinProbability  = 1e-12
	tsnePerplexityTol   = 1e-5
	tsneSearchSteps     = 50
)

// TSNE is an exact (O(n²)) t-distributed stochastic neighbour embedding with early
// exaggeration, momentum and per-coordinate gains. A fixed seed makes it
// deterministic.
type TSNE struct {
	Components int
	Perplexity float64
	Iterations int
	Seed       int64
}

// NewTSNE creates an embedder producing k dimensions
func NewTSNE(k int, perplexity float64, iterations int, seed int64) *TSNE {
	if perplexity <= 0 {
		perplexity = 30
	}
	if iterations <= 0 {
		iterations = 500
	}
	return &TSNE{Components: k, Perplexity: perplexity, Iterations: iterations, Seed: seed}
}

// Embed maps the rows of x to Components dimensions
func (t *TSNE) Embed(x *mat.Dense) (*mat.Dense, error) {
	n, _ := x.Dims()
	if n < 2 {
		return nil, errors.ValidationError("t-SNE needs at least two rows")
	}
	if t.Components < 1 {
		return nil, errors.ValidationError("t-SNE needs at least one component")
	}

	perplexity := t.Perplexity
	if limit := math.Max(1, float64(n-1)/3); perplexity > limit {
		perplexity = limit
	}

	p := t.jointProbabilities(x, perplexity)

	rng := rand.New(rand.NewSource(t.Seed))
	k := t.Components
	y := make([][]float64, n)
	update := make([][]float64, n)
	gains := make([][]float64, n)
	for i := range y {
		y[i] = make([]float64, k)
		update[i] = make([]float64, k)
		gains[i] = make([]float64, k)
		for d := 0; d < k; d++ {
			y[i][d] = rng.NormFloat64() * 1e-4
			gains[i][d] = 1
		}
	}

	num := make([][]float64, n)
	for i := range num {
		num[i] = make([]float64, n)
	}
	grad := make([]float64, k)

	for iter := 0; iter < t.Iterations; iter++ {
		exaggeration := 1.0
		if iter < tsneExaggerationEnd && iter < t.Iterations/2 {
			exaggeration = tsneExaggeration
		}
		momentum := 0.5
		if iter >= tsneMomentumSwitch {
			momentum = 0.8
		}

		sum := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dist := floats.Distance(y[i], y[j], 2)
				q := 1 / (1 + dist*dist)
				num[i][j], num[j][i] = q, q
				sum += 2 * q
			}
		}

		for i := 0; i < n; i++ {
			for d := range grad {
				grad[d] = 0
			}
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				q := math.Max(num[i][j]/sum, tsneMinProbability)
				mult := 4 * (exaggeration*p[i][j] - q) * num[i][j]
				for d := 0; d < k; d++ {
					grad[d] += mult * (y[i][d] - y[j][d])
				}
			}
			for d := 0; d < k; d++ {
				if (grad[d] > 0) != (update[i][d] > 0) {
					gains[i][d] += 0.2
				} else {
					gains[i][d] *= 0.8
				}
				if gains[i][d] < tsneMinGain {
					gains[i][d] = tsneMinGain
				}
				update[i][d] = momentum*update[i][d] - tsneLearningRate*gains[i][d]*grad[d]
			}
		}

		for i := 0; i < n; i++ {
			floats.Add(y[i], update[i])
		}
		center(y)
	}

	out := mat.NewDense(n, k, nil)
	for i := range y {
		out.SetRow(i, y[i])
	}
	return out, nil
}

// jointProbabilities calibrates a Gaussian per point to the target perplexity and
// symmetrizes the conditional probabilities.
func (t *TSNE) jointProbabilities(x *mat.Dense, perplexity float64) [][]float64 {
	n, _ := x.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(rows[i], rows[j], 2)
			dist[i][j], dist[j][i] = d*d, d*d
		}
	}

	target := math.Log(perplexity)
	cond := make([][]float64, n)
	for i := 0; i < n; i++ {
		cond[i] = make([]float64, n)
		beta, lo, hi := 1.0, math.Inf(-1), math.Inf(1)
		for step := 0; step < tsneSearchSteps; step++ {
			entropy := conditionalRow(dist[i], i, beta, cond[i])
			diff := entropy - target
			if math.Abs(diff) < tsnePerplexityTol {
				break
			}
			if diff > 0 {
				lo = beta
				if math.IsInf(hi, 1) {
					beta *= 2
				} else {
					beta = (beta + hi) / 2
				}
			} else {
				hi = beta
				if math.IsInf(lo, -1) {
					beta /= 2
				} else {
					beta = (beta + lo) / 2
				}
			}
		}
	}

	p := make([][]float64, n)
	for i := range p {
		p[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			p[i][j] = math.Max((cond[i][j]+cond[j][i])/(2*float64(n)), tsneMinProbability)
		}
	}
	return p
}

// conditionalRow fills out with p(j|i) for precision beta and returns the entropy
func conditionalRow(dist []float64, i int, beta float64, out []float64) float64 {
	sum := 0.0
	for j, d := range dist {
		if j == i {
			out[j] = 0
			continue
		}
		out[j] = math.Exp(-d * beta)
		sum += out[j]
	}
	if sum == 0 {
		sum = tsneMinProbability
	}
	entropy := 0.0
	for j, d := range dist {
		if j == i {
			continue
		}
		out[j] /= sum
		entropy += beta * d * out[j]
	}
	return math.Log(sum) + entropy
}

func center(y [][]float64) {
	if len(y) == 0 {
		return
	}
	mean := make([]float64, len(y[0]))
	for _, row := range y {
		floats.Add(mean, row)
	}
	floats.Scale(1/float64(len(y)), mean)
	for _, row := range y {
		floats.Sub(row, mean)
	}
}
