package pipeline

import (
	"math"
	"math/rand"

	"featurelab/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KMeans partitions rows into K clusters with k-means++ seeding and Lloyd
// iterations. The best of Restarts runs by inertia wins.
type KMeans struct {
	K        int
	MaxIter  int
	Restarts int
	Seed     int64
}

// Fit returns a 0-based cluster label per row and the within-cluster sum of squares
func (km KMeans) Fit(x *mat.Dense) ([]int, float64, error) {
	n, _ := x.Dims()
	if km.K < 1 || km.K > n {
		return nil, 0, errors.Newf(errors.CodeValidationError, "k-means needs 1 <= k <= %d, got %d", n, km.K)
	}
	maxIter, restarts := km.MaxIter, km.Restarts
	if maxIter < 1 {
		maxIter = 300
	}
	if restarts < 1 {
		restarts = 1
	}

	points := make([][]float64, n)
	for i := range points {
		points[i] = mat.Row(nil, i, x)
	}

	rng := rand.New(rand.NewSource(km.Seed))
	var best []int
	bestInertia := math.Inf(1)
	for r := 0; r < restarts; r++ {
		labels, inertia := km.lloyd(points, rng, maxIter)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return best, bestInertia, nil
}

func (km KMeans) lloyd(points [][]float64, rng *rand.Rand, maxIter int) ([]int, float64) {
	centroids := seedPlusPlus(points, km.K, rng)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}
	dim := len(points[0])

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			c, _ := nearest(p, centroids)
			if c != labels[i] {
				labels[i], changed = c, true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, km.K)
		for c := range centroids {
			centroids[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(centroids[labels[i]], p)
			counts[labels[i]]++
		}
		for c := range centroids {
			if counts[c] > 0 {
				floats.Scale(1/float64(counts[c]), centroids[c])
			}
		}
		for c := range centroids {
			if counts[c] > 0 {
				continue
			}
			// empty cluster: move it onto the point farthest from its centroid
			far := farthest(points, labels, centroids)
			copy(centroids[c], points[far])
			labels[far] = c
		}
	}
	return labels, inertia(points, labels, centroids)
}

// seedPlusPlus picks k initial centroids, each subsequent one with probability
// proportional to its squared distance from the nearest centroid already chosen.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), points[rng.Intn(len(points))]...))
	dist := make([]float64, len(points))
	for len(centroids) < k {
		for i, p := range points {
			_, d := nearest(p, centroids)
			dist[i] = d * d
		}
		total := floats.Sum(dist)
		pick := 0
		if total == 0 {
			pick = rng.Intn(len(points))
		} else {
			target := rng.Float64() * total
			for i, d := range dist {
				if d == 0 {
					continue
				}
				pick = i
				if target -= d; target <= 0 {
					break
				}
			}
		}
		centroids = append(centroids, append([]float64(nil), points[pick]...))
	}
	return centroids
}

func nearest(p []float64, centroids [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(p, centroid, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func farthest(points [][]float64, labels []int, centroids [][]float64) int {
	far, farDist := 0, -1.0
	for i, p := range points {
		if d := floats.Distance(p, centroids[labels[i]], 2); d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

func inertia(points [][]float64, labels []int, centroids [][]float64) float64 {
	sum := 0.0
	for i, p := range points {
		d := floats.Distance(p, centroids[labels[i]], 2)
		sum += d * d
	}
	return sum
}
