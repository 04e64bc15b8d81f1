package pipeline

import (
	"math/rand"

	"featurelab/domain/dataset"

	"gonum.org/v1/gonum/mat"
)

func seqIndex(n, start int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = start + i
	}
	return idx
}

func numericTable(index []int, cols ...dataset.Column) *dataset.Table {
	return &dataset.Table{Index: index, Columns: cols}
}

// randomTable builds rows×features of reproducible standard normal data
func randomTable(rows, features int, seed int64) *dataset.Table {
	rng := rand.New(rand.NewSource(seed))
	t := &dataset.Table{Index: seqIndex(rows, 0)}
	for j := 0; j < features; j++ {
		values := make([]float64, rows)
		for i := range values {
			values[i] = rng.NormFloat64()
		}
		t.Columns = append(t.Columns, dataset.NumericColumn(string(rune('a'+j)), values))
	}
	return t
}

// blobs returns points spread along short lines around each center, plus any extra
// points appended at the end.
func blobs(perBlob int, centers [][2]float64, extra ...[2]float64) *mat.Dense {
	var data []float64
	for _, c := range centers {
		for i := 0; i < perBlob; i++ {
			data = append(data, c[0]+float64(i)*0.1, c[1])
		}
	}
	for _, p := range extra {
		data = append(data, p[0], p[1])
	}
	return mat.NewDense(len(data)/2, 2, data)
}

func blobTable(perBlob int, centers [][2]float64, extra ...[2]float64) *dataset.Table {
	x := blobs(perBlob, centers, extra...)
	rows, _ := x.Dims()
	t := matrixTable(seqIndex(rows, 0), x, []string{"x", "y"})
	return &t
}
