package pipeline

import (
	"testing"

	"featurelab/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDropsUnselectedFeatures(t *testing.T) {
	raw := rawTable()
	sel, err := InferSelection(raw).Apply(
		dataset.SelectionEdit{Feature: "city", Type: dataset.TypeCategorical, Weight: 0, Transformation: dataset.TransformNone},
		dataset.SelectionEdit{Feature: "score", Type: dataset.TypeNone, Weight: 1, Transformation: dataset.TransformNone},
	)
	require.NoError(t, err)

	p, err := Process(raw, sel)
	require.NoError(t, err)

	assert.Equal(t, []string{"age"}, p.Table.Names())
	assert.Equal(t, []int{10, 11, 12, 13}, p.Table.Index)
	assert.Equal(t, []float64{20, 30, 40, 50}, p.Table.Columns[0].Numbers, "a lone feature keeps weight 1")
}

func TestProcessEncodesWeightsAndOrdersBlocks(t *testing.T) {
	raw := rawTable()
	sel, err := InferSelection(raw).Apply(
		dataset.SelectionEdit{Feature: "age", Type: dataset.TypeNumerical, Weight: 1, Transformation: dataset.TransformNone},
		dataset.SelectionEdit{Feature: "city", Type: dataset.TypeCategorical, Weight: 3, Transformation: dataset.TransformNone},
		dataset.SelectionEdit{Feature: "score", Type: dataset.TypeNone, Weight: 1, Transformation: dataset.TransformNone},
	)
	require.NoError(t, err)

	p, err := Process(raw, sel)
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "city_a", "city_b", "city_c"}, p.Table.Names())
	assert.Equal(t, []float64{5, 7.5, 10, 12.5}, p.Table.Columns[0].Numbers)
	assert.Equal(t, []float64{0.75, 0, 0.75, 0}, p.Table.Columns[1].Numbers)
	assert.Equal(t, []float64{0, 0.75, 0, 0}, p.Table.Columns[2].Numbers)
	assert.Equal(t, []float64{0, 0, 0, 0.75}, p.Table.Columns[3].Numbers)

	total := 0.0
	for _, rec := range p.Retained {
		total += rec.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}

func TestProcessAppliesTransformAfterWeight(t *testing.T) {
	raw := rawTable()
	sel, err := InferSelection(raw).Apply(
		dataset.SelectionEdit{Feature: "age", Type: dataset.TypeNumerical, Weight: 1, Transformation: dataset.TransformMinMax},
		dataset.SelectionEdit{Feature: "city", Type: dataset.TypeNone, Weight: 1, Transformation: dataset.TransformNone},
	)
	require.NoError(t, err)

	p, err := Process(raw, sel)
	require.NoError(t, err)

	age, ok := p.Table.Column("age")
	require.True(t, ok)
	for i, want := range []float64{0, 1.0 / 3, 2.0 / 3, 1} {
		assert.InDelta(t, want, age.Numbers[i], 1e-12)
	}
}

func TestProcessDoesNotMutateRawTable(t *testing.T) {
	raw := rawTable()
	sel, err := InferSelection(raw).SetWeights([]float64{2, 1, 1})
	require.NoError(t, err)

	_, err = Process(raw, sel)
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 30, 40, 50}, raw.Columns[0].Numbers)
}
