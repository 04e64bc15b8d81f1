package pipeline

import (
	"testing"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawTable() *dataset.Table {
	return &dataset.Table{
		Index: []int{10, 11, 12, 13},
		Columns: []dataset.Column{
			dataset.NumericColumn("age", []float64{20, 30, 40, 50}),
			dataset.TextColumn("city", []string{"a", "b", "a", "c"}),
			dataset.NumericColumn("score", []float64{1, 2, 3, 4}),
		},
	}
}

func TestInferSelection(t *testing.T) {
	sel := InferSelection(rawTable())
	require.Len(t, sel, 4)

	assert.Equal(t, dataset.IndexColumn, sel[0].Feature)
	assert.Equal(t, dataset.TypeNumerical, sel[1].Type)
	assert.Equal(t, dataset.TypeCategorical, sel[2].Type)
	for _, rec := range sel {
		assert.Equal(t, 1.0, rec.Weight)
		assert.Equal(t, dataset.TransformNone, rec.Transformation)
	}
}

func TestApplyFoldsInOrder(t *testing.T) {
	sel := InferSelection(rawTable())

	out, err := sel.Apply(
		dataset.SelectionEdit{Position: 1, Type: dataset.TypeNumerical, Weight: 3, Transformation: dataset.TransformLog},
		dataset.SelectionEdit{Feature: "age", Type: dataset.TypeCategorical, Weight: 2, Transformation: dataset.TransformZScore},
	)
	require.NoError(t, err)

	assert.Equal(t, dataset.TypeCategorical, out[1].Type)
	assert.Equal(t, 2.0, out[1].Weight)
	assert.Equal(t, dataset.TransformZScore, out[1].Transformation)
	assert.Equal(t, 1.0, sel[1].Weight, "receiver must not change")
}

func TestApplyRejectsInvalidEdits(t *testing.T) {
	sel := InferSelection(rawTable())
	valid := dataset.SelectionEdit{Position: 1, Type: dataset.TypeNumerical, Weight: 1, Transformation: dataset.TransformNone}

	tests := []struct {
		name string
		edit func(e dataset.SelectionEdit) dataset.SelectionEdit
		code string
	}{
		{"index position", func(e dataset.SelectionEdit) dataset.SelectionEdit { e.Position = 0; return e }, errors.CodeValidationError},
		{"past the end", func(e dataset.SelectionEdit) dataset.SelectionEdit { e.Position = 9; return e }, errors.CodeValidationError},
		{"unknown type", func(e dataset.SelectionEdit) dataset.SelectionEdit { e.Type = "ordinal"; return e }, errors.CodeValidationError},
		{"unknown transformation", func(e dataset.SelectionEdit) dataset.SelectionEdit { e.Transformation = "sqrt"; return e }, errors.CodeValidationError},
		{"negative weight", func(e dataset.SelectionEdit) dataset.SelectionEdit { e.Weight = -1; return e }, errors.CodeValidationError},
		{"unknown feature", func(e dataset.SelectionEdit) dataset.SelectionEdit { e.Feature = "missing"; return e }, errors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sel.Apply(tt.edit(valid))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestRetainedNormalizesWeights(t *testing.T) {
	sel, err := InferSelection(rawTable()).Apply(
		dataset.SelectionEdit{Feature: "age", Type: dataset.TypeNumerical, Weight: 3, Transformation: dataset.TransformNone},
		dataset.SelectionEdit{Feature: "city", Type: dataset.TypeCategorical, Weight: 0, Transformation: dataset.TransformNone},
		dataset.SelectionEdit{Feature: "score", Type: dataset.TypeNumerical, Weight: 1, Transformation: dataset.TransformNone},
	)
	require.NoError(t, err)

	kept, err := sel.Retained()
	require.NoError(t, err)
	require.Len(t, kept, 2)

	assert.Equal(t, "age", kept[0].Feature)
	assert.Equal(t, "score", kept[1].Feature)
	assert.InDelta(t, 0.75, kept[0].Weight, 1e-12)
	assert.InDelta(t, 0.25, kept[1].Weight, 1e-12)
	assert.InDelta(t, 1.0, kept[0].Weight+kept[1].Weight, 1e-12)
}

func TestRetainedDropsTypeNone(t *testing.T) {
	sel, err := InferSelection(rawTable()).Apply(
		dataset.SelectionEdit{Feature: "city", Type: dataset.TypeNone, Weight: 5, Transformation: dataset.TransformNone},
	)
	require.NoError(t, err)

	kept, err := sel.Retained()
	require.NoError(t, err)
	for _, rec := range kept {
		assert.NotEqual(t, "city", rec.Feature)
		assert.NotEqual(t, dataset.IndexColumn, rec.Feature)
	}
}

func TestRetainedRejectsEmptySelection(t *testing.T) {
	sel, err := InferSelection(rawTable()).SetWeights([]float64{0, 0, 0})
	require.NoError(t, err)

	_, err = sel.Retained()
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestSetWeightsLengthMismatch(t *testing.T) {
	_, err := InferSelection(rawTable()).SetWeights([]float64{1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different from the number of features")
}
