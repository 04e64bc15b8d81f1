package pipeline

import (
	"testing"

	"featurelab/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tbl := numericTable(seqIndex(4, 100),
		dataset.NumericColumn("x", []float64{4, 1, 3, 2}),
		dataset.NumericColumn("single", []float64{7, 7, 7, 7}),
	)

	got, err := Describe(tbl)
	require.NoError(t, err)
	require.Len(t, got, 2)

	x := got[0]
	assert.Equal(t, "x", x.Feature)
	assert.Equal(t, 4, x.Count)
	assert.InDelta(t, 2.5, x.Mean, 1e-12)
	assert.InDelta(t, 1.2909944, x.Std, 1e-6)
	assert.Equal(t, 1.0, x.Min)
	assert.InDelta(t, 1.75, x.Q25, 1e-12)
	assert.InDelta(t, 2.5, x.Q50, 1e-12)
	assert.InDelta(t, 3.25, x.Q75, 1e-12)
	assert.Equal(t, 4.0, x.Max)

	assert.Equal(t, 0.0, got[1].Std)
	assert.Equal(t, 1.29, x.Rounded(2).Std)
}

func TestDescribeSkipsTextColumns(t *testing.T) {
	tbl := numericTable(seqIndex(2, 0),
		dataset.TextColumn("name", []string{"a", "b"}),
		dataset.NumericColumn("v", []float64{1, 1}),
	)
	got, err := Describe(tbl)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v", got[0].Feature)
}

func TestQuantileSingleValue(t *testing.T) {
	assert.Equal(t, 5.0, quantile([]float64{5}, 0.75))
}
