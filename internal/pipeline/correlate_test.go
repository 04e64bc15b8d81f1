package pipeline

import (
	"fmt"
	"testing"

	"featurelab/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelate(t *testing.T) {
	tbl := numericTable(seqIndex(4, 0),
		dataset.NumericColumn("a", []float64{1, 2, 3, 4}),
		dataset.NumericColumn("b", []float64{2, 4, 6, 8}),
		dataset.NumericColumn("c", []float64{4, 3, 2, 1}),
		dataset.NumericColumn("flat", []float64{1, 1, 1, 1}),
	)

	corr, err := Correlate(tbl, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "flat"}, corr.Features)

	assert.InDelta(t, 1, corr.Values[0][0], 1e-9)
	assert.InDelta(t, 1, corr.Values[0][1], 1e-9)
	assert.InDelta(t, -1, corr.Values[0][2], 1e-9)
	assert.Equal(t, 0.0, corr.Values[0][3], "undefined correlation is reported as 0")
	assert.Equal(t, 0.0, corr.Values[3][3])
}

func TestCorrelateDefaultsToFirstColumns(t *testing.T) {
	tbl := randomTable(12, 14, 3)
	corr, err := Correlate(tbl, nil)
	require.NoError(t, err)
	assert.Len(t, corr.Features, DefaultCorrelationMax)
	assert.Len(t, corr.Values, DefaultCorrelationMax)
}

func TestCorrelateRequestedFeatures(t *testing.T) {
	tbl := randomTable(12, 4, 3)
	corr, err := Correlate(tbl, []string{"d", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a"}, corr.Features)

	_, err = Correlate(tbl, []string{"zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("feature %s", "zz"))
}

func TestCorrelateSpearmanMonotonic(t *testing.T) {
	tbl := numericTable(seqIndex(5, 0),
		dataset.NumericColumn("x", []float64{1, 2, 3, 4, 5}),
		dataset.NumericColumn("cube", []float64{1, 8, 27, 64, 125}),
	)

	pearson, err := Correlate(tbl, nil)
	require.NoError(t, err)
	assert.Equal(t, Pearson, pearson.Method)
	assert.Less(t, pearson.Values[0][1], 0.99)

	spearman, err := CorrelateWith(tbl, nil, Spearman)
	require.NoError(t, err)
	assert.Equal(t, Spearman, spearman.Method)
	assert.InDelta(t, 1, spearman.Values[0][1], 1e-9)

	_, err = CorrelateWith(tbl, nil, "kendall")
	assert.Error(t, err)
}

func TestRanksAverageTies(t *testing.T) {
	assert.Equal(t, []float64{3, 1.5, 1.5, 4}, ranks([]float64{5, 2, 2, 9}))
}
