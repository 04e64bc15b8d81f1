package pipeline

import (
	"sort"
	"testing"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelsOf(t *testing.T, tbl *dataset.Table) []float64 {
	t.Helper()
	col, ok := tbl.Column(dataset.LabelColumn)
	require.True(t, ok)
	return col.Numbers
}

func TestClusterSingleFeatureKMeans(t *testing.T) {
	age := make([]float64, 100)
	for i := range age {
		age[i] = float64(20 + i%50)
	}
	raw := numericTable(seqIndex(100, 0), dataset.NumericColumn("age", age))
	p, err := Process(raw, InferSelection(raw))
	require.NoError(t, err)

	res, err := Cluster(&p.Table, ClusterConfig{Algorithm: ClusterKMeans, NumClusters: 4}, fastOptions())
	require.NoError(t, err)

	assert.Equal(t, 100, res.Table.Rows())
	assert.Equal(t, raw.Index, res.Table.Index)
	assert.Equal(t, []string{dataset.LabelColumn, "age"}, res.Table.Names())

	for _, l := range res.Labels {
		assert.True(t, l >= 1 && l <= 4, "label %d", l)
	}
	assert.Equal(t, 4, res.Clusters)

	got, ok := res.Table.Column("age")
	require.True(t, ok)
	assert.Equal(t, age, got.Numbers)

	assert.Equal(t, []string{
		"Random sampling not performed.",
		"Dimension reduction not performed.",
		"Performed K-means clustering.",
		"Found 4 clusters.",
	}, res.Report.Messages)
}

func TestClusterPCAFallsBackToThreeComponents(t *testing.T) {
	processed := randomTable(30, 4, 21)

	res, err := Cluster(processed, ClusterConfig{
		Reduction:   ReductionConfig{Algorithm: ReducePCA, Components: 0},
		Algorithm:   ClusterKMeans,
		NumClusters: 2,
	}, fastOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Reduction.Components)
	assert.Contains(t, res.Report.Messages, "Invalid number of components (0). Using 3.")
	assert.Contains(t, res.Report.Messages, "Extracted 3 components with PCA.")
	assert.Equal(t, []string{dataset.LabelColumn, "a", "b", "c", "d"}, res.Table.Names(), "labels join onto pre-reduction columns")
}

func TestClusterReportsCappedPCA(t *testing.T) {
	processed := randomTable(3, 4, 13)

	res, err := Cluster(processed, ClusterConfig{
		Reduction:   ReductionConfig{Algorithm: ReducePCA, Components: 4},
		Algorithm:   ClusterKMeans,
		NumClusters: 2,
	}, fastOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Reduction.Components)
	assert.NotContains(t, res.Report.Messages, "Invalid number of components (4). Using 3.")
	assert.Contains(t, res.Report.Messages, "Only 3 components available for PCA.")
	assert.Contains(t, res.Report.Messages, "Extracted 3 components with PCA.")
}

func TestClusterSamplesHalfInIndexOrder(t *testing.T) {
	processed := randomTable(200, 2, 8)
	processed.Index = seqIndex(200, 1000)

	res, err := Cluster(processed, ClusterConfig{
		RandomSampling: true,
		SampleSize:     50,
		Algorithm:      ClusterKMeans,
		NumClusters:    3,
	}, fastOptions())
	require.NoError(t, err)

	require.Equal(t, 100, res.Table.Rows())
	assert.True(t, res.Sampled)
	assert.True(t, sort.IntsAreSorted(res.Table.Index))
	for i := 1; i < len(res.Table.Index); i++ {
		assert.NotEqual(t, res.Table.Index[i-1], res.Table.Index[i])
	}
	assert.Equal(t, "Sampled 100 records.", res.Report.Messages[0])

	pos := processed.Positions()
	a, _ := res.Table.Column("a")
	for i, idx := range res.Table.Index {
		p, ok := pos[idx]
		require.True(t, ok)
		assert.Equal(t, processed.Columns[0].Numbers[p], a.Numbers[i], "row for index %d", idx)
	}
}

func TestClusterInvalidSampleSizeSkipsSampling(t *testing.T) {
	processed := randomTable(20, 2, 8)

	res, err := Cluster(processed, ClusterConfig{RandomSampling: true, SampleSize: 0, Algorithm: ClusterKMeans, NumClusters: 2}, fastOptions())
	require.NoError(t, err)
	assert.False(t, res.Sampled)
	assert.Equal(t, 20, res.Table.Rows())
	assert.Equal(t, "Invalid sample size (0%). Random sampling not performed.", res.Report.Messages[0])
}

func TestClusterHDBSCANNoiseBecomesZero(t *testing.T) {
	processed := blobTable(10, [][2]float64{{0, 0}, {50, 50}}, [2]float64{500, -500})

	res, err := Cluster(processed, ClusterConfig{Algorithm: ClusterHDBSCAN, MinClusterSize: 5}, fastOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Labels[20])
	for i := 0; i < 20; i++ {
		assert.GreaterOrEqual(t, res.Labels[i], 1)
	}
	assert.Equal(t, 1, res.NoiseCount)
	assert.Equal(t, 3, res.Clusters)
	assert.Equal(t, 0.0, labelsOf(t, &res.Table)[20])
	assert.Contains(t, res.Report.Messages, "Performed HDBSCAN clustering.")
	assert.Contains(t, res.Report.Messages, "Found 3 clusters.")
}

func TestClusterFallbacks(t *testing.T) {
	processed := randomTable(10, 2, 3)

	res, err := Cluster(processed, ClusterConfig{Algorithm: ClusterKMeans, NumClusters: 0}, fastOptions())
	require.NoError(t, err)
	assert.Equal(t, DefaultClusters, res.Parameter)
	assert.Contains(t, res.Report.Messages, "Invalid number of clusters (0). Using 3.")

	res, err = Cluster(processed, ClusterConfig{Algorithm: ClusterKMeans, NumClusters: 11}, fastOptions())
	require.NoError(t, err)
	assert.Equal(t, DefaultClusters, res.Parameter)

	res, err = Cluster(processed, ClusterConfig{Algorithm: ClusterHDBSCAN, MinClusterSize: 1}, fastOptions())
	require.NoError(t, err)
	assert.Equal(t, DefaultMinClusterSize, res.Parameter)
	assert.Contains(t, res.Report.Messages, "Invalid minimum cluster size (1). Using 2.")

	tiny := randomTable(2, 2, 3)
	res, err = Cluster(tiny, ClusterConfig{Algorithm: ClusterKMeans, NumClusters: 5}, fastOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Parameter, "the default k never exceeds the row count")
}

func TestClusterErrors(t *testing.T) {
	_, err := Cluster(&dataset.Table{}, ClusterConfig{Algorithm: ClusterKMeans}, fastOptions())
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	_, err = Cluster(randomTable(5, 2, 1), ClusterConfig{Algorithm: "dbscan"}, fastOptions())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestShiftLabels(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 1}, ShiftLabels([]int{-1, 0, 1, 0}))
}
