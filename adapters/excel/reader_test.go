package excel

import (
	"bytes"
	"strings"
	"testing"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func read(t *testing.T, filename, body string) (*dataset.Table, *LoadResult, error) {
	t.Helper()
	r, err := NewDataReader(filename, DefaultReaderConfig())
	require.NoError(t, err)
	return r.ReadTable(strings.NewReader(body))
}

func TestDetectFileType(t *testing.T) {
	tests := map[string]FileType{
		"data.csv":   FileCSV,
		"Book1.XLSX": FileXLSX,
		"rows.json":  FileJSON,
		"tab.tsv":    FileText,
		"plain.txt":  FileText,
	}
	for name, want := range tests {
		got, err := DetectFileType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := DetectFileType("legacy.xls")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestReadCSVWithUnnamedIndex(t *testing.T) {
	body := ",age,city\n" +
		"10,31,paris\n" +
		"11,?,oslo\n" +
		"12,45,-\n" +
		"13,52,rome\n"

	tbl, res, err := read(t, "people.csv", body)
	require.NoError(t, err)

	assert.Equal(t, []int{10, 13}, tbl.Index)
	assert.Equal(t, []string{"age", "city"}, tbl.Names())
	assert.Equal(t, dataset.KindNumeric, tbl.Columns[0].Kind)
	assert.Equal(t, []float64{31, 52}, tbl.Columns[0].Numbers)
	assert.Equal(t, dataset.KindText, tbl.Columns[1].Kind)
	assert.Equal(t, []string{"paris", "rome"}, tbl.Columns[1].Texts)

	assert.Equal(t, 2, res.DroppedRows)
	assert.True(t, res.IndexFound)
}

func TestReadCSVSynthesizesIndex(t *testing.T) {
	body := "a,b\n1,x\n.,y\n3,z\n"

	tbl, res, err := read(t, "plain.csv", body)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, tbl.Index, "rows keep their file position")
	assert.False(t, res.IndexFound)
}

func TestReadCSVRejectsBadIndex(t *testing.T) {
	_, _, err := read(t, "bad.csv", "Unnamed: 0,a\n1.5,2\n")
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	_, _, err = read(t, "dup.csv", "index,a\n1,2\n1,3\n")
	require.Error(t, err)
}

func TestReadCSVRejectsDuplicateHeaders(t *testing.T) {
	_, _, err := read(t, "dup.csv", "a,a\n1,2\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestReadCSVAllRowsMissing(t *testing.T) {
	_, _, err := read(t, "gaps.csv", "a,b\n1,?\n-,2\n")
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestReadTextWhitespaceDelimited(t *testing.T) {
	body := "height  weight\n" +
		"1   170   65.5\n" +
		"2\t180\t80\n"

	tbl, _, err := read(t, "body.txt", body)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, tbl.Index, "a short header makes the first field the row label")
	assert.Equal(t, []string{"height", "weight"}, tbl.Names())
	assert.Equal(t, []float64{65.5, 80}, tbl.Columns[1].Numbers)
}

func TestReadJSONRecords(t *testing.T) {
	body := `[{"zeta": 1, "alpha": "a"}, {"zeta": 2.5, "alpha": "b"}, {"zeta": null, "alpha": "c"}]`

	tbl, res, err := read(t, "rows.json", body)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha"}, tbl.Names(), "keys keep document order")
	assert.Equal(t, []int{0, 1}, tbl.Index)
	assert.Equal(t, []float64{1, 2.5}, tbl.Columns[0].Numbers)
	assert.Equal(t, 1, res.DroppedRows)
}

func TestReadJSONColumns(t *testing.T) {
	body := `{"x": {"5": 1, "3": 2}, "y": {"3": "b", "5": "a"}}`

	tbl, _, err := read(t, "cols.json", body)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5}, tbl.Index)
	assert.Equal(t, []float64{2, 1}, tbl.Columns[0].Numbers)
	assert.Equal(t, []string{"b", "a"}, tbl.Columns[1].Texts)

	tbl, _, err = read(t, "arrays.json", `{"x": [1, 2, 3]}`)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, tbl.Index)
}

func TestMaxColumns(t *testing.T) {
	r, err := NewDataReader("wide.csv", ReaderConfig{MaxColumns: 1})
	require.NoError(t, err)
	_, _, err = r.ReadTable(strings.NewReader("a,b\n1,2\n"))
	require.Error(t, err)
}

func TestXLSXRoundTrip(t *testing.T) {
	src := &dataset.Table{
		Index: []int{4, 9},
		Columns: []dataset.Column{
			dataset.NumericColumn("score", []float64{1.5, 3}),
			dataset.TextColumn("team", []string{"red", "blue"}),
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, src))

	r, err := NewDataReader("export.xlsx", DefaultReaderConfig())
	require.NoError(t, err)
	tbl, res, err := r.ReadTable(&buf)
	require.NoError(t, err)

	assert.True(t, res.IndexFound)
	assert.Equal(t, src.Index, tbl.Index)
	assert.Equal(t, src.Columns, tbl.Columns)
}
