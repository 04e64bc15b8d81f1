package excel

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"featurelab/domain/dataset"
	"featurelab/internal"
	"featurelab/internal/errors"

	"github.com/xuri/excelize/v2"
)

var logger = internal.DefaultLogger.With("DataReader")

// FileType is an upload format
type FileType string

const (
	FileCSV  FileType = "csv"
	FileXLSX FileType = "xlsx"
	FileJSON FileType = "json"
	FileText FileType = "txt"
)

// DetectFileType picks the format from the file extension
func DetectFileType(filename string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FileCSV, nil
	case ".xlsx", ".xlsm":
		return FileXLSX, nil
	case ".json":
		return FileJSON, nil
	case ".txt", ".tsv", ".dat":
		return FileText, nil
	}
	return "", errors.Newf(errors.CodeInvalidInput, "unsupported file type %q", filepath.Ext(filename))
}

// DataReader reads CSV, XLSX, JSON and whitespace delimited text files
type DataReader struct {
	fileType FileType
	config   ReaderConfig
}

// NewDataReader creates a reader for the format implied by filename
func NewDataReader(filename string, config ReaderConfig) (*DataReader, error) {
	fileType, err := DetectFileType(filename)
	if err != nil {
		return nil, err
	}
	return &DataReader{fileType: fileType, config: config}, nil
}

// ReadFile loads a dataset from disk
func ReadFile(path string, config ReaderConfig) (*dataset.Table, *LoadResult, error) {
	r, err := NewDataReader(path, config)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(errors.WithCode(errors.CodeNotFound, err), "open %s", path)
	}
	defer f.Close()
	return r.ReadTable(f)
}

// ReadTable parses src and types it into a dataset
func (r *DataReader) ReadTable(src io.Reader) (*dataset.Table, *LoadResult, error) {
	raw, err := r.ReadData(src)
	if err != nil {
		return nil, nil, err
	}
	return BuildTable(raw, r.config)
}

// ReadData parses src into headers and string cells
func (r *DataReader) ReadData(src io.Reader) (*RawData, error) {
	start := time.Now()
	var (
		raw *RawData
		err error
	)
	switch r.fileType {
	case FileCSV:
		raw, err = readCSV(src)
	case FileXLSX:
		raw, err = readExcel(src, r.config.Sheet)
	case FileJSON:
		raw, err = readJSON(src)
	case FileText:
		raw, err = readText(src)
	default:
		err = errors.Newf(errors.CodeInvalidInput, "unsupported file type %q", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("%s file read in %.2fms (%d columns, %d rows)",
		strings.ToUpper(string(r.fileType)), float64(time.Since(start).Nanoseconds())/1e6, len(raw.Headers), len(raw.Rows))
	return raw, nil
}

func readCSV(src io.Reader) (*RawData, error) {
	rows, err := csv.NewReader(src).ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to read CSV file")
	}
	return splitHeader(rows, "CSV")
}

func readExcel(src io.Reader, sheet string) (*RawData, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to open Excel file")
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("Excel file has no worksheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to read sheet "+sheet)
	}
	raw, err := splitHeader(rows, "Excel")
	if err != nil {
		return nil, err
	}
	// GetRows trims trailing empty cells
	for i, row := range raw.Rows {
		for len(row) < len(raw.Headers) {
			row = append(row, "")
		}
		raw.Rows[i] = row
	}
	return raw, nil
}

func readText(src io.Reader) (*RawData, error) {
	var rows [][]string
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		rows = append(rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to read text file")
	}
	raw, err := splitHeader(rows, "Text")
	if err != nil {
		return nil, err
	}
	// a header one field short means the first column holds row labels
	if len(raw.Rows) > 0 && len(raw.Rows[0]) == len(raw.Headers)+1 {
		raw.Headers = append([]string{""}, raw.Headers...)
	}
	for i, row := range raw.Rows {
		if len(row) != len(raw.Headers) {
			return nil, errors.Newf(errors.CodeInvalidInput, "line %d has %d fields, expected %d", i+2, len(row), len(raw.Headers))
		}
	}
	return raw, nil
}

func splitHeader(rows [][]string, kind string) (*RawData, error) {
	if len(rows) < 2 {
		return nil, errors.Newf(errors.CodeInvalidInput, "%s file must have at least a header row and one data row", kind)
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return &RawData{Headers: headers, Rows: rows[1:]}, nil
}

// readJSON accepts an array of records or a column oriented object whose values
// are arrays or objects keyed by integer row labels.
func readJSON(src io.Reader) (*RawData, error) {
	body, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read JSON file")
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.InvalidInput("JSON file is empty")
	}

	if body[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to parse JSON records")
		}
		if len(records) == 0 {
			return nil, errors.InvalidInput("JSON file has no records")
		}
		headers, err := objectKeys(records[0])
		if err != nil {
			return nil, err
		}
		raw := &RawData{Headers: headers}
		for i, rec := range records {
			var values map[string]interface{}
			if err := json.Unmarshal(rec, &values); err != nil {
				return nil, errors.Wrapf(errors.WithCode(errors.CodeInvalidInput, err), "record %d", i)
			}
			row := make([]string, len(headers))
			for j, h := range headers {
				row[j] = cellString(values[h])
			}
			raw.Rows = append(raw.Rows, row)
		}
		return raw, nil
	}

	headers, err := objectKeys(body)
	if err != nil {
		return nil, err
	}
	var columns map[string]json.RawMessage
	if err := json.Unmarshal(body, &columns); err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to parse JSON columns")
	}
	return columnsToRows(headers, columns)
}

func columnsToRows(headers []string, columns map[string]json.RawMessage) (*RawData, error) {
	cells := make([]map[int]string, len(headers))
	labels := make(map[int]struct{})
	for j, h := range headers {
		col := bytes.TrimSpace(columns[h])
		cells[j] = make(map[int]string)
		if len(col) > 0 && col[0] == '[' {
			var values []interface{}
			if err := json.Unmarshal(col, &values); err != nil {
				return nil, errors.Wrapf(errors.WithCode(errors.CodeInvalidInput, err), "column %q", h)
			}
			for i, v := range values {
				cells[j][i] = cellString(v)
				labels[i] = struct{}{}
			}
			continue
		}
		var values map[string]interface{}
		if err := json.Unmarshal(col, &values); err != nil {
			return nil, errors.Wrapf(errors.WithCode(errors.CodeInvalidInput, err), "column %q", h)
		}
		for key, v := range values {
			label, err := strconv.Atoi(key)
			if err != nil {
				return nil, errors.Newf(errors.CodeInvalidInput, "column %q has non-integer row label %q", h, key)
			}
			cells[j][label] = cellString(v)
			labels[label] = struct{}{}
		}
	}

	order := make([]int, 0, len(labels))
	for l := range labels {
		order = append(order, l)
	}
	sort.Ints(order)

	raw := &RawData{Headers: append([]string{dataset.IndexColumn}, headers...)}
	for _, l := range order {
		row := make([]string, 0, len(headers)+1)
		row = append(row, strconv.Itoa(l))
		for j := range headers {
			row = append(row, cells[j][l])
		}
		raw.Rows = append(raw.Rows, row)
	}
	if len(raw.Rows) == 0 {
		return nil, errors.InvalidInput("JSON file has no rows")
	}
	return raw, nil
}

// objectKeys returns the keys of a JSON object in document order
func objectKeys(obj json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, errors.InvalidInput("expected a JSON object")
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to parse JSON object")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.InvalidInput("expected a JSON object key")
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to parse JSON value")
		}
	}
	return keys, nil
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// BuildTable types raw cells into a dataset. Rows holding a missing cell are
// dropped. A leading unnamed column (or one named "index") supplies the integer row
// index; otherwise rows are numbered by their position in the file. A column is
// numeric when every remaining cell parses as a number.
func BuildTable(raw *RawData, config ReaderConfig) (*dataset.Table, *LoadResult, error) {
	if len(raw.Headers) == 0 {
		return nil, nil, errors.InvalidInput("file has no columns")
	}
	hasIndex := indexHeaders[raw.Headers[0]]
	first := 0
	if hasIndex {
		first = 1
	}
	names := raw.Headers[first:]
	if len(names) == 0 {
		return nil, nil, errors.InvalidInput("file has no data columns")
	}
	if config.MaxColumns > 0 && len(names) > config.MaxColumns {
		return nil, nil, errors.Newf(errors.CodeValidationError, "file has %d columns, the limit is %d", len(names), config.MaxColumns)
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" || n == dataset.IndexColumn {
			return nil, nil, errors.Newf(errors.CodeValidationError, "column name %q is not allowed", n)
		}
		if seen[n] {
			return nil, nil, errors.Newf(errors.CodeValidationError, "duplicate column name %q", n)
		}
		seen[n] = true
	}

	missing := make(map[string]bool, len(config.MissingMarkers))
	for _, m := range config.MissingMarkers {
		missing[m] = true
	}

	var kept [][]string
	var index []int
	dropped := 0
	for pos, row := range raw.Rows {
		if len(row) != len(raw.Headers) {
			return nil, nil, errors.Newf(errors.CodeInvalidInput, "row %d has %d cells, expected %d", pos+1, len(row), len(raw.Headers))
		}
		if hasMissing(row, missing) {
			dropped++
			continue
		}
		idx := pos
		if hasIndex {
			var err error
			if idx, err = parseIndex(row[0]); err != nil {
				return nil, nil, errors.Wrapf(err, "row %d", pos+1)
			}
		}
		index = append(index, idx)
		kept = append(kept, row[first:])
	}
	if len(kept) == 0 {
		return nil, nil, errors.ValidationError("no complete rows remain after dropping missing values")
	}

	t := &dataset.Table{Index: index, Columns: make([]dataset.Column, len(names))}
	for j, name := range names {
		t.Columns[j] = typedColumn(name, kept, j)
	}
	if err := t.Validate(); err != nil {
		return nil, nil, errors.WithCode(errors.CodeValidationError, err)
	}

	result := &LoadResult{Columns: len(names), Rows: len(kept), DroppedRows: dropped, IndexFound: hasIndex}
	if dropped > 0 {
		logger.Info("dropped %d rows with missing values, %d remain", dropped, len(kept))
	}
	return t, result, nil
}

func hasMissing(row []string, missing map[string]bool) bool {
	for _, cell := range row {
		if missing[cell] || strings.TrimSpace(cell) == "" {
			return true
		}
	}
	return false
}

func parseIndex(cell string) (int, error) {
	cell = strings.TrimSpace(cell)
	if v, err := strconv.Atoi(cell); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, errors.Newf(errors.CodeValidationError, "index value %q is not an integer", cell)
	}
	return int(f), nil
}

func typedColumn(name string, rows [][]string, j int) dataset.Column {
	numbers := make([]float64, len(rows))
	for i, row := range rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			texts := make([]string, len(rows))
			for k, r := range rows {
				texts[k] = strings.TrimSpace(r[j])
			}
			return dataset.TextColumn(name, texts)
		}
		numbers[i] = v
	}
	return dataset.NumericColumn(name, numbers)
}
