package excel

// RawData is a parsed file before typing: a header row and string cells in file order
type RawData struct {
	Headers []string
	Rows    [][]string
}

// LoadResult is a typed dataset plus what was discarded while building it
type LoadResult struct {
	Columns     int  `json:"columns"`
	Rows        int  `json:"rows"`
	DroppedRows int  `json:"dropped_rows"`
	IndexFound  bool `json:"index_found"`
}
