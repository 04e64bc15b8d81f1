package excel

// ReaderConfig controls how uploaded files are turned into datasets
type ReaderConfig struct {
	// MissingMarkers are cell values treated as missing in addition to empty cells.
	MissingMarkers []string `json:"missing_markers"`
	// MaxColumns rejects files with more data columns; 0 disables the check.
	MaxColumns int `json:"max_columns"`
	// Sheet selects the worksheet of an XLSX file; empty means the first sheet.
	Sheet string `json:"sheet"`
}

// DefaultReaderConfig returns the markers a spreadsheet export typically uses for gaps
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		MissingMarkers: []string{"-", "?", ".", " "},
	}
}

// indexHeaders name a leading column that carries row identifiers
var indexHeaders = map[string]bool{
	"":           true,
	"Unnamed: 0": true,
	"index":      true,
}
