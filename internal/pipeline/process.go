package pipeline

import (
	"featurelab/domain/dataset"
	"featurelab/internal/errors"
)

// Processed is the output of feature processing: the index plus the encoded,
// weighted and transformed float columns, and the normalized selection that
// produced them.
type Processed struct {
	Table    dataset.Table             `json:"table"`
	Retained []dataset.SelectionRecord `json:"retained"`
}

// Process runs selection normalization, encoding, weighting and transformation over
// the raw table. Features keep their original order; a feature that expands into
// several columns contributes them as a contiguous block. The index is copied
// through untouched and never enters any transformer.
func Process(raw *dataset.Table, sel Selection) (*Processed, error) {
	retained, err := sel.Retained()
	if err != nil {
		return nil, err
	}

	out := dataset.Table{Index: make([]int, len(raw.Index))}
	copy(out.Index, raw.Index)

	for _, rec := range retained {
		col, ok := raw.Column(rec.Feature)
		if !ok {
			return nil, errors.NotFound("feature " + rec.Feature)
		}

		encoded, err := Encode(*col, rec.Type)
		if err != nil {
			return nil, err
		}
		transformed, err := Transform(rec.Feature, Weight(encoded, rec.Weight), rec.Transformation)
		if err != nil {
			return nil, err
		}
		out.Columns = append(out.Columns, transformed...)

		logger.Trace("encoded %s as %s (weight %.4f, %s) into %d column(s)",
			rec.Feature, rec.Type, rec.Weight, rec.Transformation, len(transformed))
	}

	if err := out.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}

	logger.Debug("processed %d rows: %d features into %d columns", out.Rows(), len(retained), len(out.Columns))
	return &Processed{Table: out, Retained: retained}, nil
}
