package pipeline

import (
	"math"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"
)

// Selection is the ordered list of selection records for a dataset. Position 0 is
// always the index column.
type Selection []dataset.SelectionRecord

// InferSelection builds the initial selection from column storage kinds: text
// columns start as categorical, numeric columns as numerical, all with weight 1 and
// no transformation.
func InferSelection(t *dataset.Table) Selection {
	sel := make(Selection, 0, len(t.Columns)+1)
	sel = append(sel, dataset.SelectionRecord{
		Feature:        dataset.IndexColumn,
		Type:           dataset.TypeNumerical,
		Weight:         1,
		Transformation: dataset.TransformNone,
	})
	for _, c := range t.Columns {
		typ := dataset.TypeNumerical
		if c.Kind == dataset.KindText {
			typ = dataset.TypeCategorical
		}
		sel = append(sel, dataset.SelectionRecord{
			Feature:        c.Name,
			Type:           typ,
			Weight:         1,
			Transformation: dataset.TransformNone,
		})
	}
	return sel
}

// Apply folds the edits over a copy of the selection in the order given. The
// receiver is left untouched.
func (s Selection) Apply(edits ...dataset.SelectionEdit) (Selection, error) {
	out := make(Selection, len(s))
	copy(out, s)
	for _, edit := range edits {
		var err error
		out, err = out.update(edit)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s Selection) update(edit dataset.SelectionEdit) (Selection, error) {
	pos := edit.Position
	if edit.Feature != "" {
		pos = s.position(edit.Feature)
		if pos < 0 {
			return nil, errors.NotFound("feature " + edit.Feature)
		}
	}
	if pos <= 0 || pos >= len(s) {
		return nil, errors.Newf(errors.CodeValidationError, "feature position %d is not editable", pos)
	}
	if !edit.Type.Valid() {
		return nil, errors.Newf(errors.CodeValidationError, "unknown feature type %q", edit.Type)
	}
	if !edit.Transformation.Valid() {
		return nil, errors.Newf(errors.CodeValidationError, "unknown transformation %q", edit.Transformation)
	}
	if math.IsNaN(edit.Weight) || math.IsInf(edit.Weight, 0) || edit.Weight < 0 {
		return nil, errors.Newf(errors.CodeValidationError, "weight for %q must be a finite non-negative number", s[pos].Feature)
	}
	s[pos].Type = edit.Type
	s[pos].Weight = edit.Weight
	s[pos].Transformation = edit.Transformation
	return s, nil
}

// SetWeights replaces every non-index weight at once. The list must hold exactly one
// weight per feature.
func (s Selection) SetWeights(weights []float64) (Selection, error) {
	if len(weights) != len(s)-1 {
		return nil, errors.Newf(errors.CodeValidationError,
			"the number of weights (%d) is different from the number of features (%d)", len(weights), len(s)-1)
	}
	edits := make([]dataset.SelectionEdit, len(weights))
	for i, w := range weights {
		rec := s[i+1]
		edits[i] = dataset.SelectionEdit{Position: i + 1, Type: rec.Type, Weight: w, Transformation: rec.Transformation}
	}
	return s.Apply(edits...)
}

// Retained drops the index and every record with weight 0 or type none, then
// renormalizes the remaining weights to sum to 1.
func (s Selection) Retained() ([]dataset.SelectionRecord, error) {
	var kept []dataset.SelectionRecord
	total := 0.0
	for i, rec := range s {
		if i == 0 || rec.Feature == dataset.IndexColumn || !rec.Retained() {
			continue
		}
		kept = append(kept, rec)
		total += rec.Weight
	}
	if len(kept) == 0 {
		return nil, errors.ValidationError("no features selected: every feature has weight 0 or type none")
	}
	if total <= 0 {
		return nil, errors.ValidationError("selected feature weights sum to zero")
	}
	for i := range kept {
		kept[i].Weight /= total
	}
	return kept, nil
}

func (s Selection) position(feature string) int {
	for i, rec := range s {
		if rec.Feature == feature {
			return i
		}
	}
	return -1
}
