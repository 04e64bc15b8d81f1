package pipeline

import (
	"sort"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"github.com/montanaflynn/stats"
)

// ColumnStats is the descriptive summary of one processed column
type ColumnStats struct {
	Feature string  `json:"feature"`
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Q25     float64 `json:"25%"`
	Q50     float64 `json:"50%"`
	Q75     float64 `json:"75%"`
	Max     float64 `json:"max"`
}

// Rounded returns a copy with every statistic rounded to the given decimals
func (s ColumnStats) Rounded(decimals int) ColumnStats {
	r := s
	for _, v := range []*float64{&r.Mean, &r.Std, &r.Min, &r.Q25, &r.Q50, &r.Q75, &r.Max} {
		*v = dataset.Round(*v, decimals)
	}
	return r
}

// Describe computes count, mean, sample standard deviation, min, quartiles and max
// for every numeric column. The index is not a column and so is never described.
// Quartiles use linear interpolation between closest ranks.
func Describe(t *dataset.Table) ([]ColumnStats, error) {
	out := make([]ColumnStats, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Kind != dataset.KindNumeric {
			continue
		}
		s := ColumnStats{Feature: c.Name, Count: len(c.Numbers)}
		if s.Count == 0 {
			out = append(out, s)
			continue
		}
		data := stats.Float64Data(c.Numbers)

		var err error
		if s.Mean, err = stats.Mean(data); err != nil {
			return nil, errors.Wrapf(err, "mean of %s", c.Name)
		}
		if s.Count > 1 {
			if s.Std, err = stats.StandardDeviationSample(data); err != nil {
				return nil, errors.Wrapf(err, "standard deviation of %s", c.Name)
			}
		}
		if s.Min, err = stats.Min(data); err != nil {
			return nil, errors.Wrapf(err, "min of %s", c.Name)
		}
		if s.Max, err = stats.Max(data); err != nil {
			return nil, errors.Wrapf(err, "max of %s", c.Name)
		}

		sorted := make([]float64, len(c.Numbers))
		copy(sorted, c.Numbers)
		sort.Float64s(sorted)
		s.Q25 = quantile(sorted, 0.25)
		s.Q50 = quantile(sorted, 0.50)
		s.Q75 = quantile(sorted, 0.75)

		out = append(out, s)
	}
	return out, nil
}

// quantile interpolates linearly at position p*(n-1) of sorted data
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
