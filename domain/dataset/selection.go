package dataset

// FeatureType is the declared type of a feature
type FeatureType string

const (
	TypeNumerical   FeatureType = "numerical"
	TypeCategorical FeatureType = "categorical"
	TypeNone        FeatureType = "none"
)

// Valid reports whether t is one of the known feature types
func (t FeatureType) Valid() bool {
	switch t {
	case TypeNumerical, TypeCategorical, TypeNone:
		return true
	}
	return false
}

// Transformation is applied to a feature after weighting
type Transformation string

const (
	TransformNone   Transformation = "none"
	TransformLog    Transformation = "log"
	TransformZScore Transformation = "z-score"
	TransformMinMax Transformation = "minmax"
)

// Valid reports whether t is one of the known transformations
func (t Transformation) Valid() bool {
	switch t {
	case TransformNone, TransformLog, TransformZScore, TransformMinMax:
		return true
	}
	return false
}

// SelectionRecord is the per-feature configuration driving the encoder
type SelectionRecord struct {
	Feature        string         `json:"feature" mapstructure:"feature" yaml:"feature"`
	Type           FeatureType    `json:"type" mapstructure:"type" yaml:"type"`
	Weight         float64        `json:"weight" mapstructure:"weight" yaml:"weight"`
	Transformation Transformation `json:"transformation" mapstructure:"transformation" yaml:"transformation"`
}

// Retained reports whether the record survives selection normalization
func (r SelectionRecord) Retained() bool {
	return r.Weight != 0 && r.Type != TypeNone
}

// SelectionEdit replaces the type, weight and transformation of one feature.
// The feature is addressed by Feature name when set, otherwise by Position.
type SelectionEdit struct {
	Position       int            `json:"position" mapstructure:"position" yaml:"position"`
	Feature        string         `json:"feature,omitempty" mapstructure:"feature" yaml:"feature"`
	Type           FeatureType    `json:"type" mapstructure:"type" yaml:"type"`
	Weight         float64        `json:"weight" mapstructure:"weight" yaml:"weight"`
	Transformation Transformation `json:"transformation" mapstructure:"transformation" yaml:"transformation"`
}
