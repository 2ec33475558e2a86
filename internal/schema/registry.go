// Package schema holds the per-category parameter schemas and the validator
// that checks caller parameters against them.
package schema

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Category string

const (
	Restaurant Category = "restaurant"
	HairSalon  Category = "hair_salon"
	Spa        Category = "spa"
	Fitness    Category = "fitness"
)

type Operation string

const (
	OpSearch            Operation = "search"
	OpCheckAvailability Operation = "check_availability"
	OpBook              Operation = "book"
)

var (
	allCategories = []Category{Restaurant, HairSalon, Spa, Fitness}
	allOperations = []Operation{OpSearch, OpCheckAvailability, OpBook}
)

type FieldType string

const (
	TypeInteger FieldType = "integer"
	TypeDate    FieldType = "date"
	TypeTime    FieldType = "time"
	TypeString  FieldType = "string"
)

const (
	DateFormat = "YYYY-MM-DD"
	TimeFormat = "HH:MM"
)

// Spec is either a ChoiceFilter or a FieldSchema.
type Spec interface {
	isSpec()
}

// ChoiceFilter lists the values a search filter may take. It is informational
// and never enforced by Validate.
type ChoiceFilter struct {
	Values []string
}

// FieldSchema describes a typed parameter.
type FieldSchema struct {
	Type     FieldType
	Required bool
	Min      *int
	Max      *int
	Format   string
	Options  []string
}

func (ChoiceFilter) isSpec() {}
func (FieldSchema) isSpec()  {}

func (c ChoiceFilter) MarshalJSON() ([]byte, error) {
	if c.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Values)
}

func (f FieldSchema) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type     FieldType `json:"type"`
		Min      *int      `json:"min,omitempty"`
		Max      *int      `json:"max,omitempty"`
		Format   string    `json:"format,omitempty"`
		Options  []string  `json:"options,omitempty"`
		Required bool      `json:"required"`
	}
	return json.Marshal(wire{Type: f.Type, Min: f.Min, Max: f.Max, Format: f.Format, Options: f.Options, Required: f.Required})
}

type Parameter struct {
	Name string
	Spec Spec
}

// ParameterSchema is the ordered parameter list for one (category, operation) pair.
type ParameterSchema []Parameter

func (s ParameterSchema) Empty() bool { return len(s) == 0 }

// Lookup returns the spec for name.
func (s ParameterSchema) Lookup(name string) (Spec, bool) {
	for _, p := range s {
		if p.Name == name {
			return p.Spec, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the schema as an object, keeping declaration order.
func (s ParameterSchema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Spec)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func intp(v int) *int { return &v }

func choice(values ...string) ChoiceFilter { return ChoiceFilter{Values: values} }

func date() FieldSchema { return FieldSchema{Type: TypeDate, Format: DateFormat, Required: true} }

func clock() FieldSchema { return FieldSchema{Type: TypeTime, Format: TimeFormat, Required: true} }

func partySize() FieldSchema {
	return FieldSchema{Type: TypeInteger, Min: intp(1), Max: intp(20), Required: true}
}

func requiredString() FieldSchema { return FieldSchema{Type: TypeString, Required: true} }

func duration(required bool, options ...string) FieldSchema {
	return FieldSchema{Type: TypeString, Options: options, Required: required}
}

// table is built once at init and never mutated.
var table = map[Category]map[Operation]ParameterSchema{
	Restaurant: {
		OpSearch: {
			{"cuisine", choice("French", "Japanese", "Italian", "Indian", "American", "Chinese", "Mexican", "Thai", "Mediterranean", "Korean")},
			{"price_range", choice("$", "$$", "$$$", "$$$$")},
			{"ambiance", choice("Casual", "Fine Dining", "Family", "Romantic", "Business")},
		},
		OpCheckAvailability: {
			{"party_size", partySize()},
			{"date", date()},
		},
		OpBook: {
			{"party_size", partySize()},
			{"date", date()},
			{"time", clock()},
		},
	},
	HairSalon: {
		OpSearch: {
			{"service", choice("Haircut", "Coloring", "Balayage", "Highlights", "Treatment", "Styling", "Blow Dry")},
			{"gender", choice("Men", "Women", "Unisex")},
		},
		OpCheckAvailability: {
			{"service", requiredString()},
			{"date", date()},
		},
		OpBook: {
			{"service", requiredString()},
			{"date", date()},
			{"time", clock()},
			{"duration", duration(false, "30min", "60min", "90min")},
		},
	},
	Spa: {
		OpSearch: {
			{"service", choice("Massage", "Facial", "Body Treatment", "Manicure", "Pedicure", "Waxing")},
		},
		OpCheckAvailability: {
			{"service", requiredString()},
			{"date", date()},
			{"duration", duration(false, "30min", "60min", "90min", "120min")},
		},
		OpBook: {
			{"service", requiredString()},
			{"date", date()},
			{"time", clock()},
			{"duration", duration(true, "30min", "60min", "90min", "120min")},
		},
	},
	Fitness: {
		OpSearch: {
			{"activity", choice("Gym", "Yoga", "Pilates", "CrossFit", "Swimming", "Tennis", "Boxing", "Dance")},
			{"level", choice("Beginner", "Intermediate", "Advanced")},
		},
		OpCheckAvailability: {
			{"activity", requiredString()},
			{"date", date()},
		},
		OpBook: {
			{"activity", requiredString()},
			{"date", date()},
			{"time", clock()},
		},
	},
}

// NormalizeCategory lowercases and replaces spaces with underscores.
func NormalizeCategory(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

func normalizeOperation(s string) string { return strings.ToLower(s) }

// ParseCategory returns the category for s after normalization.
func ParseCategory(s string) (Category, bool) {
	n := Category(NormalizeCategory(s))
	for _, c := range allCategories {
		if c == n {
			return c, true
		}
	}
	return "", false
}

func ParseOperation(s string) (Operation, bool) {
	n := Operation(normalizeOperation(s))
	for _, o := range allOperations {
		if o == n {
			return o, true
		}
	}
	return "", false
}

func IsValidCategory(s string) bool {
	_, ok := ParseCategory(s)
	return ok
}

// For returns the schema for a (category, operation) pair, or an empty schema
// when either is unknown.
func For(category, operation string) ParameterSchema {
	c, ok := ParseCategory(category)
	if !ok {
		return nil
	}
	o, ok := ParseOperation(operation)
	if !ok {
		return nil
	}
	return append(ParameterSchema(nil), table[c][o]...)
}

func Categories() []string {
	out := make([]string, 0, len(allCategories))
	for _, c := range allCategories {
		out = append(out, string(c))
	}
	return out
}

func Operations() []string {
	out := make([]string, 0, len(allOperations))
	for _, o := range allOperations {
		out = append(out, string(o))
	}
	return out
}
