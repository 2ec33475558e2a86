package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Validate checks params against the schema for (category, operation).
// Missing required parameters are reported ahead of type or format problems;
// the two classes are never combined into one message.
func Validate(category, operation string, params map[string]any) (bool, string) {
	s := For(category, operation)
	if s.Empty() {
		return false, fmt.Sprintf("Unknown category '%s' or operation '%s'", category, operation)
	}

	var missing, invalid []string
	for _, p := range s {
		f, ok := p.Spec.(FieldSchema)
		if !ok {
			continue
		}
		v, present := params[p.Name]
		if !present {
			if f.Required {
				missing = append(missing, p.Name)
			}
			continue
		}
		if msg := checkField(p.Name, f, v); msg != "" {
			invalid = append(invalid, msg)
		}
	}

	if len(missing) > 0 {
		return false, "Missing required parameters: " + strings.Join(missing, ", ")
	}
	if len(invalid) > 0 {
		return false, strings.Join(invalid, "; ")
	}
	return true, ""
}

func checkField(name string, f FieldSchema, v any) string {
	switch f.Type {
	case TypeInteger:
		n, ok := Int(v)
		if !ok {
			return fmt.Sprintf("%s must be an integer", name)
		}
		if f.Min != nil && n < int64(*f.Min) {
			return fmt.Sprintf("%s must be >= %d", name, *f.Min)
		}
		if f.Max != nil && n > int64(*f.Max) {
			return fmt.Sprintf("%s must be <= %d", name, *f.Max)
		}
	case TypeDate:
		s, ok := v.(string)
		if !ok || !IsDate(s) {
			return fmt.Sprintf("%s must be in %s format", name, DateFormat)
		}
	case TypeTime:
		s, ok := v.(string)
		if !ok || !IsTime(s) {
			return fmt.Sprintf("%s must be in %s format", name, TimeFormat)
		}
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("%s must be a string", name)
		}
		if len(f.Options) > 0 && !slices.Contains(f.Options, s) {
			return fmt.Sprintf("%s must be one of: %s", name, strings.Join(f.Options, ", "))
		}
	}
	return ""
}

// IsDate checks the YYYY-MM-DD shape only; calendar validity is not checked.
func IsDate(s string) bool {
	r := []rune(s)
	return len(r) == 10 && r[4] == '-' && r[7] == '-'
}

// IsTime checks the HH:MM shape only; hour and minute ranges are not checked.
func IsTime(s string) bool {
	r := []rune(s)
	return len(r) == 5 && r[2] == ':'
}

// Int reports whether v is an integer value. Go integer kinds and json.Number
// integer literals qualify; floats, bools and strings do not.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
