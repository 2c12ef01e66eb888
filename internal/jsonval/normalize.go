package jsonval

import (
	"fmt"
	"math"
	"strings"
)

// itemFields are the detail keys that mark a medication/education/warning
// entry. Declaration order fixes render order.
var itemFields = []string{"dosage", "frequency", "duration", "reason", "notes", "severity"}

// Normalize converts any Value into a human-readable string. It is total:
// every input yields a string, identical input yields identical output. This
// is the single choke point between the unstable clinical payload shapes and
// anything that displays them.
func Normalize(v Value) string {
	switch v.Kind {
	case KindNull:
		return "Not available"
	case KindBool:
		if v.Bool {
			return "Yes"
		}
		return "No"
	case KindNumber:
		return v.Number
	case KindString:
		return v.Str
	case KindArray:
		if len(v.Array) == 0 {
			return "None"
		}
		parts := make([]string, len(v.Array))
		for i, el := range v.Array {
			parts[i] = Normalize(el)
		}
		return strings.Join(parts, "\n")
	case KindObject:
		return normalizeObject(v)
	}
	return "Not available"
}

func normalizeObject(v Value) string {
	if name, ok := v.Field("name"); ok && name.Kind == KindString {
		if hasItemFields(v) {
			return normalizeItem(v, name.Str)
		}
		return normalizeDiagnosis(v, name.Str)
	}
	return normalizeGeneric(v)
}

func hasItemFields(v Value) bool {
	for _, key := range itemFields {
		if _, ok := v.Field(key); ok {
			return true
		}
	}
	return false
}

// normalizeDiagnosis renders a diagnosis-like entry:
// "Name - description (Confidence: 90%)".
func normalizeDiagnosis(v Value, name string) string {
	var b strings.Builder
	b.WriteString(name)
	if desc, ok := v.Field("description"); ok && desc.Kind == KindString && desc.Str != "" {
		b.WriteString(" - ")
		b.WriteString(desc.Str)
	}
	if score, ok := v.Field("confidence_score"); ok {
		if f, numeric := score.Float(); numeric {
			fmt.Fprintf(&b, " (Confidence: %d%%)", int(math.Round(f*100)))
		}
	}
	return b.String()
}

// normalizeItem renders a medication/education/warning entry:
// "Name | dosage: 500mg | frequency: twice daily".
func normalizeItem(v Value, name string) string {
	parts := []string{name}
	for _, key := range itemFields {
		if field, ok := v.Field(key); ok && !field.IsEmpty() {
			parts = append(parts, key+": "+Normalize(field))
		}
	}
	return strings.Join(parts, " | ")
}

func normalizeGeneric(v Value) string {
	var parts []string
	for _, m := range v.Object {
		if m.Value.IsEmpty() {
			continue
		}
		parts = append(parts, m.Key+": "+Normalize(m.Value))
	}
	if len(parts) == 0 {
		return "[Empty Object]"
	}
	return strings.Join(parts, " | ")
}
