// Package jsonval models the loosely-shaped clinical payloads exchanged with
// the consultation service. The remote schema is not contractually fixed: a
// field that is a plain string in one record may be a structured object in
// the next. Value is a tagged variant over every JSON shape, preserving
// object key order so rendering is deterministic per input.
package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is one JSON value. The zero Value is null.
type Value struct {
	Kind   Kind
	Bool   bool
	Number string // literal text form, e.g. "0.9"
	Str    string
	Array  []Value
	Object []Member
}

// Member is one object field. Object fields keep decode order.
type Member struct {
	Key   string
	Value Value
}

func Null() Value               { return Value{} }
func Boolean(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func String(s string) Value     { return Value{Kind: KindString, Str: s} }
func Array(vs ...Value) Value   { return Value{Kind: KindArray, Array: vs} }
func Object(ms ...Member) Value { return Value{Kind: KindObject, Object: ms} }

func NumberFloat(f float64) Value {
	return Value{Kind: KindNumber, Number: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Field returns the first member with the given key.
func (v Value) Field(key string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.Object {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Float reports the numeric value when the Value is a number.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.Number, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsEmpty reports whether the value carries nothing worth displaying:
// null, "", an empty array, or an empty object.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == ""
	case KindArray:
		return len(v.Array) == 0
	case KindObject:
		return len(v.Object) == 0
	}
	return false
}

// Equal compares two values by content. Numbers compare numerically, so
// "1.0" and "1" are equal. Object fields compare regardless of order; array
// order is significant.
func Equal(a, b Value) bool {
	if a.Kind == KindNumber && b.Kind == KindNumber {
		af, aok := a.Float()
		bf, bok := b.Float()
		if aok && bok {
			return af == bf
		}
		return a.Number == b.Number
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindString:
		return a.Str == b.Str
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.Object) != len(b.Object) {
			return false
		}
		for _, m := range a.Object {
			other, ok := b.Field(m.Key)
			if !ok || !Equal(m.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

// UnmarshalJSON decodes through the token stream so object key order
// survives. encoding/json's map decoding would lose it.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Boolean(t), nil
	case json.Number:
		return Value{Kind: KindNumber, Number: t.String()}, nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			var arr []Value
			for dec.More() {
				el, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				arr = append(arr, el)
			}
			if _, err := dec.Token(); err != nil { // closing ]
				return Value{}, err
			}
			if arr == nil {
				arr = []Value{}
			}
			return Value{Kind: KindArray, Array: arr}, nil
		case '{':
			var members []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil { // closing }
				return Value{}, err
			}
			if members == nil {
				members = []Member{}
			}
			return Value{Kind: KindObject, Object: members}, nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token: %v", tok)
}

// MarshalJSON re-emits the value with object fields in stored order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	switch v.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case KindNumber:
		if v.Number == "" {
			buf.WriteString("0")
		} else {
			buf.WriteString(v.Number)
		}
	case KindString:
		b, err := json.Marshal(v.Str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, el := range v.Array {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, el); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.Object {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := encodeValue(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value kind %d", v.Kind)
	}
	return nil
}
