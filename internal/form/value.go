package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ValueKind tags the variant held by a Value.
type ValueKind string

const (
	KindString     ValueKind = "string"
	KindNumber     ValueKind = "number"
	KindBool       ValueKind = "bool"
	KindDate       ValueKind = "date"
	KindStringList ValueKind = "stringList"
)

// Value is a closed union of the shapes a submitted field value (or a rule
// parameter) can take. The zero Value is "absent".
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	t    time.Time
	list []string
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func NumberValue(n float64) Value { return Value{kind: KindNumber, num: n} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func DateValue(t time.Time) Value { return Value{kind: KindDate, t: t} }
func StringListValue(l []string) Value { return Value{kind: KindStringList, list: append([]string(nil), l...)} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsZero() bool { return v.kind == "" }

func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }
func (v Value) Number() (float64, bool) { return v.num, v.kind == KindNumber }
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindDate }
func (v Value) Strings() ([]string, bool) { return v.list, v.kind == KindStringList }

// Text returns the value as a string when it is string-coercible: strings as
// they are, numbers in their shortest decimal form.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Display renders the value for exports.
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(time.RFC3339)
	case KindStringList:
		return strings.Join(v.list, ", ")
	default:
		return ""
	}
}

type taggedValue struct {
	Type  ValueKind       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON always writes the tagged form {"type": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	var raw any
	switch v.kind {
	case KindString:
		raw = v.str
	case KindNumber:
		raw = v.num
	case KindBool:
		raw = v.b
	case KindDate:
		raw = v.t.Format(time.RFC3339Nano)
	case KindStringList:
		l := v.list
		if l == nil {
			l = []string{}
		}
		raw = l
	default:
		return []byte("null"), nil
	}

	inner, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedValue{Type: v.kind, Value: inner})
}

// UnmarshalJSON accepts the tagged form, or a bare JSON value tried in the
// order string, bool, number, string-list. Bare strings are never read as
// dates; a date must be tagged.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}

	if data[0] == '{' {
		var tv taggedValue
		if err := json.Unmarshal(data, &tv); err != nil {
			return err
		}
		return v.decodeTagged(tv)
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = StringValue(s)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}
	var l []string
	if err := json.Unmarshal(data, &l); err == nil {
		*v = StringListValue(l)
		return nil
	}
	return fmt.Errorf("unsupported value %s", truncate(string(data), 40))
}

func (v *Value) decodeTagged(tv taggedValue) error {
	if len(tv.Value) == 0 {
		return fmt.Errorf("value of type %q has no \"value\"", tv.Type)
	}

	switch tv.Type {
	case KindString:
		var s string
		if err := json.Unmarshal(tv.Value, &s); err != nil {
			return fmt.Errorf("value of type %q: %w", tv.Type, err)
		}
		*v = StringValue(s)
	case KindNumber:
		var n float64
		if err := json.Unmarshal(tv.Value, &n); err != nil {
			return fmt.Errorf("value of type %q: %w", tv.Type, err)
		}
		*v = NumberValue(n)
	case KindBool:
		var b bool
		if err := json.Unmarshal(tv.Value, &b); err != nil {
			return fmt.Errorf("value of type %q: %w", tv.Type, err)
		}
		*v = BoolValue(b)
	case KindDate:
		var s string
		if err := json.Unmarshal(tv.Value, &s); err != nil {
			return fmt.Errorf("value of type %q: %w", tv.Type, err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("value of type %q: %w", tv.Type, err)
		}
		*v = DateValue(t)
	case KindStringList:
		var l []string
		if err := json.Unmarshal(tv.Value, &l); err != nil {
			return fmt.Errorf("value of type %q: %w", tv.Type, err)
		}
		*v = StringListValue(l)
	default:
		return fmt.Errorf("unknown value type %q", tv.Type)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
