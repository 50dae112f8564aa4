package form

import (
	"fmt"
	"regexp"
	"strings"
)

type ViolationCode string

const (
	ViolationMissingRequired ViolationCode = "missing_required"
	ViolationInvalidType     ViolationCode = "invalid_type"
	ViolationRule            ViolationCode = "rule"
)

const (
	MsgMissingRequired = "missing required field"
	MsgInvalidType     = "invalid data type for field"
)

// phonePattern is the only accepted phone number layout.
var phonePattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)

// Violation is one problem with one payload entry. Message is what the end
// user sees next to the field.
type Violation struct {
	FieldID string        `json:"field_id"`
	RuleID  string        `json:"rule_id,omitempty"`
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`
}

// Result of Validate. Accepted is true iff Violations is empty.
type Result struct {
	Accepted   bool
	Violations []Violation
}

// Validate checks payload against every field of t in section-then-field
// order and reports all problems in one pass:
//   - a required field with no entry, or a blank string entry, is missing and
//     nothing else is checked for it;
//   - an entry of the wrong variant for the field type, or a non-blank phone
//     number not written as 555-123-4567, is an invalid type and its rules
//     are skipped;
//   - otherwise every rule applicable to the field type runs in order and
//     each failure is reported. Inapplicable or unknown rules are ignored;
//     ValidateStructure reports them.
//
// Entries for ids the template does not know are ignored.
func Validate(t *Template, payload Payload) Result {
	var out []Violation
	if t != nil {
		for _, s := range t.Sections {
			for _, f := range s.Fields {
				out = append(out, validateField(f, payload)...)
			}
		}
	}
	return Result{Accepted: len(out) == 0, Violations: out}
}

func validateField(f Field, payload Payload) []Violation {
	v, ok := payload[f.ID]
	if ok && v.IsZero() {
		ok = false
	}

	if f.IsRequired && (!ok || blank(v)) {
		return []Violation{{FieldID: f.ID, Code: ViolationMissingRequired, Message: MsgMissingRequired}}
	}
	if !ok {
		return nil
	}

	if !f.Type.Valid() || v.Kind() != f.Type.ValueKind() || !wellFormed(f.Type, v) {
		return []Violation{{FieldID: f.ID, Code: ViolationInvalidType, Message: MsgInvalidType}}
	}

	var out []Violation
	for _, r := range f.Rules {
		if !r.Kind.Valid() || !r.Kind.IsApplicable(f.Type) {
			continue
		}
		if res := Evaluate(r, v); !res.Satisfied {
			out = append(out, Violation{FieldID: f.ID, RuleID: r.ID, Code: ViolationRule, Message: res.Message})
		}
	}
	return out
}

func wellFormed(ft FieldType, v Value) bool {
	if ft != FieldPhoneNumber || blank(v) {
		return true
	}
	s, _ := v.Str()
	return phonePattern.MatchString(strings.TrimSpace(s))
}

func blank(v Value) bool {
	s, ok := v.Str()
	return ok && strings.TrimSpace(s) == ""
}

// Summary renders violations on one line for logs.
func (r Result) Summary() string {
	if r.Accepted {
		return ""
	}
	parts := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.FieldID, v.Message))
	}
	return strings.Join(parts, "; ")
}

// FieldIDs lists the ids of violating fields, once each, in report order.
func (r Result) FieldIDs() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range r.Violations {
		if _, ok := seen[v.FieldID]; ok {
			continue
		}
		seen[v.FieldID] = struct{}{}
		out = append(out, v.FieldID)
	}
	return out
}
