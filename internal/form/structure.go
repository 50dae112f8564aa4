package form

import "fmt"

type StructuralCode string

const (
	CodeMissingOptions    StructuralCode = "missing_options"
	CodeUnexpectedOptions StructuralCode = "unexpected_options"
	CodeInapplicableRule  StructuralCode = "inapplicable_rule"
	CodeInvalidRuleParam  StructuralCode = "invalid_rule_parameter"
	CodeUnknownFieldType  StructuralCode = "unknown_field_type"
	CodeUnknownRuleKind   StructuralCode = "unknown_rule_kind"
	CodeMissingID         StructuralCode = "missing_id"
	CodeDuplicateID       StructuralCode = "duplicate_id"
)

// StructuralViolation is an inconsistency between a template's shape and the
// field type / rule constraints. It is an expected state while a template is
// being edited.
type StructuralViolation struct {
	SectionID string         `json:"section_id,omitempty"`
	FieldID   string         `json:"field_id,omitempty"`
	RuleID    string         `json:"rule_id,omitempty"`
	Code      StructuralCode `json:"code"`
	Message   string         `json:"message"`
}

// ValidateStructure checks every section, field and rule of t without
// mutating it. An empty result means t is well formed.
func ValidateStructure(t *Template) []StructuralViolation {
	var out []StructuralViolation
	if t == nil {
		return out
	}

	seen := map[string]struct{}{}
	checkID := func(id, what string, v StructuralViolation) {
		if id == "" {
			v.Code = CodeMissingID
			v.Message = what + " has no id"
			out = append(out, v)
			return
		}
		if _, dup := seen[id]; dup {
			v.Code = CodeDuplicateID
			v.Message = fmt.Sprintf("%s id %q is used more than once", what, id)
			out = append(out, v)
			return
		}
		seen[id] = struct{}{}
	}

	checkID(t.ID, "template", StructuralViolation{})

	for _, s := range t.Sections {
		checkID(s.ID, "section", StructuralViolation{SectionID: s.ID})

		for _, f := range s.Fields {
			at := StructuralViolation{SectionID: s.ID, FieldID: f.ID}
			checkID(f.ID, "field", at)

			if !f.Type.Valid() {
				v := at
				v.Code = CodeUnknownFieldType
				v.Message = fmt.Sprintf("field %q has unknown type %q", f.Label, string(f.Type))
				out = append(out, v)
				continue
			}

			if f.Type.RequiresOptions() && len(f.Options) == 0 {
				v := at
				v.Code = CodeMissingOptions
				v.Message = fmt.Sprintf("field %q needs at least one option", f.Label)
				out = append(out, v)
			}
			if !f.Type.RequiresOptions() && f.Options != nil {
				v := at
				v.Code = CodeUnexpectedOptions
				v.Message = fmt.Sprintf("field %q of type %s does not take options", f.Label, f.Type)
				out = append(out, v)
			}

			for _, r := range f.Rules {
				rv := at
				rv.RuleID = r.ID
				checkID(r.ID, "rule", rv)

				if !r.Kind.Valid() {
					rv.Code = CodeUnknownRuleKind
					rv.Message = fmt.Sprintf("field %q has a rule of unknown kind %q", f.Label, string(r.Kind))
					out = append(out, rv)
					continue
				}
				if !r.Kind.IsApplicable(f.Type) {
					v := rv
					v.Code = CodeInapplicableRule
					v.Message = fmt.Sprintf("rule %q does not apply to %s field %q", r.Kind, f.Type, f.Label)
					out = append(out, v)
				}
				if err := checkParam(r); err != nil {
					v := rv
					v.Code = CodeInvalidRuleParam
					v.Message = fmt.Sprintf("rule %q on field %q: %v", r.Kind, f.Label, err)
					out = append(out, v)
				}
			}
		}
	}
	return out
}
