package form

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RuleKind is the check a ValidationRule performs. The string value is the
// tag used in the portable template format.
type RuleKind string

const (
	RuleMinLength RuleKind = "Minimum Length"
	RuleMaxLength RuleKind = "Maximum Length"
	RuleMinValue  RuleKind = "Minimum Numeric Value"
	RuleMaxValue  RuleKind = "Maximum Numeric Value"
	RuleRegex     RuleKind = "Regex Pattern"
	RuleRequired  RuleKind = "Required Field"
	RuleEmail     RuleKind = "Email Format"
	RuleURL       RuleKind = "URL Format"
)

var ruleKinds = []RuleKind{
	RuleMinLength,
	RuleMaxLength,
	RuleMinValue,
	RuleMaxValue,
	RuleRegex,
	RuleRequired,
	RuleEmail,
	RuleURL,
}

func RuleKinds() []RuleKind {
	out := make([]RuleKind, len(ruleKinds))
	copy(out, ruleKinds)
	return out
}

func ParseRuleKind(tag string) (RuleKind, bool) {
	for _, k := range ruleKinds {
		if string(k) == tag {
			return k, true
		}
	}
	return "", false
}

func (k RuleKind) Valid() bool {
	_, ok := ParseRuleKind(string(k))
	return ok
}

// ValidationRule is a single check attached to exactly one Field. Value is
// set iff Kind.RequiresValue().
type ValidationRule struct {
	ID      string
	Kind    RuleKind
	Message string
	Value   *Value
}

func (k RuleKind) Description() string {
	switch k {
	case RuleMinLength:
		return "Field must have a minimum number of characters."
	case RuleMaxLength:
		return "Field must not exceed a maximum number of characters."
	case RuleMinValue:
		return "Field must have a numeric value greater than or equal to the specified minimum."
	case RuleMaxValue:
		return "Field must have a numeric value less than or equal to the specified maximum."
	case RuleRegex:
		return "Field value must match the specified regular expression pattern."
	case RuleRequired:
		return "Field is mandatory and cannot be left blank."
	case RuleEmail:
		return "Field must contain a valid email address."
	case RuleURL:
		return "Field must contain a valid URL."
	}
	panic(unknownRuleKind(k))
}

// Placeholder is the hint shown in the parameter input.
func (k RuleKind) Placeholder() string {
	switch k {
	case RuleMinLength, RuleMaxLength:
		return "Enter number of characters"
	case RuleMinValue, RuleMaxValue:
		return "Enter numeric value"
	case RuleRegex:
		return "Enter regex pattern"
	case RuleRequired, RuleEmail, RuleURL:
		return "Enter value"
	}
	panic(unknownRuleKind(k))
}

// ValueLabel captions the parameter input.
func (k RuleKind) ValueLabel() string {
	switch k {
	case RuleMinLength:
		return "Minimum character count"
	case RuleMaxLength:
		return "Maximum character count"
	case RuleMinValue:
		return "Minimum numeric value"
	case RuleMaxValue:
		return "Maximum numeric value"
	case RuleRegex:
		return "Regular expression pattern"
	case RuleRequired, RuleEmail, RuleURL:
		return "Value"
	}
	panic(unknownRuleKind(k))
}

func (k RuleKind) DisplayName() string {
	switch k {
	case RuleMinLength:
		return "Min Length"
	case RuleMaxLength:
		return "Max Length"
	case RuleMinValue, RuleMaxValue, RuleRegex, RuleRequired, RuleEmail, RuleURL:
		return string(k)
	}
	panic(unknownRuleKind(k))
}

func (k RuleKind) RequiresValue() bool {
	switch k {
	case RuleMinLength, RuleMaxLength, RuleMinValue, RuleMaxValue, RuleRegex:
		return true
	case RuleRequired, RuleEmail, RuleURL:
		return false
	}
	panic(unknownRuleKind(k))
}

// IsApplicable reports whether a rule of this kind may be attached to a field
// of type ft.
func (k RuleKind) IsApplicable(ft FieldType) bool {
	switch k {
	case RuleMinLength, RuleMaxLength:
		return ft == FieldText || ft == FieldLongText || ft == FieldEmail || ft == FieldURL
	case RuleMinValue, RuleMaxValue:
		return ft == FieldNumber
	case RuleRegex:
		switch ft {
		case FieldCheckbox, FieldDropdown, FieldMultipleChoice, FieldDate, FieldDateTime, FieldTime:
			return false
		default:
			return true
		}
	case RuleRequired:
		return true
	case RuleEmail:
		return ft == FieldEmail
	case RuleURL:
		return ft == FieldURL
	}
	panic(unknownRuleKind(k))
}

// ApplicableRuleKinds lists the kinds a builder UI should offer for ft.
func ApplicableRuleKinds(ft FieldType) []RuleKind {
	out := make([]RuleKind, 0, len(ruleKinds))
	for _, k := range ruleKinds {
		if k.IsApplicable(ft) {
			out = append(out, k)
		}
	}
	return out
}

// DefaultRuleKind is the kind preselected when a rule is added to a new field.
func DefaultRuleKind(ft FieldType) RuleKind {
	switch ft {
	case FieldText, FieldLongText:
		return RuleMinLength
	case FieldNumber:
		return RuleMinValue
	default:
		return RuleRequired
	}
}

// Outcome is the result of evaluating one rule.
type Outcome struct {
	Satisfied bool
	Message   string
}

func satisfied() Outcome { return Outcome{Satisfied: true} }
func violated(r ValidationRule) Outcome { return Outcome{Message: r.Message} }

var (
	emailPattern = regexp.MustCompile(`^[A-Z0-9a-z._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,64}$`)
	urlValidate  = validator.New()
)

// Evaluate applies r to v, which must already carry the variant expected for
// the field's type. A violation always carries the rule's own message. A
// parameter that cannot be interpreted counts as a violation.
func Evaluate(r ValidationRule, v Value) Outcome {
	switch r.Kind {
	case RuleMinLength, RuleMaxLength:
		s, ok := v.Text()
		if !ok {
			return violated(r)
		}
		limit, err := intParam(r.Value)
		if err != nil {
			return violated(r)
		}
		n := len([]rune(s))
		if r.Kind == RuleMinLength && n < limit || r.Kind == RuleMaxLength && n > limit {
			return violated(r)
		}
		return satisfied()

	case RuleMinValue, RuleMaxValue:
		n, ok := v.Number()
		if !ok {
			return violated(r)
		}
		limit, err := numberParam(r.Value)
		if err != nil {
			return violated(r)
		}
		if r.Kind == RuleMinValue && n < limit || r.Kind == RuleMaxValue && n > limit {
			return violated(r)
		}
		return satisfied()

	case RuleRegex:
		s, ok := v.Text()
		if !ok {
			return violated(r)
		}
		re, err := patternParam(r.Value)
		if err != nil || !re.MatchString(s) {
			return violated(r)
		}
		return satisfied()

	case RuleRequired:
		if present(v) {
			return satisfied()
		}
		return violated(r)

	case RuleEmail:
		s, ok := v.Str()
		if !ok || !emailPattern.MatchString(strings.TrimSpace(s)) {
			return violated(r)
		}
		return satisfied()

	case RuleURL:
		s, ok := v.Str()
		if !ok || urlValidate.Var(strings.TrimSpace(s), "required,url") != nil {
			return violated(r)
		}
		return satisfied()
	}
	return violated(r)
}

// present is the "required" rule's notion of a filled-in value: non-blank
// strings, ticked checkboxes, non-empty selections.
func present(v Value) bool {
	switch v.Kind() {
	case KindString:
		return strings.TrimSpace(v.str) != ""
	case KindBool:
		return v.b
	case KindStringList:
		return len(v.list) > 0
	case KindNumber, KindDate:
		return true
	default:
		return false
	}
}

func intParam(p *Value) (int, error) {
	f, err := numberParam(p)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, fmt.Errorf("expected a non-negative whole number up to %d, got %v", math.MaxInt32, f)
	}
	return int(f), nil
}

// numberParam accepts a numeric parameter or a string holding one; rule
// editors commonly store what was typed.
func numberParam(p *Value) (float64, error) {
	if p == nil {
		return 0, fmt.Errorf("missing parameter")
	}
	n, ok := p.Number()
	if !ok {
		s, isStr := p.Str()
		if !isStr {
			return 0, fmt.Errorf("parameter of type %s is not a number", p.Kind())
		}
		var err error
		if n, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, fmt.Errorf("parameter %q is not a number", s)
		}
	}
	// NaN never compares, so a rule holding it could never fire.
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("parameter %v is not a finite number", n)
	}
	return n, nil
}

func patternParam(p *Value) (*regexp.Regexp, error) {
	if p == nil {
		return nil, fmt.Errorf("missing parameter")
	}
	s, ok := p.Str()
	if !ok {
		return nil, fmt.Errorf("parameter of type %s is not a pattern", p.Kind())
	}
	return regexp.Compile(s)
}

// checkParam reports why r's parameter is unusable, or nil.
func checkParam(r ValidationRule) error {
	if !r.Kind.RequiresValue() {
		if r.Value != nil {
			return fmt.Errorf("%s takes no parameter", r.Kind)
		}
		return nil
	}
	var err error
	switch r.Kind {
	case RuleMinLength, RuleMaxLength:
		_, err = intParam(r.Value)
	case RuleMinValue, RuleMaxValue:
		_, err = numberParam(r.Value)
	case RuleRegex:
		_, err = patternParam(r.Value)
	}
	return err
}

func unknownRuleKind(k RuleKind) string {
	return fmt.Sprintf("form: unknown rule kind %q", string(k))
}
