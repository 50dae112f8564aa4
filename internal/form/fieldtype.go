package form

import "fmt"

// FieldType is the kind of input slot a Field represents. The string value is
// the tag used in the portable template format.
type FieldType string

const (
	FieldText           FieldType = "text"
	FieldLongText       FieldType = "longText"
	FieldNumber         FieldType = "number"
	FieldDate           FieldType = "date"
	FieldDateTime       FieldType = "dateTime"
	FieldTime           FieldType = "time"
	FieldDropdown       FieldType = "dropdown"
	FieldMultipleChoice FieldType = "multipleChoice"
	FieldCheckbox       FieldType = "checkbox"
	FieldEmail          FieldType = "email"
	FieldPhoneNumber    FieldType = "phoneNumber"
	FieldURL            FieldType = "url"
	FieldFile           FieldType = "file"
)

var fieldTypes = []FieldType{
	FieldText,
	FieldLongText,
	FieldNumber,
	FieldDate,
	FieldDateTime,
	FieldTime,
	FieldDropdown,
	FieldMultipleChoice,
	FieldCheckbox,
	FieldEmail,
	FieldPhoneNumber,
	FieldURL,
	FieldFile,
}

// FieldTypes returns every supported field type in declaration order.
func FieldTypes() []FieldType {
	out := make([]FieldType, len(fieldTypes))
	copy(out, fieldTypes)
	return out
}

// ParseFieldType maps a wire tag to a FieldType.
func ParseFieldType(tag string) (FieldType, bool) {
	for _, ft := range fieldTypes {
		if string(ft) == tag {
			return ft, true
		}
	}
	return "", false
}

func (ft FieldType) Valid() bool {
	_, ok := ParseFieldType(string(ft))
	return ok
}

// The switches below list every variant and have no default branch; the
// exhaustive linter flags a missing case. Reaching the trailing panic means a
// FieldType was built without ParseFieldType.

func (ft FieldType) RequiresOptions() bool {
	switch ft {
	case FieldDropdown, FieldMultipleChoice:
		return true
	case FieldText, FieldLongText, FieldNumber, FieldDate, FieldDateTime, FieldTime,
		FieldCheckbox, FieldEmail, FieldPhoneNumber, FieldURL, FieldFile:
		return false
	}
	panic(unknownFieldType(ft))
}

func (ft FieldType) AllowsValidation() bool {
	switch ft {
	case FieldText, FieldLongText, FieldNumber, FieldEmail, FieldPhoneNumber, FieldURL:
		return true
	case FieldDate, FieldDateTime, FieldTime, FieldDropdown, FieldMultipleChoice,
		FieldCheckbox, FieldFile:
		return false
	}
	panic(unknownFieldType(ft))
}

func (ft FieldType) DefaultLabel() string {
	switch ft {
	case FieldText:
		return "Text Field"
	case FieldLongText:
		return "Large Text Field"
	case FieldNumber:
		return "Number Field"
	case FieldDate:
		return "Date Field"
	case FieldTime:
		return "Time Field"
	case FieldDateTime:
		return "Date & Time Field"
	case FieldDropdown:
		return "Dropdown Field"
	case FieldMultipleChoice:
		return "Multiple Choice Field"
	case FieldCheckbox:
		return "Checkbox Field"
	case FieldEmail:
		return "Email Field"
	case FieldPhoneNumber:
		return "Phone Number Field"
	case FieldURL:
		return "URL Field"
	case FieldFile:
		return "File Upload Field"
	}
	panic(unknownFieldType(ft))
}

// ValueKind is the payload variant a submitted value must carry for this type.
func (ft FieldType) ValueKind() ValueKind {
	switch ft {
	case FieldText, FieldLongText, FieldDropdown, FieldEmail, FieldPhoneNumber, FieldURL, FieldFile:
		return KindString
	case FieldNumber:
		return KindNumber
	case FieldDate, FieldTime, FieldDateTime:
		return KindDate
	case FieldCheckbox:
		return KindBool
	case FieldMultipleChoice:
		return KindStringList
	}
	panic(unknownFieldType(ft))
}

func unknownFieldType(ft FieldType) string {
	return fmt.Sprintf("form: unknown field type %q", string(ft))
}
