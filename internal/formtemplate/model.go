package formtemplate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tmi-forms-api/internal/form"
)

const TemplatesCollection = "form_templates"

func userFormsCollection(userID string) string {
	return "users/" + userID + "/myForms"
}

var (
	ErrUnknownStock = errors.New("unknown stock template")
	ErrInvalidEdit  = errors.New("invalid edit")
)

// PublishBlockedError is returned when a template with structural problems
// is published.
type PublishBlockedError struct {
	Violations []form.StructuralViolation
}

func (e *PublishBlockedError) Error() string {
	return fmt.Sprintf("template has %d structural violation(s)", len(e.Violations))
}

// SaveResult is what every save returns. Violations are informational; the
// template was stored regardless.
type SaveResult struct {
	Template   *form.Template
	Violations []form.StructuralViolation
}

type ListFilter struct {
	Category   string `form:"category"`
	ActiveOnly bool   `form:"active_only"`
}

type CreateTemplateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Category    *string `json:"category"`
}

type AddUserFormRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
}

// UserForm is stored under users/<id>/myForms with the template id as key.
type UserForm struct {
	FormID  string    `json:"formId"`
	AddedOn time.Time `json:"addedOn"`
}

// Edit operations accepted by Edit.
const (
	OpSetName              = "setName"
	OpSetDescription       = "setDescription"
	OpSetCategory          = "setCategory"
	OpAddSection           = "addSection"
	OpRemoveSection        = "removeSection"
	OpMoveSection          = "moveSection"
	OpSetSectionTitle      = "setSectionTitle"
	OpAttachDefaultSection = "attachDefaultSection"
	OpAddField             = "addField"
	OpRemoveField          = "removeField"
	OpMoveField            = "moveField"
	OpDuplicateField       = "duplicateField"
	OpSetFieldLabel        = "setFieldLabel"
	OpSetFieldRequired     = "setFieldRequired"
	OpSetFieldOptions      = "setFieldOptions"
	OpAddOption            = "addOption"
	OpRemoveOption         = "removeOption"
	OpSetValidationRules   = "setValidationRules"
)

// EditRequest is one builder operation. Only the fields the operation needs
// are read; out-of-range indices leave the template unchanged.
type EditRequest struct {
	Op             string          `json:"op" binding:"required,oneof=setName setDescription setCategory addSection removeSection moveSection setSectionTitle attachDefaultSection addField removeField moveField duplicateField setFieldLabel setFieldRequired setFieldOptions addOption removeOption setValidationRules"`
	Section        int             `json:"section" binding:"min=0"`
	Field          int             `json:"field" binding:"min=0"`
	Option         int             `json:"option" binding:"min=0"`
	Text           string          `json:"text"`
	Category       *string         `json:"category"`
	FieldType      string          `json:"fieldType"`
	Direction      string          `json:"direction"`
	Required       bool            `json:"required"`
	Options        []string        `json:"options"`
	DefaultSection string          `json:"defaultSection"`
	Rules          json.RawMessage `json:"rules"`
}
