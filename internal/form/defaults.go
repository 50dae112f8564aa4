package form

import "time"

// Stock content offered by the builder. Every call builds new values with
// fresh ids, so callers may edit what they get back.

type sectionRecipe struct {
	key   string
	build func(id func() string) Section
}

var sectionRecipes = []sectionRecipe{
	{"camperDetails", camperDetailsSection},
	{"personalDetails", personalDetailsSection},
	{"address", addressSection},
	{"emergencyContact", emergencyContactSection},
	{"medicalInformation", medicalInformationSection},
	{"consent", consentSection},
	{"employmentHistory", employmentHistorySection},
	{"educationBackground", educationBackgroundSection},
	{"fileUpload", fileUploadSection},
	{"declaration", declarationSection},
}

type templateRecipe struct {
	key         string
	name        string
	description string
	sections    []string
}

var templateRecipes = []templateRecipe{
	{
		key:         "camperRegistration",
		name:        "Camper Registration Form",
		description: "A comprehensive form to register a camper including personal details, medical information, and emergency contacts.",
		sections:    []string{"camperDetails", "address", "medicalInformation", "emergencyContact", "consent"},
	},
	{
		key:         "jobApplication",
		name:        "Job Application Form",
		description: "A detailed form for job application including personal details, employment history, education background, and document uploads.",
		sections:    []string{"personalDetails", "employmentHistory", "educationBackground", "fileUpload", "declaration"},
	},
}

const stockImageName = "doc.plaintext"

func DefaultSectionKeys() []string {
	out := make([]string, 0, len(sectionRecipes))
	for _, r := range sectionRecipes {
		out = append(out, r.key)
	}
	return out
}

func DefaultSections() []Section {
	out := make([]Section, 0, len(sectionRecipes))
	for _, r := range sectionRecipes {
		out = append(out, r.build(NewID))
	}
	return out
}

func DefaultSection(key string) (Section, bool) {
	for _, r := range sectionRecipes {
		if r.key == key {
			return r.build(NewID), true
		}
	}
	return Section{}, false
}

func StockTemplateKeys() []string {
	out := make([]string, 0, len(templateRecipes))
	for _, r := range templateRecipes {
		out = append(out, r.key)
	}
	return out
}

// StockTemplate builds the named ready-made template. Stock templates are
// active from the start.
func StockTemplate(key string, now time.Time) (*Template, bool) {
	for _, r := range templateRecipes {
		if r.key == key {
			return r.template(now), true
		}
	}
	return nil, false
}

func StockTemplates(now time.Time) []*Template {
	out := make([]*Template, 0, len(templateRecipes))
	for _, r := range templateRecipes {
		out = append(out, r.template(now))
	}
	return out
}

func (r templateRecipe) template(now time.Time) *Template {
	image := stockImageName
	t := &Template{
		ID:          NewID(),
		Name:        r.name,
		Description: r.description,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsActive:    true,
		ImageName:   &image,
	}
	for _, key := range r.sections {
		s, _ := DefaultSection(key)
		t.Sections = append(t.Sections, s)
	}
	return t
}

func textField(id func() string, label string, ft FieldType, required bool, rules ...ValidationRule) Field {
	return Field{ID: id(), Label: label, Type: ft, IsRequired: required, Rules: rules}
}

func choiceField(id func() string, label string, ft FieldType, required bool, options ...string) Field {
	return Field{ID: id(), Label: label, Type: ft, IsRequired: required, Options: options}
}

func stockRule(id func() string, kind RuleKind, message string, value *Value) ValidationRule {
	return ValidationRule{ID: id(), Kind: kind, Message: message, Value: value}
}

func stringParam(p string) *Value {
	v := StringValue(p)
	return &v
}

func camperDetailsSection(id func() string) Section {
	return Section{ID: id(), Title: "Camper Details", Fields: []Field{
		textField(id, "First Name", FieldText, true),
		textField(id, "Last Name", FieldText, true),
		textField(id, "Date of Birth", FieldDate, true),
		choiceField(id, "Gender", FieldDropdown, true, "Male", "Female", "Other"),
	}}
}

func personalDetailsSection(id func() string) Section {
	return Section{ID: id(), Title: "Personal Details", Fields: []Field{
		textField(id, "First Name", FieldText, true),
		textField(id, "Last Name", FieldText, true),
		textField(id, "Date of Birth", FieldDate, true),
		textField(id, "Email Address", FieldEmail, true),
		textField(id, "Phone Number", FieldPhoneNumber, true),
	}}
}

func addressSection(id func() string) Section {
	return Section{ID: id(), Title: "Address", Fields: []Field{
		textField(id, "Street Address", FieldText, true),
		textField(id, "City", FieldText, true),
		textField(id, "State/Province/Region", FieldText, true),
		textField(id, "Postal Code", FieldText, true,
			stockRule(id, RuleRegex, "Enter a valid postal code", stringParam(`\d{5}(-\d{4})?`))),
		choiceField(id, "Country", FieldDropdown, true, "United States", "Canada", "Mexico", "Other"),
	}}
}

func medicalInformationSection(id func() string) Section {
	return Section{ID: id(), Title: "Medical Information", Fields: []Field{
		textField(id, "Allergies", FieldLongText, false),
		textField(id, "Medications", FieldLongText, false),
		textField(id, "Special Dietary Requirements", FieldLongText, false),
	}}
}

func emergencyContactSection(id func() string) Section {
	return Section{ID: id(), Title: "Emergency Contact", Fields: []Field{
		textField(id, "Emergency Contact Name", FieldText, true),
		textField(id, "Relationship to Camper", FieldText, true),
		textField(id, "Emergency Contact Phone", FieldPhoneNumber, true,
			stockRule(id, RuleRegex, "Enter a valid phone number", stringParam(`^[+\d]?(?:[\d-\.\s()]*)$`))),
		textField(id, "Email Address", FieldEmail, true,
			stockRule(id, RuleEmail, "Enter a valid email address", nil)),
	}}
}

func consentSection(id func() string) Section {
	return Section{ID: id(), Title: "Consent", Fields: []Field{
		textField(id, "Photo Consent", FieldCheckbox, false),
		textField(id, "I agree to the Terms and Conditions", FieldCheckbox, true,
			stockRule(id, RuleRequired, "You must agree to the terms and conditions to register", nil)),
	}}
}

func employmentHistorySection(id func() string) Section {
	return Section{ID: id(), Title: "Employment History", Fields: []Field{
		textField(id, "Most Recent Job Title", FieldText, true),
	}}
}

func educationBackgroundSection(id func() string) Section {
	return Section{ID: id(), Title: "Education Background", Fields: []Field{
		choiceField(id, "Highest Level of Education", FieldDropdown, true,
			"High School", "Associate's", "Bachelor's", "Master's", "Doctorate", "Other"),
	}}
}

func fileUploadSection(id func() string) Section {
	return Section{ID: id(), Title: "File Upload", Fields: []Field{
		textField(id, "Cover Letter (optional)", FieldFile, false),
		textField(id, "Resume", FieldFile, true),
	}}
}

func declarationSection(id func() string) Section {
	return Section{ID: id(), Title: "Declaration", Fields: []Field{
		textField(id, "I declare that the information provided is true and complete to the best of my knowledge.", FieldCheckbox, true,
			stockRule(id, RuleRequired, "You must declare the information is true to submit the application", nil)),
	}}
}
