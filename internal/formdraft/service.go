package formdraft

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tmi-forms-api/internal/form"

	"google.golang.org/genai"
)

type DraftService struct {
	Generator Generator
	Model     string
	Now       func() time.Time
}

func (s *DraftService) Draft(ctx context.Context, prompt string) (Draft, error) {
	if s.Generator == nil {
		return Draft{}, ErrDraftsDisabled
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Draft{}, ErrEmptyPrompt
	}

	model := s.Model
	if model == "" {
		model = defaultModel
	}

	genResp, err := s.Generator.GenerateContent(ctx, model, []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: instructions()}},
		},
	})
	if err != nil {
		return Draft{}, fmt.Errorf("generation error: %w", err)
	}

	text := responseText(genResp)
	if text == "" {
		return Draft{}, ErrEmptyResponse
	}

	tmpl, err := form.Deserialize([]byte(stripFences(text)))
	if err != nil {
		return Draft{}, err
	}

	form.Reidentify(tmpl, form.NewID)
	now := s.now()
	tmpl.IsActive = false
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	return Draft{Template: tmpl, Violations: form.ValidateStructure(tmpl)}, nil
}

func (s *DraftService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text
		}
	}
	return ""
}

// stripFences removes a surrounding ```json ... ``` block if the model added one.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = ""
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func instructions() string {
	var sb strings.Builder
	sb.WriteString("You design data collection forms. Reply with a single JSON document and nothing else.\n")
	sb.WriteString(`Shape: {"id":"","name":"...","templateDescription":"...","category":"...","isActive":false,`)
	sb.WriteString(`"sections":[{"id":"","title":"...","fields":[{"id":"","label":"...","type":"...","isRequired":false,`)
	sb.WriteString(`"options":["..."],"validationRules":[{"id":"","rule":"...","message":"...","value":{"type":"number","value":3}}]}]}]}`)
	sb.WriteString("\nField types and the rules each one accepts:\n")
	for _, ft := range form.FieldTypes() {
		names := make([]string, 0)
		for _, k := range form.ApplicableRuleKinds(ft) {
			names = append(names, fmt.Sprintf("%q", string(k)))
		}
		fmt.Fprintf(&sb, "- %q", string(ft))
		if ft.RequiresOptions() {
			sb.WriteString(" (needs a non-empty options list)")
		}
		if len(names) > 0 {
			fmt.Fprintf(&sb, ": %s", strings.Join(names, ", "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Rules that take a parameter:\n")
	for _, k := range form.RuleKinds() {
		if !k.RequiresValue() {
			continue
		}
		fmt.Fprintf(&sb, "- %q: %s, e.g. %s\n", string(k), k.ValueLabel(), k.Placeholder())
	}
	sb.WriteString("Use {\"type\":\"number\"} values for lengths and numeric bounds and {\"type\":\"string\"} for regex patterns. ")
	sb.WriteString("Only dropdown and multipleChoice fields carry options. Leave every id empty.\n")
	return sb.String()
}
