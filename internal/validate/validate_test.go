package validate

import (
	"strings"
	"testing"

	"github.com/everstacklabs/chutes-plugin/internal/catalog"
)

func intPtr(v int) *int { return &v }

func validModel() *catalog.Model {
	return &catalog.Model{
		ID:                "deepseek-ai/DeepSeek-V3",
		OwnedBy:           "deepseek-ai",
		Pricing:           catalog.Pricing{Prompt: 0.25, Completion: 1},
		MaxModelLen:       intPtr(163840),
		MaxOutputLength:   intPtr(65536),
		InputModalities:   []string{"text"},
		OutputModalities:  []string{"text"},
		SupportedFeatures: []string{"json_mode", "tools", "reasoning"},
	}
}

func TestValidModelPassesAllChecks(t *testing.T) {
	r := ValidateModel(validModel())

	if r.HasErrors() {
		t.Errorf("expected no errors, got: %v", r.Errors())
	}
	if len(r.Warnings()) > 0 {
		t.Errorf("expected no warnings, got: %v", r.Warnings())
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*catalog.Model)
		errField string
	}{
		{"missing id", func(m *catalog.Model) { m.ID = "" }, "id"},
		{"negative prompt price", func(m *catalog.Model) { m.Pricing.Prompt = -1 }, "pricing.prompt"},
		{"negative completion price", func(m *catalog.Model) { m.Pricing.Completion = -0.5 }, "pricing.completion"},
		{"output exceeds context", func(m *catalog.Model) { m.MaxOutputLength = intPtr(200000) }, "max_output_length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validModel()
			tt.mutate(m)
			r := ValidateModel(m)

			found := false
			for _, e := range r.Errors() {
				if e.Field == tt.errField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got: %v", tt.errField, r.Issues)
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*catalog.Model)
		warnField string
	}{
		{"missing owner", func(m *catalog.Model) { m.OwnedBy = "" }, "owned_by"},
		{"expensive", func(m *catalog.Model) { m.Pricing.Completion = 250 }, "pricing.completion"},
		{"no context bound", func(m *catalog.Model) { m.MaxModelLen = nil; m.MaxOutputLength = nil }, "max_model_len"},
		{"no input modality", func(m *catalog.Model) { m.InputModalities = nil }, "input_modalities"},
		{"no output modality", func(m *catalog.Model) { m.OutputModalities = nil }, "output_modalities"},
		{"unknown feature", func(m *catalog.Model) { m.SupportedFeatures = []string{"telepathy"} }, "supported_features"},
		{"unknown input modality", func(m *catalog.Model) { m.InputModalities = []string{"smell"} }, "input_modalities"},
		{"unknown output modality", func(m *catalog.Model) { m.OutputModalities = []string{"taste"} }, "output_modalities"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validModel()
			tt.mutate(m)
			r := ValidateModel(m)

			if r.HasErrors() {
				t.Errorf("expected no errors, got: %v", r.Errors())
			}
			found := false
			for _, w := range r.Warnings() {
				if w.Field == tt.warnField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected warning on field %q, got: %v", tt.warnField, r.Issues)
			}
		})
	}
}

func TestContextLengthFallbackSatisfiesBound(t *testing.T) {
	m := validModel()
	m.MaxModelLen = nil
	m.ContextLength = intPtr(131072)

	r := ValidateModel(m)
	if len(r.Issues) != 0 {
		t.Errorf("expected no issues, got: %v", r.Issues)
	}
}

func TestValidateListingDuplicates(t *testing.T) {
	a := *validModel()
	b := *validModel()
	c := *validModel()
	c.ID = "Qwen/Qwen3-32B"

	r := ValidateListing([]catalog.Model{a, b, c})

	errs := r.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	if errs[0].Model != a.ID || !strings.Contains(errs[0].Message, "duplicate") {
		t.Errorf("unexpected error: %s", errs[0])
	}
}

func TestFormatResult(t *testing.T) {
	if got := FormatResult(&Result{}); got != "Validation passed: no issues found." {
		t.Errorf("FormatResult(empty) = %q", got)
	}

	r := &Result{Issues: []Issue{
		{SeverityError, "m1", "id", "required field is empty"},
		{SeverityWarning, "m2", "owned_by", "field is empty"},
	}}
	got := FormatResult(r)
	if !strings.Contains(got, "Errors (1):\n  [ERROR] m1: id: required field is empty\n") {
		t.Errorf("missing error section in:\n%s", got)
	}
	if !strings.Contains(got, "Warnings (1):\n  [WARN] m2: owned_by: field is empty\n") {
		t.Errorf("missing warning section in:\n%s", got)
	}
}
