package validate

import (
	"fmt"
	"strings"

	"github.com/everstacklabs/chutes-plugin/internal/catalog"
)

// Severity classifies validation issues.
type Severity int

const (
	SeverityError   Severity = iota // Model is unusable by the host
	SeverityWarning                 // Reported but the model is still listed
)

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity
	Model    string
	Field    string
	Message  string
}

func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s: %s", sev, i.Model, i.Field, i.Message)
}

// Result holds all validation issues.
type Result struct {
	Issues []Issue
}

// HasErrors returns true if there are any blocking errors.
func (r *Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (r *Result) Errors() []Issue {
	var errs []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (r *Result) Warnings() []Issue {
	var warns []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			warns = append(warns, i)
		}
	}
	return warns
}

// Known feature values (warn on unknown, don't block).
var knownFeatures = map[string]bool{
	"json_mode":          true,
	"tools":              true,
	"structured_outputs": true,
	"reasoning":          true,
}

// Known modality values.
var knownModalities = map[string]bool{
	"text":  true,
	"image": true,
	"audio": true,
	"video": true,
	"file":  true,
	"pdf":   true,
}

// Pricing above this many USD per million tokens is flagged.
const maxExpectedPrice = 100.0

// ValidateModel checks a single listed model.
func ValidateModel(m *catalog.Model) *Result {
	r := &Result{}

	name := m.ID
	if name == "" {
		name = "<unnamed>"
		r.Issues = append(r.Issues, Issue{SeverityError, name, "id", "required field is empty"})
	}
	if m.OwnedBy == "" {
		r.Issues = append(r.Issues, Issue{SeverityWarning, name, "owned_by", "field is empty"})
	}

	// Pricing sanity
	prices := []struct {
		field string
		v     float64
	}{
		{"pricing.prompt", m.Pricing.Prompt},
		{"pricing.completion", m.Pricing.Completion},
	}
	for _, p := range prices {
		field, v := p.field, p.v
		switch {
		case v < 0:
			r.Issues = append(r.Issues, Issue{SeverityError, name, field,
				fmt.Sprintf("negative value %.4f", v)})
		case v > maxExpectedPrice:
			r.Issues = append(r.Issues, Issue{SeverityWarning, name, field,
				fmt.Sprintf("value %.4f outside expected range [0, %.0f]", v, maxExpectedPrice)})
		}
	}

	// Limits sanity
	if (m.MaxModelLen == nil || *m.MaxModelLen <= 0) && (m.ContextLength == nil || *m.ContextLength <= 0) {
		r.Issues = append(r.Issues, Issue{SeverityWarning, name, "max_model_len",
			fmt.Sprintf("no context length reported, assuming %d", catalog.DefaultContextLength)})
	}
	ctx := catalog.NewDisplayInfo("", *m).ContextLength
	if m.MaxOutputLength != nil && *m.MaxOutputLength > ctx {
		r.Issues = append(r.Issues, Issue{SeverityError, name, "max_output_length",
			fmt.Sprintf("value %d exceeds context length %d", *m.MaxOutputLength, ctx)})
	}

	if len(m.InputModalities) == 0 {
		r.Issues = append(r.Issues, Issue{SeverityWarning, name, "input_modalities", "no input modality listed"})
	}
	if len(m.OutputModalities) == 0 {
		r.Issues = append(r.Issues, Issue{SeverityWarning, name, "output_modalities", "no output modality listed"})
	}

	// Feature taxonomy
	for _, f := range m.SupportedFeatures {
		if !knownFeatures[f] {
			r.Issues = append(r.Issues, Issue{SeverityWarning, name, "supported_features",
				fmt.Sprintf("unknown feature %q", f)})
		}
	}

	// Modality taxonomy
	for _, mod := range m.InputModalities {
		if !knownModalities[mod] {
			r.Issues = append(r.Issues, Issue{SeverityWarning, name, "input_modalities",
				fmt.Sprintf("unknown modality %q", mod)})
		}
	}
	for _, mod := range m.OutputModalities {
		if !knownModalities[mod] {
			r.Issues = append(r.Issues, Issue{SeverityWarning, name, "output_modalities",
				fmt.Sprintf("unknown modality %q", mod)})
		}
	}

	return r
}

// ValidateListing validates every model in a /models response and flags
// duplicate IDs, which the registry would collapse into one entry.
func ValidateListing(models []catalog.Model) *Result {
	r := &Result{}
	seen := make(map[string]bool, len(models))
	for i := range models {
		m := &models[i]
		if m.ID != "" && seen[m.ID] {
			r.Issues = append(r.Issues, Issue{SeverityError, m.ID, "id", "duplicate id in listing"})
		}
		seen[m.ID] = true
		r.Issues = append(r.Issues, ValidateModel(m).Issues...)
	}
	return r
}

// FormatResult formats validation results for display.
func FormatResult(r *Result) string {
	if len(r.Issues) == 0 {
		return "Validation passed: no issues found."
	}

	var b strings.Builder
	errors := r.Errors()
	warnings := r.Warnings()

	if len(errors) > 0 {
		b.WriteString(fmt.Sprintf("Errors (%d):\n", len(errors)))
		for _, e := range errors {
			b.WriteString(fmt.Sprintf("  %s\n", e))
		}
	}

	if len(warnings) > 0 {
		b.WriteString(fmt.Sprintf("Warnings (%d):\n", len(warnings)))
		for _, w := range warnings {
			b.WriteString(fmt.Sprintf("  %s\n", w))
		}
	}

	return b.String()
}
