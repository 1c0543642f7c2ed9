package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how a listing is written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Write renders models in the given format. JSON uses the host's camelCase
// keys and YAML uses snake_case keys; an empty listing is written as an
// empty list rather than null.
func Write(w io.Writer, format Format, models []DisplayInfo) error {
	if models == nil {
		models = []DisplayInfo{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(models); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatText:
		return writeText(w, models)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, models []DisplayInfo) error {
	for _, m := range models {
		_, err := fmt.Fprintf(w, "%-55s %-18s %9d  $%.2f/$%.2f  %s\n",
			m.ID, m.OwnedBy, m.ContextLength,
			m.Pricing.PromptPer1M, m.Pricing.CompletionPer1M,
			strings.Join(m.Features, ","))
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nTotal: %d models\n", len(models))
	return err
}
