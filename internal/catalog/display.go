package catalog

// DefaultContextLength is used when a model reports neither max_model_len
// nor context_length.
const DefaultContextLength = 32768

// DisplayInfo is the host-facing projection of a Model.
type DisplayInfo struct {
	ID                          string         `json:"id" yaml:"id"`
	OriginalID                  string         `json:"originalId" yaml:"original_id"`
	DisplayName                 string         `json:"displayName" yaml:"display_name"`
	OwnedBy                     string         `json:"ownedBy" yaml:"owned_by"`
	Pricing                     DisplayPricing `json:"pricing" yaml:"pricing"`
	Quantization                string         `json:"quantization,omitempty" yaml:"quantization,omitempty"`
	ContextLength               int            `json:"contextLength" yaml:"context_length"`
	Features                    []string       `json:"features" yaml:"features"`
	SupportsConfidentialCompute bool           `json:"supportsConfidentialCompute" yaml:"supports_confidential_compute"`
	InputModalities             []string       `json:"inputModalities" yaml:"input_modalities"`
	OutputModalities            []string       `json:"outputModalities" yaml:"output_modalities"`
}

// DisplayPricing holds USD rates per million tokens.
type DisplayPricing struct {
	PromptPer1M     float64 `json:"promptPer1M" yaml:"prompt_per_1m"`
	CompletionPer1M float64 `json:"completionPer1M" yaml:"completion_per_1m"`
}

// NewDisplayInfo projects m under the given display ID.
// The API already reports pricing per million tokens, so rates pass through.
func NewDisplayInfo(displayID string, m Model) DisplayInfo {
	features := m.SupportedFeatures
	if features == nil {
		features = []string{}
	}

	return DisplayInfo{
		ID:          displayID,
		OriginalID:  m.ID,
		DisplayName: m.ID,
		OwnedBy:     m.OwnedBy,
		Pricing: DisplayPricing{
			PromptPer1M:     m.Pricing.Prompt,
			CompletionPer1M: m.Pricing.Completion,
		},
		Quantization:                m.Quantization,
		ContextLength:               contextLength(m),
		Features:                    features,
		SupportsConfidentialCompute: m.ConfidentialCompute,
		InputModalities:             m.InputModalities,
		OutputModalities:            m.OutputModalities,
	}
}

// HasFeature reports whether d lists the given feature.
func (d DisplayInfo) HasFeature(feature string) bool {
	for _, f := range d.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// HasInputModality reports whether d accepts the given input modality.
func (d DisplayInfo) HasInputModality(modality string) bool {
	for _, m := range d.InputModalities {
		if m == modality {
			return true
		}
	}
	return false
}

// contextLength mirrors the API's truthiness: a zero bound counts as absent.
func contextLength(m Model) int {
	if m.MaxModelLen != nil && *m.MaxModelLen > 0 {
		return *m.MaxModelLen
	}
	if m.ContextLength != nil && *m.ContextLength > 0 {
		return *m.ContextLength
	}
	return DefaultContextLength
}
