package catalog

// Model is a single entry of the Chutes /models list response.
// Fields match the API schema; optional fields are pointers or nil slices.
type Model struct {
	ID                          string       `json:"id" yaml:"id"`
	Root                        string       `json:"root,omitempty" yaml:"root,omitempty"`
	Price                       *Price       `json:"price,omitempty" yaml:"price,omitempty"`
	Pricing                     Pricing      `json:"pricing" yaml:"pricing"`
	Object                      string       `json:"object,omitempty" yaml:"object,omitempty"`
	Parent                      *string      `json:"parent,omitempty" yaml:"parent,omitempty"`
	Created                     int64        `json:"created,omitempty" yaml:"created,omitempty"`
	ChuteID                     string       `json:"chute_id,omitempty" yaml:"chute_id,omitempty"`
	OwnedBy                     string       `json:"owned_by" yaml:"owned_by"`
	Quantization                string       `json:"quantization,omitempty" yaml:"quantization,omitempty"`
	MaxModelLen                 *int         `json:"max_model_len,omitempty" yaml:"max_model_len,omitempty"`
	ContextLength               *int         `json:"context_length,omitempty" yaml:"context_length,omitempty"`
	InputModalities             []string     `json:"input_modalities" yaml:"input_modalities"`
	MaxOutputLength             *int         `json:"max_output_length,omitempty" yaml:"max_output_length,omitempty"`
	OutputModalities            []string     `json:"output_modalities" yaml:"output_modalities"`
	SupportedFeatures           []string     `json:"supported_features,omitempty" yaml:"supported_features,omitempty"`
	ConfidentialCompute         bool         `json:"confidential_compute" yaml:"confidential_compute"`
	SupportedSamplingParameters []string     `json:"supported_sampling_parameters,omitempty" yaml:"supported_sampling_parameters,omitempty"`
	Permission                  []Permission `json:"permission,omitempty" yaml:"permission,omitempty"`
}

// Pricing holds per-million-token rates in USD.
type Pricing struct {
	Prompt     float64 `json:"prompt" yaml:"prompt"`
	Completion float64 `json:"completion" yaml:"completion"`
}

// Price is the dual-currency price block some chutes expose.
type Price struct {
	Input  Amount `json:"input" yaml:"input"`
	Output Amount `json:"output" yaml:"output"`
}

// Amount is a price in TAO and USD.
type Amount struct {
	TAO float64 `json:"tao" yaml:"tao"`
	USD float64 `json:"usd" yaml:"usd"`
}

// Permission mirrors the OpenAI-style model_permission object.
type Permission struct {
	ID                 string  `json:"id" yaml:"id"`
	Group              *string `json:"group,omitempty" yaml:"group,omitempty"`
	Object             string  `json:"object" yaml:"object"`
	Created            int64   `json:"created" yaml:"created"`
	AllowView          bool    `json:"allow_view" yaml:"allow_view"`
	IsBlocking         bool    `json:"is_blocking" yaml:"is_blocking"`
	Organization       string  `json:"organization" yaml:"organization"`
	AllowLogprobs      bool    `json:"allow_logprobs" yaml:"allow_logprobs"`
	AllowSampling      bool    `json:"allow_sampling" yaml:"allow_sampling"`
	AllowFineTuning    bool    `json:"allow_fine_tuning" yaml:"allow_fine_tuning"`
	AllowCreateEngine  bool    `json:"allow_create_engine" yaml:"allow_create_engine"`
	AllowSearchIndices bool    `json:"allow_search_indices" yaml:"allow_search_indices"`
}

// ModelsResponse is the body of GET /models.
type ModelsResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// HasFeature reports whether the model lists the given supported feature.
// A model without a feature list has no features.
func (m Model) HasFeature(feature string) bool {
	for _, f := range m.SupportedFeatures {
		if f == feature {
			return true
		}
	}
	return false
}
