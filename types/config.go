package types

// ModelConfig is the model configuration bag passed through to the
// generation backend. The engine never interprets these values; recognized
// options are enumerated as struct fields and anything else travels in
// Extra verbatim.
type ModelConfig struct {
	// Model is the backend model identifier, e.g. "llama3.2:latest".
	Model string `json:"model" yaml:"model"`
	// Temperature is the sampling temperature.
	Temperature float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	// TopP is the nucleus-sampling threshold.
	TopP float32 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	// FrequencyPenalty penalizes repeated tokens by frequency.
	FrequencyPenalty float32 `json:"frequency_penalty,omitempty" yaml:"frequency_penalty,omitempty"`
	// PresencePenalty penalizes tokens that already appeared.
	PresencePenalty float32 `json:"presence_penalty,omitempty" yaml:"presence_penalty,omitempty"`
	// Extra holds unrecognized options, passed through opaquely.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Options flattens the configuration into the option map sent to the
// backend. Recognized fields are emitted under their wire names; Extra keys
// are copied as-is and never override the recognized fields.
func (c ModelConfig) Options() map[string]any {
	opts := make(map[string]any, len(c.Extra)+4)
	for k, v := range c.Extra {
		opts[k] = v
	}
	opts["temperature"] = c.Temperature
	opts["top_p"] = c.TopP
	opts["frequency_penalty"] = c.FrequencyPenalty
	opts["presence_penalty"] = c.PresencePenalty
	return opts
}
