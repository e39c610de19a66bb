package ai

import "github.com/tmc/langchaingo/llms"

// GenerateOptions are the decoding parameters for one generation call.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// CallOptions converts the options for langchaingo backed generators.
// Zero values are left to the model's defaults.
func (o GenerateOptions) CallOptions() []llms.CallOption {
	var opts []llms.CallOption
	if o.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(o.MaxTokens))
	}
	if o.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(o.Temperature))
	}
	if o.TopP > 0 {
		opts = append(opts, llms.WithTopP(o.TopP))
	}
	return opts
}
