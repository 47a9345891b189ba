package llm

// DefaultTemperature keeps extraction output close to deterministic.
const DefaultTemperature float32 = 0.1

// GenerateOptions holds per-call sampling settings.
type GenerateOptions struct {
	Temperature       float32
	MaxOutputTokens   int32
	SystemInstruction string
}

// Option adjusts GenerateOptions for a single call.
type Option func(*GenerateOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(o *GenerateOptions) { o.Temperature = t }
}

// WithMaxOutputTokens caps the response length. Zero leaves the provider default.
func WithMaxOutputTokens(n int32) Option {
	return func(o *GenerateOptions) { o.MaxOutputTokens = n }
}

// WithSystemInstruction sends s as the system message of the call.
func WithSystemInstruction(s string) Option {
	return func(o *GenerateOptions) { o.SystemInstruction = s }
}

func applyOptions(opts []Option) GenerateOptions {
	o := GenerateOptions{Temperature: DefaultTemperature}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
