package generator

import "context"

// LLMClient abstracts a text-generation service so providers can be swapped
// or mocked. Transport failures surface as errors; an empty completion is a
// valid result and the pipeline decides what to do with it.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is one request to a generation service.
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

// LLMSettings configures a concrete LLMClient implementation.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
