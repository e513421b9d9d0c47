package generator

import (
	"context"
	"errors"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// defaultLLMTimeout bounds a single completion call so a stalled service
// degrades into a retry instead of blocking the scheduling loop for good.
const defaultLLMTimeout = 60 * time.Second

// OpenAILLM implements LLMClient using the official openai-go SDK (chat
// completions). Any OpenAI-compatible endpoint works through BaseURL, which
// is how the Gemini writer model is reached.
type OpenAILLM struct {
	Model   string
	Opts    []option.RequestOption
	Timeout time.Duration
}

// NewOpenAILLMFromConfig builds a client from settings. Providers other than
// "openai" must supply a base_url pointing at an OpenAI-compatible endpoint.
func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key missing")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	if cfg.Provider != "" && cfg.Provider != "openai" && cfg.BaseURL == "" {
		return nil, errors.New("llm provider " + cfg.Provider + " requires base_url (OpenAI-compatible endpoint)")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAILLM{Model: cfg.Model, Opts: opts, Timeout: defaultLLMTimeout}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	client := openai.NewClient(o.Opts...)

	msgs := []openai.ChatCompletionMessageParamUnion{}
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	}
	if prompt.Temperature > 0 {
		params.Temperature = openai.Float(prompt.Temperature)
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
