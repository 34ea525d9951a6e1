package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	aiutils "toolsmith_server/internal/ai/utils"
	"toolsmith_server/internal/utils"
)

var (
	ErrMissingCredential = errors.New("no AI provider credential configured")
	ErrEmptyResponse     = errors.New("AI provider returned an empty response")
)

// rawExcerptLen bounds how much model output is attached to parse errors and debug info.
const rawExcerptLen = 500

// UpstreamError is a failed round trip to the provider (network, non-2xx).
type UpstreamError struct {
	Stage  string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: openai chat completion failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ParseError means the provider answered but the content was not the JSON we needed.
type ParseError struct {
	Stage string
	Raw   string // truncated model output
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Debug describes one provider round trip; it is returned to clients alongside results.
type Debug struct {
	RequestID        string `json:"requestId"`
	Stage            string `json:"stage"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	DurationMS       int64  `json:"durationMs"`
	RawExcerpt       string `json:"rawExcerpt,omitempty"`
	Fallback         bool   `json:"fallback,omitempty"`
	Warning          string `json:"warning,omitempty"`
}

// Settings configures the provider client.
type Settings struct {
	APIKey          string
	Model           string
	BaseURL         string
	AzureEndpoint   string
	AzureAPIVersion string
	AzureDeployment string
}

type Generator struct {
	client *openai.Client
	model  string
}

// NewGenerator builds a generator for OpenAI, or Azure OpenAI when an Azure
// endpoint is given. Without an API key every call fails with ErrMissingCredential.
func NewGenerator(s Settings) *Generator {
	model := s.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	if s.APIKey == "" {
		return &Generator{model: model}
	}

	var config openai.ClientConfig
	if s.AzureEndpoint != "" {
		config = openai.DefaultAzureConfig(s.APIKey, s.AzureEndpoint)
		if s.AzureAPIVersion != "" {
			config.APIVersion = s.AzureAPIVersion
		}
		deployment := s.AzureDeployment
		if deployment == "" {
			deployment = model
		}
		config.AzureModelMapperFunc = func(string) string { return deployment }
	} else {
		config = openai.DefaultConfig(s.APIKey)
		if s.BaseURL != "" {
			config.BaseURL = s.BaseURL
		}
	}
	// No client-side deadline: a slow provider delays the caller, it does not fail it.
	return &Generator{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Configured reports whether a provider credential is available.
func (g *Generator) Configured() bool {
	return g != nil && g.client != nil
}

// Model returns the chat model name requests are sent with.
func (g *Generator) Model() string {
	return g.model
}

// completeJSON performs one chat completion constrained to a JSON object and
// returns the raw message content. It never retries.
func (g *Generator) completeJSON(ctx context.Context, stage, system, user string, temperature float32) (string, Debug, error) {
	debug := Debug{RequestID: uuid.NewString(), Stage: stage, Model: g.model}
	if !g.Configured() {
		return "", debug, ErrMissingCredential
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
	})
	debug.DurationMS = time.Since(start).Milliseconds()

	if err != nil {
		log.Printf("ERROR: %s request %s failed: %v", stage, debug.RequestID, err)
		return "", debug, &UpstreamError{Stage: stage, Status: utils.UpstreamStatus(err), Err: err}
	}

	debug.PromptTokens = resp.Usage.PromptTokens
	debug.CompletionTokens = resp.Usage.CompletionTokens

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Printf("OpenAI usage for empty %s response: %+v", stage, resp.Usage)
		return "", debug, ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	debug.RawExcerpt = utils.Truncate(content, rawExcerptLen)
	log.Printf("LLM raw output for %s %s: %s", stage, debug.RequestID, utils.Truncate(content, 200))
	return content, debug, nil
}

// objectOrParseError validates that content is a JSON object.
func objectOrParseError(stage, content string) (string, error) {
	obj, err := aiutils.ObjectJSON(content)
	if err != nil {
		return "", &ParseError{Stage: stage, Raw: utils.Truncate(content, rawExcerptLen), Err: err}
	}
	return obj, nil
}
