// Package anthropic implements the language-model transport over the
// Anthropic Messages API. Structured requests are served through a forced
// tool call so the model must answer with schema-conforming JSON.
package anthropic

import (
	"context"
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/mnemoai/mnemo-go-sdk/core"
)

// structuredToolName is the tool the model is forced to call when the
// request carries a schema. Its input is the structured result.
const structuredToolName = "emit_result"

// Config holds completer settings.
type Config struct {
	// Model is the Claude model to use.
	Model string

	// MaxTokens is the default response cap when the request does not set one.
	MaxTokens int64
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	Model:     "claude-sonnet-4-20250514",
	MaxTokens: 2048,
}

// Completer calls Claude and implements core.Completer.
type Completer struct {
	client *anthropic.Client
	cfg    Config
}

// New creates a completer over an Anthropic client. A nil cfg field falls
// back to DefaultConfig.
func New(client *anthropic.Client, cfg Config) *Completer {
	if cfg.Model == "" {
		cfg.Model = DefaultConfig.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig.MaxTokens
	}
	return &Completer{client: client, cfg: cfg}
}

// Complete sends one prompt to Claude. With a schema set it returns the
// JSON document the model produced for the forced tool call; without one it
// returns the concatenated text blocks.
func (c *Completer) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	structured := req.Schema != nil
	if structured {
		tool := anthropic.ToolParam{
			Name:        structuredToolName,
			Description: anthropic.String("Record the result of the analysis."),
			InputSchema: inputSchema(req.Schema),
		}
		params.Tools = []anthropic.ToolUnionParam{{OfTool: &tool}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: structuredToolName},
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return "", core.WrapError(core.CodeTimeout, "claude API call", ctx.Err())
		}
		return "", fmt.Errorf("claude API error: %w", err)
	}
	log.Printf("[LLM] %s responded with %d blocks (in=%d out=%d tokens)",
		c.cfg.Model, len(resp.Content), resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var textResponse string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textResponse += block.Text
		case "tool_use":
			if structured && block.Name == structuredToolName {
				return string(block.Input), nil
			}
		}
	}

	if structured {
		return "", core.NewError(core.CodeValidationFailed, "model returned no structured output")
	}
	return textResponse, nil
}

// inputSchema converts a JSON Schema object into the tool input form the
// Messages API expects.
func inputSchema(schema map[string]interface{}) anthropic.ToolInputSchemaParam {
	out := anthropic.ToolInputSchemaParam{
		Properties: schema["properties"],
	}
	if required, ok := schema["required"].([]string); ok {
		out.Required = required
	}
	return out
}
