// Package openai adapts an OpenAI-compatible chat completion API to the
// assistant's Model port.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"cropchain/internal/assistant/models"
)

var errNoChoices = errors.New("openai: completion returned no choices")

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	client      *goopenai.Client
	model       string
	maxTokens   int
	temperature float32
	tools       []goopenai.Tool
}

func New(cfg Config) *Client {
	conf := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		conf.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		client:      goopenai.NewClientWithConfig(conf),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		tools:       toTools(models.Tools()),
	}
}

func (c *Client) Complete(ctx context.Context, messages []models.Message, withTools bool) (models.Message, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toMessages(messages),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if withTools {
		req.Tools = c.tools
		req.ToolChoice = "auto"
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return models.Message{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Message{}, errNoChoices
	}
	return fromMessage(resp.Choices[0].Message), nil
}

func toTools(defs []models.ToolDefinition) []goopenai.Tool {
	tools := make([]goopenai.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        string(d.Name),
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return tools
}

func toMessages(in []models.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(in))
	for _, m := range in {
		msg := goopenai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, goopenai.ToolCall{
				ID:   tc.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func fromMessage(m goopenai.ChatCompletionMessage) models.Message {
	msg := models.Message{
		Role:    models.Role(m.Role),
		Content: m.Content,
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return msg
}
