package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
)

// ErrNoChoices is returned when a provider answers with an empty choice list.
var ErrNoChoices = errors.New("no response choices returned")

// completions is the chat endpoint shared by OpenAI-compatible providers.
type completions struct {
	client openai.Client
	model  string
	label  string
}

func (c *completions) chat(ctx context.Context, messages []Message) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			params[i] = openai.SystemMessage(msg.Content)
		case RoleAssistant:
			params[i] = openai.AssistantMessage(msg.Content)
		default:
			params[i] = openai.UserMessage(msg.Content)
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: params,
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", c.label, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *completions) chatJSON(ctx context.Context, messages []Message, result any) error {
	content, err := c.chat(ctx, messages)
	if err != nil {
		return err
	}
	return decodeJSON(content, result)
}
