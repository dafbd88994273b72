package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiClient implements Client on Google's Gemini API. The key is read
// from GEMINI_API_KEY.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(model string) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Chat sends messages to Gemini and returns the answer.
func (c *GeminiClient) Chat(ctx context.Context, messages []Message) (string, error) {
	return c.send(ctx, messages, "")
}

// ChatJSON asks for a JSON answer and decodes it into result.
func (c *GeminiClient) ChatJSON(ctx context.Context, messages []Message, result any) error {
	content, err := c.send(ctx, messages, "application/json")
	if err != nil {
		return err
	}
	return decodeJSON(content, result)
}

func (c *GeminiClient) send(ctx context.Context, messages []Message, mimeType string) (string, error) {
	turns, err := geminiTurns(messages)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(c.model)
	model.SystemInstruction = turns.system
	if mimeType != "" {
		model.ResponseMIMEType = mimeType
	}

	cs := model.StartChat()
	cs.History = turns.history
	resp, err := cs.SendMessage(ctx, turns.last...)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", errors.New("gemini returned an empty answer")
	}
	return text, nil
}

// geminiChat is a conversation split the way the Gemini chat API wants
// it: system text aside, prior turns as history, the final user turn sent.
type geminiChat struct {
	system  *genai.Content
	history []*genai.Content
	last    []genai.Part
}

func geminiTurns(messages []Message) (geminiChat, error) {
	var (
		chat   geminiChat
		system []string
		turns  []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return chat, errors.New("conversation must end with a user message")
	}

	if len(system) > 0 {
		chat.system = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}
	chat.history = turns[:len(turns)-1]
	chat.last = turns[len(turns)-1].Parts
	return chat, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
