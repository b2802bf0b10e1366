// Package llm adapts the Gemini API into the model contract the responder
// consumes: a bounded context in, one reply string out, explicit failure on
// transport errors and on structurally invalid payloads.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/genai"

	"chatnet/history"
	"chatnet/models"
)

// ErrMalformedReply marks a payload the model returned that does not match
// the reply contract. Callers treat it exactly like a transport failure.
var ErrMalformedReply = errors.New("llm: malformed model reply")

// The model must answer with a JSON object holding a single non-empty
// "response" field.
var replySchema = jsonschema.MustCompileString("reply.schema.json", `{
	"type": "object",
	"required": ["response"],
	"properties": {
		"response": {"type": "string", "minLength": 1}
	}
}`)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("llm: GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Generate sends the trimmed context plus the new user turn to Gemini and
// returns the reply text extracted from the structured payload.
func (c *GeminiClient) Generate(ctx context.Context, systemPrompt string, turns []history.Turn, userMessage string) (string, error) {
	contents := make([]*genai.Content, 0, len(turns)+1)
	for _, turn := range turns {
		var role genai.Role = genai.RoleUser
		if turn.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(userMessage, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}

	return parseReply(resp.Text())
}

// parseReply validates the structured payload and extracts the reply text.
// Anything that does not match the schema is a malformed reply.
func parseReply(raw string) (string, error) {
	var payload interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if err := replySchema.Validate(payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	obj := payload.(map[string]interface{})
	return obj["response"].(string), nil
}
