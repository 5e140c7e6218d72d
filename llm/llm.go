// Package llm implements NPC reply generation against the Gemini API.
// It satisfies the dialogue.Responder interface; everything engine-side
// is oblivious to which model (if any) is behind it.
package llm

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/nathoo/fablecore/engine/dialogue"
)

//go:embed prompts/npc_reply.txt
var npcReplyPrompt string

// DefaultModel is used when the configuration names none.
const DefaultModel = "gemini-2.5-flash"

// memoryWindow bounds how much NPC history goes into the prompt.
const memoryWindow = 20

// Client generates NPC replies through a Gemini model.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	tmpl   *template.Template
}

// NewClient connects to the Gemini API. An empty model name selects
// DefaultModel.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: no API key configured")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("llm: creating client: %w", err)
	}

	tmpl, err := template.New("npc_reply").Parse(npcReplyPrompt)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("llm: parsing prompt template: %w", err)
	}

	return &Client{
		client: client,
		model:  client.GenerativeModel(model),
		tmpl:   tmpl,
	}, nil
}

// promptData feeds the embedded reply template.
type promptData struct {
	Personality string
	Memory      []string
	Utterance   string
}

// GenerateReply implements dialogue.Responder. Failures are wrapped in
// dialogue.ErrUnavailable so the router can degrade to a canned line.
func (c *Client) GenerateReply(ctx context.Context, profile string, memory []string, utterance string) (string, error) {
	if len(memory) > memoryWindow {
		memory = memory[len(memory)-memoryWindow:]
	}

	var buf bytes.Buffer
	err := c.tmpl.Execute(&buf, promptData{
		Personality: profile,
		Memory:      memory,
		Utterance:   utterance,
	})
	if err != nil {
		return "", fmt.Errorf("%w: building prompt: %v", dialogue.ErrUnavailable, err)
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(buf.String()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", dialogue.ErrUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", dialogue.ErrUnavailable)
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("%w: unexpected response part", dialogue.ErrUnavailable)
	}
	return strings.TrimSpace(string(text)), nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.client.Close()
}
