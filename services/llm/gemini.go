package llmsvc

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/chat"
)

const defaultModel = "gemini-2.5-flash"

type geminiService struct {
	client *genai.Client
	model  string
}

var _ chat.LLM = (*geminiService)(nil)

// NewGeminiService returns nil when no API key is configured: the chat then answers by rules.
func NewGeminiService(ctx context.Context, conf *core.Config) (chat.LLM, error) {
	if conf.GeminiApiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.GeminiApiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	model := conf.GeminiModel
	if model == "" {
		model = defaultModel
	}
	return &geminiService{client: client, model: model}, nil
}

func (svc *geminiService) Generate(ctx context.Context, system string, turns []chat.Turn) (string, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == "assistant" || t.Role == "model" {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: t.Content}}})
	}

	resp, err := svc.client.Models.GenerateContent(ctx, svc.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	})
	if err != nil {
		return "", errors.Wrap(err, "generating content")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
