package generator

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const systemInstruction = "You are an experienced IELTS examiner who writes exam-accurate practice material. " +
	"You always answer with a single valid JSON document."

// GeminiModel generates text with Google's Gemini API in JSON mode.
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

func (m *GeminiModel) Generate(ctx context.Context, prompt string, attachments ...Attachment) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, a := range attachments {
		parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0.7),
		},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Name returns the model identifier.
func (m *GeminiModel) Name() string {
	return fmt.Sprintf("genai:%s", m.model)
}
