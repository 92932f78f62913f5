package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Generator turns one prompt into model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator calls the Gemini API through google.golang.org/genai.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator 创建 Gemini 客户端；apiKey 为空时由 SDK 读取 GEMINI_API_KEY / GOOGLE_API_KEY。
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate sends prompt as a single user turn and returns the concatenated text parts.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("model returned no text")
	}
	return text, nil
}
