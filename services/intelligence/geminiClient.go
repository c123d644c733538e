// File: services/intelligence/geminiClient.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrEmptyCompletion is returned when the model produced no text.
var ErrEmptyCompletion = errors.New("completion returned no text")

// CompletionClient is the text-completion collaborator used by the dialogue,
// classifier and specialty stages. Implementations do not retry.
type CompletionClient interface {
	Complete(ctx context.Context, prompt, systemInstructions string) (string, error)
}

type GeminiClient struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiClient{client: client, modelName: modelName, timeout: timeout}, nil
}

// Complete sends one prompt with the given system instructions. A model handle
// is built per call so instructions never leak between callers.
func (g *GeminiClient) Complete(ctx context.Context, prompt, systemInstructions string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.modelName)
	if systemInstructions != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstructions)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyCompletion
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyCompletion
	}
	return sb.String(), nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// UnavailableClient fails every call. It stands in when no API key is set so
// each stage takes its own fallback path.
type UnavailableClient struct{}

func (UnavailableClient) Complete(context.Context, string, string) (string, error) {
	return "", errors.New("completion service is not configured")
}
