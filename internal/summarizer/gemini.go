package summarizer

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
	"podcast-digest-go/internal/logger"
)

type geminiSummarizer struct {
	apiKey    string
	model     string
	maxTokens int
	log       *logger.Logger
}

func NewGemini(apiKey, model string, maxTokens int, log *logger.Logger) Summarizer {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &geminiSummarizer{
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		log:       log.Component("summarizer").With("provider", "gemini"),
	}
}

func (s *geminiSummarizer) Summarize(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return "", ErrEmptyTranscript
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	s.log.WithField("model", s.model).WithField("chars", len(req.Transcript)).Info("sending transcript for summarization")
	result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(UserPrompt(req)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		MaxOutputTokens:   int32(s.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", nil
	}
	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	return text, nil
}
