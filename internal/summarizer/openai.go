package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"podcast-digest-go/internal/logger"
)

const maxRetries = 3

type openAISummarizer struct {
	cli       *openai.Client
	model     string
	maxTokens int
	log       *logger.Logger

	// retryBase is the first backoff interval; tests shrink it.
	retryBase time.Duration
}

// NewOpenAI talks to any OpenAI-compatible chat completion API. baseURL may
// be empty for api.openai.com.
func NewOpenAI(apiKey, baseURL, model string, maxTokens int, log *logger.Logger) Summarizer {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &openAISummarizer{
		cli:       openai.NewClientWithConfig(clientConfig),
		model:     model,
		maxTokens: maxTokens,
		log:       log.Component("summarizer").With("provider", "openai"),
		retryBase: 500 * time.Millisecond,
	}
}

func (s *openAISummarizer) Summarize(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return "", ErrEmptyTranscript
	}

	chatReq := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: UserPrompt(req)},
		},
		MaxTokens: s.maxTokens,
	}

	s.log.WithField("model", s.model).WithField("chars", len(req.Transcript)).Info("sending transcript for summarization")

	var resp openai.ChatCompletionResponse
	operation := func() error {
		var err error
		resp, err = s.cli.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			return nil
		}
		// only server-side failures are worth another try
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.retryBase
	b := backoff.WithContext(backoff.WithMaxRetries(eb, maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		s.log.WithError(err).WithField("next_in", wait).Warn("chat completion failed, retrying")
	}
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
