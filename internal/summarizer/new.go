package summarizer

import (
	"fmt"

	"podcast-digest-go/internal/config"
	"podcast-digest-go/internal/logger"
)

// New picks the backend named by cfg.Provider.
func New(cfg config.SummarizerConfig, log *logger.Logger) (Summarizer, error) {
	switch cfg.Provider {
	case "openai", "":
		if cfg.Model == "" {
			return nil, fmt.Errorf("summarizer.model (LLM_MODEL) is required")
		}
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens, log), nil
	case "gemini":
		return NewGemini(cfg.APIKey, cfg.Model, cfg.MaxTokens, log), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
	}
}
