package ai

import (
	"fmt"

	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LLMConfig selects the OpenAI compatible completion endpoint.
type LLMConfig struct {
	BaseURL string
	Token   string
	Model   string
}

// NewOpenAI creates the completion client shared by the tweet and reply generators.
func NewOpenAI(cfg LLMConfig, logger *logging.Logger) (llms.Model, error) {
	if logger == nil {
		logger = logging.Default()
	}

	logger.Info("setting up LLM client", "model", cfg.Model, "path", cfg.BaseURL)

	opts := []openai.Option{
		openai.WithToken(cfg.Token),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		logger.Error("failed to create OpenAI LLM", "error", err.Error())
		return nil, fmt.Errorf("failed to create OpenAI LLM: %w", err)
	}
	return llm, nil
}
