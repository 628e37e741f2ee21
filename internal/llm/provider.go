package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prodentai/companion/internal/config"
	"github.com/prodentai/companion/internal/logging"
)

const defaultGeminiModel = "gemini-1.5-flash"

// NewFromConfig builds the gateway for the configured provider. Missing
// credentials are not an error: the gateway then serves fallbacks only.
func NewFromConfig(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Gateway, error) {
	catalog, err := LoadCatalog()
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.AITimeoutSeconds) * time.Second
	models := Models{Base: cfg.AIModel, Structured: cfg.AIStructuredModel, Chat: cfg.AIChatModel}

	if !cfg.LLMConfigured() {
		log.Warn("LLM provider not configured, AI features will use static fallbacks", "provider", cfg.LLMProvider)
		return NewGateway(nil, catalog, models, timeout, log), nil
	}

	var completer Completer
	switch cfg.LLMProvider {
	case "gemini":
		client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		completer = client
		models = geminiModels(models)
	case "openai", "":
		completer = NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, timeout)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	log.Info("LLM gateway initialized", "provider", completer.Name(), "model", models.Base, "prompts", catalog.Names())
	return NewGateway(completer, catalog, models, timeout, log), nil
}

// geminiModels replaces OpenAI model names left at their defaults.
func geminiModels(m Models) Models {
	fix := func(name string) string {
		if strings.HasPrefix(strings.ToLower(name), "gemini") {
			return name
		}
		return defaultGeminiModel
	}
	return Models{Base: fix(m.Base), Structured: fix(m.Structured), Chat: fix(m.Chat)}
}
