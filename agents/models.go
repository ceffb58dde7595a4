package agents

import (
	"strings"

	"github.com/dshills/tradingagents-go/agents/model"
	"github.com/dshills/tradingagents-go/agents/model/anthropic"
	"github.com/dshills/tradingagents-go/agents/model/google"
	"github.com/dshills/tradingagents-go/agents/model/openai"
)

// ProviderConfig selects the LLM provider and the quick/deep model
// pair.
//
// QuickModel handles the high-volume stages (analysts, researchers,
// risk debaters); DeepModel handles the judgment stages (judges,
// trader).
type ProviderConfig struct {
	// Provider is one of "openai", "anthropic", "google".
	// OpenAI-compatible providers are selected with "openai" plus a
	// custom BaseURL.
	Provider string

	// APIKey authenticates with the provider.
	APIKey string

	// BaseURL overrides the provider endpoint (OpenAI-compatible
	// providers only). Empty uses the provider default.
	BaseURL string

	// QuickModel and DeepModel name the two models.
	QuickModel string
	DeepModel  string

	// Settings apply to both models.
	Settings model.Settings
}

// ModelsFromConfig builds the quick and deep chat models for cfg.
//
// Unknown providers fail with *ConfigError.
func ModelsFromConfig(cfg ProviderConfig) (quick, deep model.ChatModel, err error) {
	if cfg.QuickModel == "" || cfg.DeepModel == "" {
		return nil, nil, &ConfigError{
			Field:  "ProviderConfig",
			Reason: "quick and deep model names are required",
		}
	}

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		quick = openai.New(cfg.APIKey, cfg.QuickModel, cfg.BaseURL, cfg.Settings)
		deep = openai.New(cfg.APIKey, cfg.DeepModel, cfg.BaseURL, cfg.Settings)
	case "anthropic":
		quick = anthropic.New(cfg.APIKey, cfg.QuickModel, cfg.Settings)
		deep = anthropic.New(cfg.APIKey, cfg.DeepModel, cfg.Settings)
	case "google":
		quick = google.New(cfg.APIKey, cfg.QuickModel, cfg.Settings)
		deep = google.New(cfg.APIKey, cfg.DeepModel, cfg.Settings)
	default:
		return nil, nil, &ConfigError{
			Field:  "ProviderConfig.Provider",
			Reason: "unsupported provider " + cfg.Provider,
		}
	}
	return quick, deep, nil
}
