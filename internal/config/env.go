package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overrides cfg with KIOKU_* environment variables and re-applies defaults for
// fields the override left empty. Values that fail to parse are reported as an error.
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	prevKind := cfg.Provider.Kind
	str("KIOKU_PROVIDER", &cfg.Provider.Kind)
	if cfg.Provider.Kind != prevKind {
		resetDefaults(&cfg.Provider)
	}
	str("KIOKU_PROVIDER_URL", &cfg.Provider.BaseURL)
	str("OPENAI_API_KEY", &cfg.Provider.APIKey)
	str("KIOKU_API_KEY", &cfg.Provider.APIKey)
	str("KIOKU_EMBEDDING_MODEL", &cfg.Provider.EmbeddingModel)
	str("KIOKU_COMPLETION_MODEL", &cfg.Provider.CompletionModel)
	str("KIOKU_STORAGE_DRIVER", &cfg.Storage.Driver)
	str("KIOKU_DATABASE_PATH", &cfg.Storage.DatabasePath)
	str("KIOKU_DATABASE_URL", &cfg.Storage.DatabaseURL)
	str("KIOKU_HOST", &cfg.Server.Host)

	if v, ok := lookup("KIOKU_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid KIOKU_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookup("KIOKU_TOP_K"); ok && v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid KIOKU_TOP_K %q: %w", v, err)
		}
		cfg.Retrieval.TopK = k
	}
	if v, ok := lookup("KIOKU_PROVIDER_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid KIOKU_PROVIDER_TIMEOUT %q: %w", v, err)
		}
		cfg.Provider.Timeout = d
	}
	if v, ok := lookup("KIOKU_DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KIOKU_DEBUG %q: %w", v, err)
		}
		cfg.Debug = b
	}
	ApplyDefaults(cfg)
	return nil
}

// resetDefaults clears provider fields still holding another kind's defaults.
func resetDefaults(p *ProviderConfig) {
	switch p.BaseURL {
	case DefaultOllamaURL, DefaultOpenAIURL:
		p.BaseURL = ""
	}
	switch p.EmbeddingModel {
	case DefaultEmbeddingModel, DefaultOpenAIEmbedding:
		p.EmbeddingModel = ""
	}
	switch p.CompletionModel {
	case DefaultCompletionModel, DefaultOpenAIChat:
		p.CompletionModel = ""
	}
}
