package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values used by ApplyDefaults and Default.
const (
	DefaultOllamaURL       = "http://localhost:11434"
	DefaultOpenAIURL       = "https://api.openai.com/v1"
	DefaultEmbeddingModel  = "nomic-embed-text:latest"
	DefaultCompletionModel = "llama3.2:3b"
	DefaultOpenAIEmbedding = "text-embedding-3-small"
	DefaultOpenAIChat      = "gpt-4o-mini"
	DefaultTopK            = 10
	DefaultTimeout         = 2 * time.Minute
)

// DefaultIgnore returns the patterns that skip hidden files and directories.
func DefaultIgnore() []string {
	return []string{"**/.*", "**/.*/**"}
}

// DefaultPath returns the config file location used when --config is not given.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "kioku", "config.yaml")
	}
	return "kioku.yaml"
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.Driver == DriverSQLite && cfg.Storage.DatabasePath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Storage.DatabasePath = filepath.Join(home, ".local", "share", "kioku", "notes.db")
		} else {
			cfg.Storage.DatabasePath = "notes.db"
		}
	}
	if cfg.Provider.Kind == "" {
		cfg.Provider.Kind = ProviderOllama
	}
	if cfg.Provider.BaseURL == "" {
		switch cfg.Provider.Kind {
		case ProviderOpenAI:
			cfg.Provider.BaseURL = DefaultOpenAIURL
		case ProviderOllama:
			cfg.Provider.BaseURL = DefaultOllamaURL
		}
	}
	if cfg.Provider.EmbeddingModel == "" {
		cfg.Provider.EmbeddingModel = DefaultEmbeddingModel
		if cfg.Provider.Kind == ProviderOpenAI {
			cfg.Provider.EmbeddingModel = DefaultOpenAIEmbedding
		}
	}
	if cfg.Provider.CompletionModel == "" {
		cfg.Provider.CompletionModel = DefaultCompletionModel
		if cfg.Provider.Kind == ProviderOpenAI {
			cfg.Provider.CompletionModel = DefaultOpenAIChat
		}
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = DefaultTimeout
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx"}
	}
	if cfg.Watch.Ignore == nil {
		cfg.Watch.Ignore = DefaultIgnore()
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
