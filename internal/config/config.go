// Package config loads and persists the YAML application
// configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI embedding
// provider.
type OpenAIEmbedderConfig struct {
	APIKeyEnv  string `yaml:"api_key_env"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// OllamaEmbedderConfig holds configuration for the Ollama embedding
// provider.
type OllamaEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedding provider plus
// the resilient-client tuning shared by all providers.
type EmbedderConfig struct {
	Type          string                `yaml:"type"`
	OpenAI        *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama        *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
	BatchSize     int                   `yaml:"batch_size"`
	BatchPauseMS  int                   `yaml:"batch_pause_ms"`
	MaxInputChars int                   `yaml:"max_input_chars"`
	TimeoutSecs   int                   `yaml:"timeout_secs"`
}

// ChunkerConfig configures how document text is split into word
// windows.
type ChunkerConfig struct {
	WordsPerChunk int `yaml:"words_per_chunk"`
	OverlapWords  int `yaml:"overlap_words"`
}

// IndexConfig configures snapshot persistence.
type IndexConfig struct {
	Dir string `yaml:"dir"`
}

// SearchConfig configures retrieval defaults.
type SearchConfig struct {
	MaxResults       int     `yaml:"max_results"`
	Threshold        float64 `yaml:"threshold"`
	ContextThreshold float64 `yaml:"context_threshold"`
	ContextChunks    int     `yaml:"context_chunks"`
}

// WatchConfig configures the import-pipeline file watcher.
type WatchConfig struct {
	Extensions []string `yaml:"extensions"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder EmbedderConfig `yaml:"embedder"`
	Chunker  ChunkerConfig  `yaml:"chunker"`
	Index    IndexConfig    `yaml:"index"`
	Search   SearchConfig   `yaml:"search"`
	Watch    WatchConfig    `yaml:"watch"`
}

// Load reads a config from a specified path. If the file does not
// exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig()
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then
// ~/.config/ragindex/config.yaml. If neither exists, it writes
// defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg, err := defaultConfig()
	if err != nil {
		return nil, "", err
	}
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as
// needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragindex", "config.yaml"), nil
}

func defaultIndexDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "ragindex", "indexes"), nil
}

func defaultConfig() (*AppConfig, error) {
	dir, err := defaultIndexDir()
	if err != nil {
		return nil, err
	}
	cfg := &AppConfig{
		Embedder: EmbedderConfig{Type: "ollama"},
		Index:    IndexConfig{Dir: dir},
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.WordsPerChunk == 0 {
		cfg.Chunker.WordsPerChunk = 200
	}
	if cfg.Chunker.OverlapWords == 0 {
		cfg.Chunker.OverlapWords = 40
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 5
	}
	if cfg.Embedder.BatchPauseMS == 0 {
		cfg.Embedder.BatchPauseMS = 200
	}
	if cfg.Embedder.MaxInputChars == 0 {
		cfg.Embedder.MaxInputChars = 8000
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI == nil {
		cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
	}
	if cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
	}
	if cfg.Embedder.Type == "ollama" && cfg.Embedder.Ollama == nil {
		cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
	}
	if cfg.Embedder.Ollama != nil {
		if cfg.Embedder.Ollama.BaseURL == "" {
			cfg.Embedder.Ollama.BaseURL = "http://localhost:11434"
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "nomic-embed-text"
		}
		if cfg.Embedder.Ollama.Dimensions == 0 {
			cfg.Embedder.Ollama.Dimensions = 768
		}
		if cfg.Embedder.Ollama.TimeoutSecs == 0 {
			cfg.Embedder.Ollama.TimeoutSecs = 30
		}
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}
	if cfg.Search.Threshold == 0 {
		cfg.Search.Threshold = 0.7
	}
	if cfg.Search.ContextThreshold == 0 {
		cfg.Search.ContextThreshold = 0.5
	}
	if cfg.Search.ContextChunks == 0 {
		cfg.Search.ContextChunks = 5
	}
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = []string{".txt", ".md"}
	}
}
