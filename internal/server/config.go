package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/llm"
)

// Config is the full server configuration, loaded from a YAML file.
// Every field has a workable default, so a missing file means a local
// server with no auth, no embeddings and no assistant.
type Config struct {
	// Listen is the HTTP bind address, e.g. ":8080".
	Listen string `yaml:"listen"`
	// AuthToken protects the API when set. Empty leaves the server open.
	AuthToken string `yaml:"auth_token"`
	// DataDir holds the graph and vector JSON files.
	DataDir string `yaml:"data_dir"`

	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	// LLM configures the assistant. The assistant is enabled exactly
	// when base_url is set.
	LLM llm.Config `yaml:"llm"`
}

// EmbeddingsConfig selects the embedding provider backing semantic
// similarity. Type "none" (the default) runs lexical-only matching.
type EmbeddingsConfig struct {
	Type      string `yaml:"type"` // "none", "ollama" or "openai"
	URL       string `yaml:"url"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	Timeout   string `yaml:"timeout"`   // Go duration string, e.g. "60s"
	Precision string `yaml:"precision"` // "float32" (default) or "float16"
}

// Enabled reports whether a real embedding provider is configured.
func (c EmbeddingsConfig) Enabled() bool {
	return c.Type != "" && c.Type != "none"
}

// TimeoutDuration parses the timeout field, zero when unset.
func (c EmbeddingsConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Listen:     ":8080",
		DataDir:    "./data",
		Embeddings: EmbeddingsConfig{Type: "none", Precision: "float32"},
	}
}

// LoadConfig reads and parses the YAML configuration at path. Environment
// references like ${OPENAI_API_KEY} are expanded before parsing, and
// decoding is strict (KnownFields) so a typo fails loudly instead of
// being ignored. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read configuration file '%s': %w", path, err)
	}
	expandedData := os.ExpandEnv(string(data))

	decoder := yaml.NewDecoder(strings.NewReader(expandedData))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("YAML syntax error in '%s': %w", path, err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in '%s': %w", path, err)
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Embeddings.Type {
	case "", "none", "ollama", "openai":
	default:
		return fmt.Errorf("embeddings.type %q is not one of none, ollama, openai", c.Embeddings.Type)
	}
	switch c.Embeddings.Precision {
	case "", "float32", "float16":
	default:
		return fmt.Errorf("embeddings.precision %q is not float32 or float16", c.Embeddings.Precision)
	}
	if c.Embeddings.Timeout != "" {
		if _, err := time.ParseDuration(c.Embeddings.Timeout); err != nil {
			return fmt.Errorf("embeddings.timeout: %w", err)
		}
	}
	if c.Embeddings.Enabled() && c.Embeddings.Model == "" {
		return fmt.Errorf("embeddings.model is required for type %q", c.Embeddings.Type)
	}
	if c.LLM.BaseURL != "" && c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required when llm.base_url is set")
	}
	return nil
}
