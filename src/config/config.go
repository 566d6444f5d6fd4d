package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	agent "github.com/agentrelay/go-agent"
)

// Config is the on-disk agent configuration. Everything has a working
// default so a missing file still yields a usable demo agent.
type Config struct {
	Agent  AgentConfig  `toml:"agent"`
	Model  ModelConfig  `toml:"model"`
	Memory MemoryConfig `toml:"memory"`
}

type AgentConfig struct {
	Name            string            `toml:"name"`
	Description     string            `toml:"description"`
	PromptTemplates map[string]string `toml:"prompt_templates"`
	Configuration   map[string]any    `toml:"configuration"`
	Tools           []string          `toml:"tools"`
	MaxToolCalls    int               `toml:"max_tool_calls"`
}

type ModelConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`

	// Response cache; zero size disables it.
	CacheSize int    `toml:"cache_size"`
	CacheTTL  string `toml:"cache_ttl"`
	CachePath string `toml:"cache_path"`
}

type MemoryConfig struct {
	// Store backend: memory, sqlite, postgres, mongodb or neo4j.
	Store string `toml:"store"`
	DSN   string `toml:"dsn"`
	// Path is used by the sqlite backend.
	Path string `toml:"path"`
	// ShortTermWindow caps per-session short-term entries.
	ShortTermWindow int `toml:"short_term_window"`
}

// Load reads the config at path, or the default location when path is
// empty. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Agent: AgentConfig{
			Name:        "assistant",
			Description: "A general purpose assistant.",
			Tools:       []string{"echo", "calculator", "clock"},
		},
		Model: ModelConfig{
			Provider: "dummy",
		},
		Memory: MemoryConfig{
			Store:           "memory",
			ShortTermWindow: 8,
		},
	}

	if path == "" {
		path = defaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return cfg, nil
}

// Definition converts the agent section into an agent.Definition.
func (c *Config) Definition() agent.Definition {
	return agent.Definition{
		Name:            c.Agent.Name,
		Description:     c.Agent.Description,
		PromptTemplates: c.Agent.PromptTemplates,
		Configuration:   c.Agent.Configuration,
		Tools:           c.Agent.Tools,
	}
}

func defaultPath() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "agentrelay", "config.toml")
}
