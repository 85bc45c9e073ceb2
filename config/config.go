package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	Gemini struct {
		ApiKey         string  `yaml:"apiKey"`
		Model          string  `yaml:"model"`
		Temperature    float32 `yaml:"temperature"`
		MaxTokens      int32   `yaml:"maxTokens"`
		TimeoutSeconds int     `yaml:"timeoutSeconds"`
	} `yaml:"gemini"`

	Prompts struct {
		Path string `yaml:"path"`
	} `yaml:"prompts"`

	Cors struct {
		AllowOrigins []string `yaml:"allowOrigins"`
	} `yaml:"cors"`
}

// LoadConfig reads the configuration file, applies defaults and lets the
// environment override the secrets (GEMINI_API_KEY, MONGODB_URI).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.URI == "" {
		c.Database.URI = "mongodb://localhost:27017/ignatius"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.Temperature == 0 {
		c.Gemini.Temperature = 0.7
	}
	if c.Gemini.MaxTokens == 0 {
		c.Gemini.MaxTokens = 500
	}
	if c.Gemini.TimeoutSeconds == 0 {
		c.Gemini.TimeoutSeconds = 30
	}
	if c.Prompts.Path == "" {
		c.Prompts.Path = "./config/prompts.yml"
	}
	if len(c.Cors.AllowOrigins) == 0 {
		c.Cors.AllowOrigins = []string{"http://localhost:5173"}
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.ApiKey = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Database.URI = v
	}
}
