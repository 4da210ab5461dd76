package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Mapstructure tags are used to map environment variables and config file keys.
type Config struct {
	// Server Configuration
	ServerAddress string `mapstructure:"SERVER_ADDRESS"` // e.g., ":8080"

	// AI Configuration
	OpenAIKey     string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"` // optional, for OpenAI-compatible gateways
	OpenAIModel   string `mapstructure:"OPENAI_MODEL"`    // e.g., "gpt-4o"

	// Streaming completion endpoint. When set, stages use it instead of OpenAI.
	CompletionEndpoint string `mapstructure:"COMPLETION_ENDPOINT"`
	CompletionAPIKey   string `mapstructure:"COMPLETION_API_KEY"`

	// Generation
	PolicyFile     string `mapstructure:"POLICY_FILE"`     // TOML override of the default policy
	UnitDelayMS    int    `mapstructure:"UNIT_DELAY_MS"`   // delay between consecutive completion requests
	UseLLMPlanner  bool   `mapstructure:"USE_LLM_PLANNER"` // draft the plan with the model before the heuristics
	RequestTimeout int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`

	// Hand-off
	WorkspaceDir   string `mapstructure:"WORKSPACE_DIR"`   // projects are written under WORKSPACE_DIR/<id>
	RuntimeCommand string `mapstructure:"RUNTIME_COMMAND"` // invoked with the project directory as its last argument
	AutoHandoff    bool   `mapstructure:"AUTO_HANDOFF"`

	// Cache
	ProjectCacheSize int `mapstructure:"PROJECT_CACHE_SIZE"`
}

// UnitDelay is the configured inter-request delay.
func (c Config) UnitDelay() time.Duration {
	return time.Duration(c.UnitDelayMS) * time.Millisecond
}

// Timeout is the per-request timeout for the completion clients.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")
	v.SetDefault("UNIT_DELAY_MS", 1500)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 300)
	v.SetDefault("WORKSPACE_DIR", "tmp")
	v.SetDefault("PROJECT_CACHE_SIZE", 64)
	v.SetDefault("USE_LLM_PLANNER", false)
	v.SetDefault("AUTO_HANDOFF", false)
	// Registered so AutomaticEnv picks them up during Unmarshal.
	for _, key := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "COMPLETION_ENDPOINT", "COMPLETION_API_KEY", "POLICY_FILE", "RUNTIME_COMMAND"} {
		v.SetDefault(key, "")
	}
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)     // Path to look for the config file in
	v.SetConfigName("config") // Name of config file (without extension)
	v.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name
	setDefaults(v)

	v.AutomaticEnv() // Read environment variables that match keys

	// Attempt to read the config file
	err = v.ReadInConfig()
	if err != nil {
		// If config file not found, log it but continue if env vars might be set
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file ('config.yaml') not found in specified path, relying solely on environment variables.")
		} else {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Printf("Using configuration file: %s", v.ConfigFileUsed())
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.OpenAIKey == "" && config.CompletionEndpoint == "" {
		log.Println("WARN: neither OPENAI_API_KEY nor COMPLETION_ENDPOINT is set; generation requests will fail.")
	}
	if config.UnitDelayMS < 0 {
		return Config{}, fmt.Errorf("UNIT_DELAY_MS must not be negative, got %d", config.UnitDelayMS)
	}
	if config.ProjectCacheSize <= 0 {
		return Config{}, fmt.Errorf("PROJECT_CACHE_SIZE must be positive, got %d", config.ProjectCacheSize)
	}

	return
}
