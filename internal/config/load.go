package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name, e.g.
// NEWSMAKER_REDIS_URL for redis.url.
const EnvPrefix = "NEWSMAKER"

// secretKeys have no default but must still be readable from the environment.
var secretKeys = []string{
	"llm.gemini_api_key",
	"llm.openrouter_api_key",
	"notify.telegram_bot_token",
	"notify.telegram_api_url",
	"notify.web_app_url",
	"database.url",
	"weaviate.url",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.task_ttl", "1h")
	v.SetDefault("redis.channel", "task_updates")

	v.SetDefault("task.admission_ceiling", 3)
	v.SetDefault("task.worker_count", 4)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.compose_parallel", 4)

	v.SetDefault("retrieval.k", 3)
	v.SetDefault("retrieval.distance_threshold", 1.5)

	v.SetDefault("weaviate.class_name", "BrandCase")

	v.SetDefault("llm.default_provider", "gemini")
	v.SetDefault("llm.gemini_model", "gemini-2.0-flash")
	v.SetDefault("llm.openrouter_base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("enrich.image_base_url", "https://image.pollinations.ai/prompt/")

	v.SetDefault("fetch.timeout", "15s")
	v.SetDefault("fetch.min_text_length", 100)
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range secretKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags plus the rules that span several fields.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch cfg.LLM.DefaultProvider {
	case "gemini":
		if cfg.LLM.GeminiAPIKey == "" {
			return errors.New("config validation failed: llm.gemini_api_key is required for the gemini provider")
		}
	case "qwen", "deepseek":
		if cfg.LLM.OpenRouterAPIKey == "" {
			return errors.New("config validation failed: llm.openrouter_api_key is required for openrouter providers")
		}
	}
	return nil
}
