package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"     validate:"required"`
	Task      TaskConfig      `mapstructure:"task"      validate:"required"`
	Retrieval RetrievalConfig `mapstructure:"retrieval" validate:"required"`
	Weaviate  WeaviateConfig  `mapstructure:"weaviate"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	Enrich    EnrichConfig    `mapstructure:"enrich"    validate:"required"`
	Fetch     FetchConfig     `mapstructure:"fetch"     validate:"required"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// RedisConfig configures the shared coordination store backing the task
// registry and the event channel.
type RedisConfig struct {
	URL     string        `mapstructure:"url"      validate:"required"`
	TaskTTL time.Duration `mapstructure:"task_ttl" validate:"required,gt=0"`
	Channel string        `mapstructure:"channel"  validate:"required"`
}

// TaskConfig contains admission control and worker pool settings.
// The admission ceiling and the worker count are tuned independently.
type TaskConfig struct {
	AdmissionCeiling int `mapstructure:"admission_ceiling" validate:"required,gt=0"`
	WorkerCount      int `mapstructure:"worker_count"      validate:"required,gt=0"`
	QueueSize        int `mapstructure:"queue_size"        validate:"required,gt=0"`
	ComposeParallel  int `mapstructure:"compose_parallel"  validate:"required,gt=0"`
}

// RetrievalConfig contains the similarity search defaults.
type RetrievalConfig struct {
	K                 int     `mapstructure:"k"                  validate:"required,gt=0"`
	DistanceThreshold float64 `mapstructure:"distance_threshold" validate:"required,gt=0"`
}

// WeaviateConfig configures the vector corpus. An empty URL selects the
// in-memory corpus.
type WeaviateConfig struct {
	URL       string `mapstructure:"url"`
	ClassName string `mapstructure:"class_name" validate:"required"`
}

// LLMConfig contains all reasoning provider settings.
type LLMConfig struct {
	DefaultProvider   string  `mapstructure:"default_provider"    validate:"required,oneof=gemini qwen deepseek"`
	GeminiAPIKey      string  `mapstructure:"gemini_api_key"`
	GeminiModel       string  `mapstructure:"gemini_model"        validate:"required"`
	OpenRouterAPIKey  string  `mapstructure:"openrouter_api_key"`
	OpenRouterBaseURL string  `mapstructure:"openrouter_base_url" validate:"required,url"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"gte=0"`
	Temperature       float32 `mapstructure:"temperature"         validate:"gte=0,lte=2"`
}

// EnrichConfig configures visual prompt resolution.
type EnrichConfig struct {
	ImageBaseURL string `mapstructure:"image_base_url" validate:"required,url"`
}

// FetchConfig configures the reference fetcher used when a request carries a
// URL instead of (or in addition to) text.
type FetchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"         validate:"required,gt=0"`
	MinTextLength int           `mapstructure:"min_text_length" validate:"gte=0"`
}

// NotifyConfig configures delivery sinks. Without a bot token notifications
// are written to the log only.
type NotifyConfig struct {
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	TelegramAPIURL   string `mapstructure:"telegram_api_url" validate:"omitempty,url"`
	WebAppURL        string `mapstructure:"web_app_url"      validate:"omitempty,url"`
}

// DatabaseConfig configures the optional tenant destination directory.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}
