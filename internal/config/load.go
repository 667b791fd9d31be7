package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "MOCKVIEW"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Optional config.yaml in the working directory
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
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.poll_interval", "1s")
	v.SetDefault("server.embedded_workers", false)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.dial_timeout", "5s")

	v.SetDefault("orchestration.cache_ttl", "24h")
	v.SetDefault("orchestration.lock_ttl", "300s")
	v.SetDefault("orchestration.progress_ttl", "1h")
	v.SetDefault("orchestration.enqueue_attempts", 5)
	v.SetDefault("orchestration.enqueue_backoff", "200ms")
	v.SetDefault("orchestration.worker_retry_attempts", 0)
	v.SetDefault("orchestration.workers_per_lane", 2)
	v.SetDefault("orchestration.dequeue_timeout", "5s")
	v.SetDefault("orchestration.queue_backend", "redis")
	v.SetDefault("orchestration.queue_size", 100)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.requests_per_second", 2.0)
	v.SetDefault("llm.validation_attempts", 3)

	v.SetDefault("speech.tts_model", "tts-1")
	v.SetDefault("speech.voice", "onyx")
	v.SetDefault("speech.transcription_model", "whisper-1")
	v.SetDefault("speech.timeout", "120s")
	v.SetDefault("speech.max_retries", 2)

	v.SetDefault("scoring.transcript_wait", "60s")
	v.SetDefault("scoring.transcript_poll", "1s")

	v.SetDefault("storage.upload_dir", filepath.Join(os.TempDir(), "mockview"))
}

// bindEnvs registers keys without defaults so AutomaticEnv picks them up
// during Unmarshal.
func bindEnvs(v *viper.Viper) {
	for _, key := range []string{
		"database.url",
		"llm.gemini_api_key",
		"speech.openai_api_key",
		"speech.base_url",
	} {
		_ = v.BindEnv(key)
	}
}
