package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server        ServerConfig        `mapstructure:"server" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database" validate:"required"`
	Redis         RedisConfig         `mapstructure:"redis" validate:"required"`
	Orchestration OrchestrationConfig `mapstructure:"orchestration" validate:"required"`
	LLM           LLMConfig           `mapstructure:"llm" validate:"required"`
	Speech        SpeechConfig        `mapstructure:"speech" validate:"required"`
	Scoring       ScoringConfig       `mapstructure:"scoring" validate:"required"`
	Storage       StorageConfig       `mapstructure:"storage" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// RequestTimeout bounds how long a subscriber waits for an artifact
	// before it receives a terminal error event.
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"required,gt=0"`

	// PollInterval is the Notification Bridge polling interval.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required,gt=0"`

	// EmbeddedWorkers runs the lane runner inside the HTTP process.
	EmbeddedWorkers bool `mapstructure:"embedded_workers"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig configures the shared key-value store backing the cache,
// lock manager, progress tracker and job lanes.
type RedisConfig struct {
	URL         string        `mapstructure:"url" validate:"required,url"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" validate:"gt=0"`
}

// OrchestrationConfig holds the TTLs and retry knobs of the job subsystem.
type OrchestrationConfig struct {
	CacheTTL        time.Duration `mapstructure:"cache_ttl" validate:"required,gt=0"`
	LockTTL         time.Duration `mapstructure:"lock_ttl" validate:"required,gt=0"`
	ProgressTTL     time.Duration `mapstructure:"progress_ttl" validate:"required,gt=0"`
	EnqueueAttempts uint          `mapstructure:"enqueue_attempts" validate:"required,gt=0"`
	EnqueueBackoff  time.Duration `mapstructure:"enqueue_backoff" validate:"gt=0"`

	// WorkerRetryAttempts is the number of extra producer attempts a worker
	// makes after a failure. Zero disables worker-level retry.
	WorkerRetryAttempts int           `mapstructure:"worker_retry_attempts" validate:"gte=0,lte=10"`
	WorkersPerLane      int           `mapstructure:"workers_per_lane" validate:"required,gt=0"`
	DequeueTimeout      time.Duration `mapstructure:"dequeue_timeout" validate:"required,gt=0"`

	// QueueBackend selects where job lanes live. "memory" keeps them in
	// process and only works with embedded workers.
	QueueBackend string `mapstructure:"queue_backend" validate:"required,oneof=redis memory"`
	QueueSize    int    `mapstructure:"queue_size" validate:"gte=0"`
}

// LLMConfig contains all chat completion related settings.
type LLMConfig struct {
	GeminiAPIKey       string  `mapstructure:"gemini_api_key" validate:"required"`
	ModelName          string  `mapstructure:"model_name" validate:"required"`
	Temperature        float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	RequestsPerSecond  float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	ValidationAttempts int     `mapstructure:"validation_attempts" validate:"required,gt=0,lte=10"`
}

// SpeechConfig contains speech synthesis and transcription settings.
type SpeechConfig struct {
	OpenAIAPIKey       string        `mapstructure:"openai_api_key" validate:"required"`
	TTSModel           string        `mapstructure:"tts_model" validate:"required"`
	Voice              string        `mapstructure:"voice" validate:"required"`
	TranscriptionModel string        `mapstructure:"transcription_model" validate:"required"`
	Timeout            time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries         int           `mapstructure:"max_retries" validate:"gte=0"`
	BaseURL            string        `mapstructure:"base_url" validate:"omitempty,url"`
}

// ScoringConfig controls how long attempt completion waits for transcripts.
type ScoringConfig struct {
	TranscriptWait time.Duration `mapstructure:"transcript_wait" validate:"gt=0"`
	TranscriptPoll time.Duration `mapstructure:"transcript_poll" validate:"gt=0"`
}

// StorageConfig points at the directory where uploads wait for workers.
type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir" validate:"required"`
}
