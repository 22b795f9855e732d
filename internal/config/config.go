package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"8"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"legal-assistant-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`

	WhisperModel      string `envconfig:"WHISPER_MODEL" default:"whisper-1"`
	LocalWhisperURL   string `envconfig:"LOCAL_WHISPER_URL"`
	LocalWhisperModel string `envconfig:"LOCAL_WHISPER_MODEL" default:"base"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Ingestion pipeline knobs
	ChunkMaxWords     int     `envconfig:"CHUNK_MAX_WORDS" default:"200"`
	ChunkOverlapWords int     `envconfig:"CHUNK_OVERLAP_WORDS" default:"50"`
	AnalysisTopK      int     `envconfig:"ANALYSIS_TOP_K" default:"6"`
	QuestionTopK      int     `envconfig:"QUESTION_TOP_K" default:"4"`
	AudioBoost        float64 `envconfig:"AUDIO_BOOST" default:"2.0"`
	PDFMinTextChars   int     `envconfig:"PDF_MIN_TEXT_CHARS" default:"1"`
	IngestWorkers     int     `envconfig:"INGEST_WORKERS" default:"4"`
	EmbedConcurrency  int     `envconfig:"EMBED_CONCURRENCY" default:"4"`
	EmbedSync         bool    `envconfig:"EMBED_SYNC" default:"false"`

	WorkerInterval time.Duration `envconfig:"WORKER_INTERVAL" default:"3s"`
	MaxUploadMB    int64         `envconfig:"MAX_UPLOAD_MB" default:"100"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LEGALASSIST", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

func (c *Config) HasLocalWhisper() bool {
	return c.LocalWhisperURL != ""
}
