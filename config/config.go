// Package config loads meetkb settings: the knowledge base registry, storage
// backend, transcription polling, timeouts and the AI provider.
//
// Values are layered, lowest precedence first: built-in defaults, the TOML
// file, .env, .env.local, then real environment variables (MEETKB_*).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/poiesic/meetkb/ai"
	"github.com/poiesic/meetkb/core"
)

const (
	StoreS3     = "s3"
	StoreBadger = "badger"
)

// Config is the complete process configuration.
type Config struct {
	Store          StoreConfig                   `toml:"store"`
	Defaults       Defaults                      `toml:"defaults"`
	KnowledgeBases map[string]core.KnowledgeBase `toml:"knowledge_bases"`
	Transcription  Transcription                 `toml:"transcription"`
	Retrieval      Retrieval                     `toml:"retrieval"`
	Timeouts       Timeouts                      `toml:"timeouts"`
	AI             ai.Config                     `toml:"ai"`
}

// StoreConfig selects the object store backend.
type StoreConfig struct {
	Kind   string `toml:"kind"`
	Path   string `toml:"path"`
	Region string `toml:"region"`
}

// Defaults holds the bucket set used for single-document uploads.
type Defaults struct {
	Buckets core.Buckets `toml:"buckets"`
}

// Transcription controls the speech-to-text job orchestrator.
type Transcription struct {
	PollInterval time.Duration `toml:"poll_interval"`
	MaxAttempts  int           `toml:"max_attempts"`
	LanguageCode string        `toml:"language_code"`
	Workers      int           `toml:"workers"`
}

// Retrieval controls answer retrieval and multi-document loading.
type Retrieval struct {
	K           int `toml:"k"`
	Parallelism int `toml:"parallelism"`
}

// Timeouts bound index build/load and generation calls. Zero disables.
type Timeouts struct {
	Index    time.Duration `toml:"index"`
	Generate time.Duration `toml:"generate"`
}

// Default returns the built-in configuration. AI fields left empty are
// filled per provider kind by Load.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Kind:   StoreBadger,
			Path:   ".meetkb",
			Region: "us-east-1",
		},
		Defaults: Defaults{
			Buckets: core.Buckets{
				Uploads:     "meeting-uploads",
				Transcripts: "meeting-transcripts",
				Summaries:   "meeting-summaries",
				Embeddings:  "meeting-embeddings",
			},
		},
		KnowledgeBases: map[string]core.KnowledgeBase{},
		Transcription: Transcription{
			PollInterval: 5 * time.Second,
			MaxAttempts:  120,
			LanguageCode: "en-US",
			Workers:      4,
		},
		Retrieval: Retrieval{
			K:           5,
			Parallelism: 1,
		},
		Timeouts: Timeouts{
			Index:    2 * time.Minute,
			Generate: 2 * time.Minute,
		},
		AI: ai.Config{Kind: ai.KindBedrock},
	}
}

// Load builds the configuration from path (optional), dotenv files in the
// working directory, and the environment.
func Load(path string) (*Config, error) {
	if err := loadDotEnvPrecedence(); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}
	fillAIDefaults(&cfg.AI)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnvPrecedence exports .env.local then .env without overriding
// variables that are already set, so real env wins over .env.local over .env.
func loadDotEnvPrecedence() error {
	for _, name := range []string{".env.local", ".env"} {
		values, err := godotenv.Read(name)
		if err != nil {
			continue
		}
		for k, v := range values {
			if _, exists := os.LookupEnv(k); !exists {
				if setErr := os.Setenv(k, v); setErr != nil {
					return setErr
				}
			}
		}
	}
	return nil
}

func mergeFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slog.Default().With("component", "config").Warn("ignoring unknown config keys", "path", path, "keys", keys)
	}
	return nil
}

func mergeEnv(cfg *Config) error {
	strs := []struct {
		name   string
		target *string
	}{
		{"MEETKB_STORE_KIND", &cfg.Store.Kind},
		{"MEETKB_STORE_PATH", &cfg.Store.Path},
		{"MEETKB_STORE_REGION", &cfg.Store.Region},
		{"MEETKB_UPLOADS_BUCKET", &cfg.Defaults.Buckets.Uploads},
		{"MEETKB_TRANSCRIPTS_BUCKET", &cfg.Defaults.Buckets.Transcripts},
		{"MEETKB_SUMMARIES_BUCKET", &cfg.Defaults.Buckets.Summaries},
		{"MEETKB_EMBEDDINGS_BUCKET", &cfg.Defaults.Buckets.Embeddings},
		{"MEETKB_AI_KIND", &cfg.AI.Kind},
		{"MEETKB_AI_REGION", &cfg.AI.Region},
		{"MEETKB_AI_EMBEDDING_HOST", &cfg.AI.EmbeddingHost},
		{"MEETKB_AI_GENERATION_HOST", &cfg.AI.GenerationHost},
		{"MEETKB_AI_API_KEY", &cfg.AI.APIKey},
		{"MEETKB_AI_EMBEDDING_MODEL", &cfg.AI.EmbeddingModel},
		{"MEETKB_AI_GENERATION_MODEL", &cfg.AI.GenerationModel},
		{"MEETKB_LANGUAGE_CODE", &cfg.Transcription.LanguageCode},
	}
	for _, s := range strs {
		if v := strings.TrimSpace(os.Getenv(s.name)); v != "" {
			*s.target = v
		}
	}

	if v := strings.TrimSpace(os.Getenv("MEETKB_AI_RPS")); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MEETKB_AI_RPS: %w", err)
		}
		cfg.AI.RequestsPerSecond = rps
	}
	if v := strings.TrimSpace(os.Getenv("MEETKB_POLL_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MEETKB_POLL_INTERVAL: %w", err)
		}
		cfg.Transcription.PollInterval = d
	}
	if v := strings.TrimSpace(os.Getenv("MEETKB_MAX_ATTEMPTS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEETKB_MAX_ATTEMPTS: %w", err)
		}
		cfg.Transcription.MaxAttempts = n
	}
	return nil
}

// fillAIDefaults fills empty provider fields from the defaults for the
// configured kind.
func fillAIDefaults(cfg *ai.Config) {
	cfg.Kind = strings.ToLower(strings.TrimSpace(cfg.Kind))
	var def *ai.Config
	switch cfg.Kind {
	case ai.KindOpenAI:
		def = ai.DefaultOpenAIConfig()
	case ai.KindBedrock, "":
		def = ai.DefaultConfig()
		cfg.Kind = ai.KindBedrock
	default:
		return
	}
	fill := func(target *string, value string) {
		if *target == "" {
			*target = value
		}
	}
	fill(&cfg.Region, def.Region)
	fill(&cfg.EmbeddingHost, def.EmbeddingHost)
	fill(&cfg.GenerationHost, def.GenerationHost)
	fill(&cfg.APIKey, def.APIKey)
	fill(&cfg.EmbeddingModel, def.EmbeddingModel)
	fill(&cfg.GenerationModel, def.GenerationModel)
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreBadger:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for badger", ErrInvalidConfig)
		}
	case StoreS3:
		if c.Store.Region == "" {
			return fmt.Errorf("%w: store.region is required for s3", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store kind %q", ErrInvalidConfig, c.Store.Kind)
	}
	if c.Transcription.PollInterval < 0 {
		return fmt.Errorf("%w: transcription.poll_interval cannot be negative", ErrInvalidConfig)
	}
	if c.Transcription.MaxAttempts <= 0 {
		return fmt.Errorf("%w: transcription.max_attempts must be positive", ErrInvalidConfig)
	}
	if c.Transcription.Workers <= 0 {
		return fmt.Errorf("%w: transcription.workers must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.K <= 0 {
		return fmt.Errorf("%w: retrieval.k must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.Parallelism <= 0 {
		return fmt.Errorf("%w: retrieval.parallelism must be positive", ErrInvalidConfig)
	}
	if c.Timeouts.Index < 0 || c.Timeouts.Generate < 0 {
		return fmt.Errorf("%w: timeouts cannot be negative", ErrInvalidConfig)
	}
	if _, err := c.Registry(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Registry builds the knowledge base registry.
func (c *Config) Registry() (*Registry, error) {
	return NewRegistry(c.Defaults.Buckets, c.KnowledgeBases)
}
