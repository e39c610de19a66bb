// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KindBedrock selects AWS Bedrock (Titan embeddings, Claude generation).
	KindBedrock = "bedrock"
	// KindOpenAI selects an OpenAI-compatible API.
	KindOpenAI = "openai"
)

// Config holds the settings used to construct a Provider.
type Config struct {
	// Kind selects the provider implementation: "bedrock" or "openai".
	Kind string `toml:"kind"`

	// Region is the AWS region used by the Bedrock provider.
	Region string `toml:"region"`

	// EmbeddingHost is the base URL for the embedding service API (openai only).
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string `toml:"embedding_host"`

	// GenerationHost is the base URL for the generation service API (openai only).
	GenerationHost string `toml:"generation_host"`

	// APIKey is sent as the bearer token (openai only). Local servers accept "none".
	APIKey string `toml:"api_key"`

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "amazon.titan-embed-text-v1", "text-embedding-3-small"
	EmbeddingModel string `toml:"embedding_model"`

	// GenerationModel is the model identifier used for answers and summaries.
	// Example: "anthropic.claude-3-sonnet-20240229-v1:0", "gpt-4o-mini"
	GenerationModel string `toml:"generation_model"`

	// RequestsPerSecond caps generation calls. Zero disables limiting.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

type ConfigOption func(*Config)

func WithKind(kind string) ConfigOption {
	return func(c *Config) {
		c.Kind = kind
	}
}

func WithRegion(region string) ConfigOption {
	return func(c *Config) {
		c.Region = region
	}
}

func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
	}
}

func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

// DefaultConfig returns the Bedrock configuration the meeting knowledge base
// was built against.
func DefaultConfig() *Config {
	return &Config{
		Kind:            KindBedrock,
		Region:          "us-east-1",
		EmbeddingModel:  "amazon.titan-embed-text-v1",
		GenerationModel: "anthropic.claude-3-sonnet-20240229-v1:0",
	}
}

// DefaultOpenAIConfig returns settings for a local OpenAI-compatible server.
func DefaultOpenAIConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		Kind:            KindOpenAI,
		EmbeddingHost:   defaultHost,
		GenerationHost:  defaultHost,
		APIKey:          "none",
		EmbeddingModel:  "embeddinggemma",
		GenerationModel: "qwen2.5:3b",
	}
}

func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *Config) Normalize() {
	c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))
	if c.Kind != KindOpenAI {
		return
	}
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.GenerationHost = normalizeHost(c.GenerationHost)
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

// normalizeHost ensures OpenAI-compatible hosts end with /v1.
func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	switch c.Kind {
	case KindBedrock:
		if c.Region == "" {
			return errors.New("ai config: Region is required")
		}
	case KindOpenAI:
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
		if c.GenerationHost == "" {
			return errors.New("ai config: GenerationHost is required")
		}
	default:
		return fmt.Errorf("ai config: %w %q", ErrUnknownProviderKind, c.Kind)
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond cannot be negative")
	}
	return nil
}
