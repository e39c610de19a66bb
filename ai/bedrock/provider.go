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

package bedrock

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/poiesic/meetkb/ai"
	"github.com/tmc/langchaingo/llms/bedrock"
)

// Provider implements ai.Provider on AWS Bedrock. One runtime client is
// shared by the embedder and the generator.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	generator ai.Generator
	logger    *slog.Logger
}

// NewProvider loads the default AWS credential chain for config.Region and
// builds a provider on top of it.
//
// Returns ai.Provider interface to enforce abstraction.
func NewProvider(ctx context.Context, config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newProvider(config, bedrockruntime.NewFromConfig(awsCfg))
}

// NewProviderWithClient builds a provider around an existing runtime client.
func NewProviderWithClient(config *ai.Config, client *bedrockruntime.Client) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newProvider(config, client)
}

func newProvider(config *ai.Config, client *bedrockruntime.Client) (*Provider, error) {
	embedder, err := newEmbedder(config, client)
	if err != nil {
		return nil, err
	}

	llm, err := bedrock.New(
		bedrock.WithModel(config.GenerationModel),
		bedrock.WithClient(client),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bedrock model: %w", err)
	}
	generator := ai.NewModelGenerator(llm, bedrock.MapError)

	return &Provider{
		config:    config,
		embedder:  embedder,
		generator: ai.NewRateLimitedGenerator(generator, config.RequestsPerSecond),
		logger:    slog.Default().With("component", "bedrock-provider"),
	}, nil
}

// Embedder returns the Titan (or configured) embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the Claude (or configured) generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op; the AWS client holds no resources that need releasing.
func (p *Provider) Close() error {
	p.logger.Debug("closing Bedrock provider")
	return nil
}
