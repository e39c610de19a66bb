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

// Package ai provides abstractions for the AI services used by meetkb.
//
// The query engine needs exactly two capabilities: turning text into
// vectors and turning a prompt into text. Both sit behind small interfaces
// so the index, answerer and summarizer never depend on a vendor SDK.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text and names its model
//   - Generator: Runs a single completion with explicit decoding options
//   - Provider: Aggregates both services for convenient initialization
//
// # Implementation Packages
//
//   - ai/bedrock: AWS Bedrock (Titan embeddings, Claude generation)
//   - ai/openai: OpenAI or any OpenAI-compatible server (Ollama, vLLM)
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in the implementation packages return interface types.
// Mock constructors return concrete types so tests can inject behavior and
// assert call counts.
//
// # Throttling
//
// Generators report throttling through errors that satisfy IsRateLimited.
// Callers that must stay under a quota can wrap any Generator with
// NewRateLimitedGenerator.
//
// # Usage Example
//
//	provider, err := bedrock.NewProvider(ctx, ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "What is the action item?")
//	text, err := provider.Generator().Generate(ctx, prompt, ai.GenerateOptions{
//	    MaxTokens:   2048,
//	    Temperature: 0.5,
//	    TopP:        1,
//	})
package ai
