// Package bedrock provides AI service implementations on AWS Bedrock.
//
// Embeddings use the langchaingo Bedrock embedder (Amazon Titan by default)
// and generation uses the langchaingo Bedrock chat model (Anthropic Claude by
// default). Both share one bedrockruntime client. Errors pass through the
// Bedrock error mapper, so ThrottlingException responses satisfy
// ai.IsRateLimited.
//
// # Usage
//
//	provider, err := bedrock.NewProvider(ctx, ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
package bedrock
