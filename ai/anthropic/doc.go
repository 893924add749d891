// Package anthropic implements ai.Generator on the Anthropic Messages API.
//
// Only generation is provided. Embeddings still come from an
// OpenAI-compatible service, so a deployment that answers with Claude pairs
// this generator with openai.NewEmbedder.
package anthropic
