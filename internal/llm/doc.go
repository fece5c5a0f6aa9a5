// Package llm provides a provider-neutral abstraction over Large Language
// Model APIs.
//
// The Client interface exposes a single synchronous Complete call; the
// per-provider subpackages (anthropic, gemini, openai, ollama) implement it by
// translating between the neutral types here and each vendor SDK. Switching
// providers means constructing a different Client; nothing above this package
// branches on provider identity.
//
// Tool calling uses the neutral ToolSpec/ToolCall/ToolResult types. A provider
// that supports function calling returns ToolCalls on the Response; the caller
// executes them and sends the results back as tool-role messages.
package llm
