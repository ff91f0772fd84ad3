// Package providers contains the wire-level request and response handling
// for the LLM services the summarization engine can talk to.
package providers

// Provider constants
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGoogle   = "google"
	ProviderPlayer2  = "player2"
	ProviderCustom   = "custom"
)

// Default API endpoints
const (
	OpenAIAPIURL   = "https://api.openai.com/v1/chat/completions"
	DeepSeekAPIURL = "https://api.deepseek.com/chat/completions"
	GoogleAPIURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	Player2APIURL  = "https://api.player2.game/v1/chat/completions"
)

// IsChatStyle reports whether the provider speaks the chat-completions wire
// shape. Google is the only generative-style provider.
func IsChatStyle(provider string) bool {
	return provider != ProviderGoogle
}

// DefaultModel returns the model used when configuration leaves it empty.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderDeepSeek:
		return "deepseek-chat"
	case ProviderGoogle:
		return "gemini-2.0-flash"
	default:
		return "gpt-4o-mini"
	}
}

// DefaultURL returns the default endpoint for a provider, or empty when the
// provider has no fixed endpoint (custom, player2 local).
func DefaultURL(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return OpenAIAPIURL
	case ProviderDeepSeek:
		return DeepSeekAPIURL
	case ProviderGoogle:
		return GoogleAPIURL
	case ProviderPlayer2:
		return Player2APIURL
	default:
		return ""
	}
}
