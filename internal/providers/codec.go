package providers

import (
	"fmt"
	"strings"
)

// SystemPrompt is the fixed instruction sent with every chat-style request.
const SystemPrompt = "You are a precise summarizer that creates short, natural-language summaries of a character's memories."

// Generation settings shared by both wire shapes.
const (
	requestTemperature = 0.7
	requestMaxTokens   = 200
)

// EncodeRequest builds the provider-specific JSON request body for a prompt.
// Chat-style providers (openai, deepseek, player2, custom) get the messages
// shape; google gets the generative shape. All string payload fields pass
// through EscapeJSON.
func EncodeRequest(provider, model, prompt string, cachingEnabled bool) string {
	if provider == ProviderGoogle {
		return encodeGenerativeRequest(model, prompt)
	}
	return encodeChatRequest(provider, model, prompt, cachingEnabled)
}

func encodeChatRequest(provider, model, prompt string, cachingEnabled bool) string {
	var sb strings.Builder

	sb.WriteString(`{"model":"`)
	sb.WriteString(EscapeJSON(model))
	sb.WriteString(`","messages":[{"role":"system","content":"`)
	sb.WriteString(EscapeJSON(SystemPrompt))
	sb.WriteString(`"`)

	if cachingEnabled {
		switch provider {
		case ProviderDeepSeek:
			sb.WriteString(`,"cache":true`)
		default:
			// The ephemeral hint is only understood for the GPT model
			// families; other models reject unknown message fields.
			if strings.Contains(model, "gpt-4") || strings.Contains(model, "gpt-3.5") {
				sb.WriteString(`,"cache_control":{"type":"ephemeral"}`)
			}
		}
	}

	sb.WriteString(`},{"role":"user","content":"`)
	sb.WriteString(EscapeJSON(prompt))
	sb.WriteString(`"}],"temperature":`)
	sb.WriteString(formatFloat(requestTemperature))
	sb.WriteString(`,"max_tokens":`)
	fmt.Fprintf(&sb, "%d", requestMaxTokens)

	if cachingEnabled && provider == ProviderDeepSeek {
		sb.WriteString(`,"enable_prompt_cache":true`)
	}

	sb.WriteString(`}`)
	return sb.String()
}

func encodeGenerativeRequest(model, prompt string) string {
	var sb strings.Builder

	sb.WriteString(`{"contents":[{"parts":[{"text":"`)
	sb.WriteString(EscapeJSON(prompt))
	sb.WriteString(`"}]}],"generationConfig":{"temperature":`)
	sb.WriteString(formatFloat(requestTemperature))
	sb.WriteString(`,"maxOutputTokens":`)
	fmt.Fprintf(&sb, "%d", requestMaxTokens)

	// Flash models burn output tokens on thinking unless told not to.
	if strings.Contains(model, "flash") {
		sb.WriteString(`,"thinkingConfig":{"thinkingBudget":0}`)
	}

	sb.WriteString(`}}`)
	return sb.String()
}

func formatFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

// DecodeResponse extracts the summary text from a provider response body.
// Chat-style responses carry it in the first "content" field; generative
// responses in the first "text" field.
func DecodeResponse(provider, rawBody string) (string, bool) {
	field := "content"
	if provider == ProviderGoogle {
		field = "text"
	}
	return ExtractField(rawBody, field)
}

// RequestURL returns the full endpoint URL for a request. Google carries the
// model and API key in the URL; chat-style providers use the endpoint as-is.
func RequestURL(provider, apiURL, model, apiKey string) string {
	if provider == ProviderGoogle {
		base := strings.TrimRight(apiURL, "/")
		return fmt.Sprintf("%s/%s:generateContent?key=%s", base, model, apiKey)
	}
	return apiURL
}

// RequestHeaders returns the HTTP headers for a request. Chat-style providers
// authenticate with a bearer token; google authenticates in the URL.
func RequestHeaders(provider, apiKey string) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if provider != ProviderGoogle && apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	return headers
}
