package llmgateway

// ProviderID represents a unique backend identifier.
// It doubles as the HTTP path prefix the backend is mounted under.
type ProviderID string

// Known provider identifiers
const (
	// ProviderGemini is Google's Gemini API
	ProviderGemini ProviderID = "gemini"

	// ProviderXAI is xAI's Grok API
	ProviderXAI ProviderID = "xai"

	// ProviderOllama is a locally-run Ollama server
	ProviderOllama ProviderID = "ollama"

	// ProviderAnthropic is Anthropic's Claude API
	ProviderAnthropic ProviderID = "anthropic"

	// ProviderLorem is the mock Lorem provider for testing
	ProviderLorem ProviderID = "lorem"
)

// String returns the string representation of the provider ID
func (p ProviderID) String() string {
	return string(p)
}

// IsValid returns true if the provider ID is a known provider
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderGemini, ProviderXAI, ProviderOllama, ProviderAnthropic, ProviderLorem:
		return true
	default:
		return false
	}
}
