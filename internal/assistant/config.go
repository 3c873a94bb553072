package assistant

import "time"

// Provider names the model backend the assistant talks to
type Provider string

const (
	ProviderNone   Provider = "none"
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// DefaultTimeout bounds one generation call
const DefaultTimeout = 120 * time.Second

// Config is decided once at startup and handed to New
type Config struct {
	Provider Provider
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Enabled reports whether a remote model should be called at all
func (c Config) Enabled() bool {
	switch c.Provider {
	case ProviderOllama:
		return c.BaseURL != ""
	case ProviderOpenAI:
		return c.APIKey != ""
	default:
		return false
	}
}
