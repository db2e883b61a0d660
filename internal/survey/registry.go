package survey

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/som-monitor/internal/config"
)

// Factory constructs a provider client from the application config.
type Factory func(cfg *config.Config) Client

var factories = map[string]Factory{
	"openai": func(cfg *config.Config) Client {
		return NewOpenAIClient(cfg.OpenAI)
	},
	"anthropic": func(cfg *config.Config) Client {
		return NewAnthropicClient(cfg.Anthropic)
	},
}

// Register adds or replaces a provider factory. Intended for tests and
// out-of-tree providers.
func Register(provider string, f Factory) {
	factories[provider] = f
}

// NewClient constructs the client for the named provider. Unknown
// provider names are a fatal configuration error.
func NewClient(provider string, cfg *config.Config) (Client, error) {
	f, ok := factories[provider]
	if !ok {
		return nil, eris.Errorf("survey: unknown provider %q (available: %s)",
			provider, strings.Join(Providers(), ", "))
	}
	return f(cfg), nil
}

// Providers returns the registered provider names in sorted order.
func Providers() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
