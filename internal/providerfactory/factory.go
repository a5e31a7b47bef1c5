// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/logging"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/metrics"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers/ollama"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers/openai"
)

// NewChatProvider selects and configures the chat provider for host's type and
// wraps it with metrics collection if enabled.
func NewChatProvider(cfg *appconfig.Config, host appconfig.Host) (providers.ChatProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	var provider providers.ChatProvider
	switch hostType := host.NormalizedType(); hostType {
	case appconfig.HostTypeOpenAI, appconfig.HostTypeLlamaCpp:
		provider = openai.New(cfg)
	case appconfig.HostTypeOllama:
		provider = ollama.New(cfg)
	default:
		return nil, fmt.Errorf("unsupported host type %q for host %q", host.Type, host.Name)
	}
	logging.LogEvent("Provider ready: host=%s type=%s", providers.HostIdentifier(host, host.URL), host.NormalizedType())

	if cfg.Metrics {
		provider = metrics.NewProvider(provider, metrics.NewAggregator())
	}

	return provider, nil
}
