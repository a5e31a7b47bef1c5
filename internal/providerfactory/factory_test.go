// internal/providerfactory/factory_test.go
package providerfactory

import (
	"testing"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/metrics"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers/ollama"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers/openai"
)

func TestNewChatProviderErrorsOnNilConfig(t *testing.T) {
	if _, err := NewChatProvider(nil, appconfig.Host{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewChatProviderSelectsByHostType(t *testing.T) {
	cfg := &appconfig.Config{}
	cases := []struct {
		hostType string
		check    func(any) bool
	}{
		{hostType: "", check: func(p any) bool { _, ok := p.(*openai.Provider); return ok }},
		{hostType: "openai", check: func(p any) bool { _, ok := p.(*openai.Provider); return ok }},
		{hostType: "llamacpp", check: func(p any) bool { _, ok := p.(*openai.Provider); return ok }},
		{hostType: "llama.cpp", check: func(p any) bool { _, ok := p.(*openai.Provider); return ok }},
		{hostType: "ollama", check: func(p any) bool { _, ok := p.(*ollama.Provider); return ok }},
	}
	for _, tc := range cases {
		provider, err := NewChatProvider(cfg, appconfig.Host{Name: "h", Type: tc.hostType})
		if err != nil {
			t.Fatalf("type %q: NewChatProvider returned error: %v", tc.hostType, err)
		}
		if !tc.check(provider) {
			t.Fatalf("type %q: unexpected provider %T", tc.hostType, provider)
		}
	}
}

func TestNewChatProviderRejectsUnsupported(t *testing.T) {
	if _, err := NewChatProvider(&appconfig.Config{}, appconfig.Host{Type: "unsupported"}); err == nil {
		t.Fatal("expected error for unsupported host type")
	}
}

func TestNewChatProviderWrapsMetrics(t *testing.T) {
	provider, err := NewChatProvider(&appconfig.Config{Metrics: true}, appconfig.Host{Type: "ollama"})
	if err != nil {
		t.Fatalf("NewChatProvider returned error: %v", err)
	}
	wrapped, ok := provider.(*metrics.Provider)
	if !ok {
		t.Fatalf("expected metrics.Provider, got %T", provider)
	}
	if wrapped.Aggregator() == nil {
		t.Fatal("expected an aggregator on the metrics provider")
	}
}
