// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the path used when no config directory exists.
	legacyConfigPath = "config.json"
	// defaultRequestTimeout is the default timeout for model HTTP requests.
	defaultRequestTimeout = 600 * time.Second

	DefaultTemperature = 0.5
	DefaultMaxTokens   = 600
	DefaultRuns        = 5
	DefaultCasesPath   = "test_cases.json"
	DefaultOutputPath  = "results.json"
	DefaultLogFile     = "palm.log"
	DefaultMetricsPath = "reports/model_metrics.json"

	DefaultRetrievalAddr   = ":8000"
	DefaultRetrievalTopK   = 3
	DefaultRetrievalMetric = "cosine"
	DefaultRetrievalWeight = 0.5
	DefaultChunkSize       = 512
	DefaultChunkOverlap    = 64
	DefaultEmbeddingModel  = "text-embedding-3-small"
)

// Host types understood by the provider factory.
const (
	HostTypeOpenAI   = "openai"
	HostTypeLlamaCpp = "llama.cpp"
	HostTypeOllama   = "ollama"
)

// Config represents the top-level application configuration.
type Config struct {
	Hosts           []Host    `json:"hosts" mapstructure:"hosts" validate:"dive"`
	Host            string    `json:"host,omitempty" mapstructure:"host"`
	Model           string    `json:"model,omitempty" mapstructure:"model"`
	SystemPrompt    string    `json:"systemPrompt,omitempty" mapstructure:"systemPrompt"`
	Temperature     float64   `json:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens       int       `json:"maxTokens" mapstructure:"maxTokens" validate:"gte=0"`
	TimeoutSeconds  int       `json:"timeout,omitempty" mapstructure:"timeout"`
	Runs            int       `json:"runs" mapstructure:"runs" validate:"gte=1"`
	CasesPath       string    `json:"casesPath" mapstructure:"casesPath"`
	OutputPath      string    `json:"outputPath,omitempty" mapstructure:"outputPath"`
	LogFile         string    `json:"logFile,omitempty" mapstructure:"logFile"`
	Debug           bool      `json:"debug" mapstructure:"debug"`
	Metrics         bool      `json:"metrics" mapstructure:"metrics"`
	MetricsPath     string    `json:"metricsPath,omitempty" mapstructure:"metricsPath"`
	SandboxMaxSteps uint64    `json:"sandboxMaxSteps,omitempty" mapstructure:"sandboxMaxSteps"`
	Retrieval       Retrieval `json:"retrieval" mapstructure:"retrieval"`
	ConfigPath      string    `json:"-" mapstructure:"-"`
}

// Host represents a single host that can serve language models.
type Host struct {
	Name      string   `json:"name" mapstructure:"name" validate:"required"`
	URL       string   `json:"url" mapstructure:"url" validate:"omitempty,url"`
	Type      string   `json:"type" mapstructure:"type" validate:"omitempty,oneof=openai llama.cpp llamacpp ollama"`
	Models    []string `json:"models" mapstructure:"models"`
	APIKeyEnv string   `json:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv"`
}

// Retrieval configures the snippet index and the retrieval HTTP service.
type Retrieval struct {
	Addr              string   `json:"addr" mapstructure:"addr"`
	SnippetsPath      string   `json:"snippetsPath,omitempty" mapstructure:"snippetsPath"`
	CorpusPath        string   `json:"corpusPath,omitempty" mapstructure:"corpusPath"`
	AllowedExtensions []string `json:"allowedExtensions,omitempty" mapstructure:"allowedExtensions"`
	ExcludeGlobs      []string `json:"excludeGlobs,omitempty" mapstructure:"excludeGlobs"`
	ChunkSize         int      `json:"chunkSize" mapstructure:"chunkSize" validate:"gte=0"`
	ChunkOverlap      int      `json:"chunkOverlap" mapstructure:"chunkOverlap" validate:"gte=0,ltfield=ChunkSize"`
	EmbeddingProvider string   `json:"embeddingProvider" mapstructure:"embeddingProvider" validate:"omitempty,oneof=openai ollama"`
	EmbeddingModel    string   `json:"embeddingModel" mapstructure:"embeddingModel"`
	EmbeddingHost     string   `json:"embeddingHost,omitempty" mapstructure:"embeddingHost"`
	TopK              int      `json:"topK" mapstructure:"topK" validate:"gte=1"`
	Metric            string   `json:"metric" mapstructure:"metric" validate:"oneof=cosine l2 dot"`
	Weight            float64  `json:"weight" mapstructure:"weight" validate:"gte=0,lte=1"`
	Tracing           bool     `json:"tracing" mapstructure:"tracing"`
	Profiling         bool     `json:"profiling" mapstructure:"profiling"`
}

// Default returns a configuration populated with every default value.
func Default() Config {
	return Config{
		Temperature:    DefaultTemperature,
		MaxTokens:      DefaultMaxTokens,
		TimeoutSeconds: int(defaultRequestTimeout.Seconds()),
		Runs:           DefaultRuns,
		CasesPath:      DefaultCasesPath,
		OutputPath:     DefaultOutputPath,
		LogFile:        DefaultLogFile,
		MetricsPath:    DefaultMetricsPath,
		Retrieval: Retrieval{
			Addr:              DefaultRetrievalAddr,
			ChunkSize:         DefaultChunkSize,
			ChunkOverlap:      DefaultChunkOverlap,
			EmbeddingProvider: HostTypeOpenAI,
			EmbeddingModel:    DefaultEmbeddingModel,
			TopK:              DefaultRetrievalTopK,
			Metric:            DefaultRetrievalMetric,
			Weight:            DefaultRetrievalWeight,
		},
	}
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return DefaultLogFile
}

// ActiveHost returns the host named by Host, or the first configured host
// when Host is empty.
func (c Config) ActiveHost() (Host, error) {
	if len(c.Hosts) == 0 {
		return Host{}, errors.New("config must contain at least one host")
	}
	name := strings.TrimSpace(c.Host)
	if name == "" {
		return c.Hosts[0], nil
	}
	for _, h := range c.Hosts {
		if strings.EqualFold(h.Name, name) {
			return h, nil
		}
	}
	return Host{}, fmt.Errorf("host %q not found in config", name)
}

// ActiveModel returns the configured model, or the active host's first model.
func (c Config) ActiveModel() (string, error) {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m, nil
	}
	host, err := c.ActiveHost()
	if err != nil {
		return "", err
	}
	if len(host.Models) == 0 {
		return "", fmt.Errorf("host %q lists no models and no model is configured", host.Name)
	}
	return host.Models[0], nil
}

// NormalizedType maps host type aliases onto the canonical type names. An
// empty type means an OpenAI-compatible endpoint.
func (h Host) NormalizedType() string {
	t := strings.ToLower(strings.TrimSpace(h.Type))
	switch t {
	case "", HostTypeOpenAI:
		return HostTypeOpenAI
	case "llamacpp", HostTypeLlamaCpp:
		return HostTypeLlamaCpp
	default:
		return t
	}
}

// APIKey reads the host's API key from the environment variable named by
// APIKeyEnv, or OPENAI_API_KEY when unset.
func (h Host) APIKey() string {
	name := strings.TrimSpace(h.APIKeyEnv)
	if name == "" {
		name = "OPENAI_API_KEY"
	}
	return os.Getenv(name)
}

// Validate checks the configuration's field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, config.Validate()
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, config.Validate()
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath decodes the file over the defaults.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	config := Default()
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}

	return config, nil
}
