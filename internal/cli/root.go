// internal/cli/root.go
package palm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/logging"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
)

var rootCmd = &cobra.Command{
	Use:          "palm",
	Short:        "palm: LLM response evaluation harness and hybrid retrieval service",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) Load config (file or defaults)
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		// 2) Materialize the merged configuration (flags > config > defaults).
		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		if err := cfg.Validate(); err != nil {
			return err
		}
		currentConfig = &cfg

		// 3) Route the standard logger to stdout and the log file.
		logging.SetDebug(cfg.Debug)
		if err := logging.Init(cfg.LogFilePath()); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_ = logging.Close()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging, including request payloads")
	rootCmd.PersistentFlags().String("logFile", appconfig.DefaultLogFile, "log file path")
	rootCmd.PersistentFlags().Bool("metrics", false, "record per-model call metrics")

	// Bind flags to Viper keys (flags override config)
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
	_ = viper.BindPFlag("metrics", rootCmd.PersistentFlags().Lookup("metrics"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config over the defaults. A missing file is
// not an error: defaults and flags still apply.
func ensureConfigLoaded() error {
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

func setDefaults() {
	d := appconfig.Default()
	viper.SetDefault("temperature", d.Temperature)
	viper.SetDefault("maxTokens", d.MaxTokens)
	viper.SetDefault("systemPrompt", d.SystemPrompt)
	viper.SetDefault("timeout", d.TimeoutSeconds)
	viper.SetDefault("runs", d.Runs)
	viper.SetDefault("casesPath", d.CasesPath)
	viper.SetDefault("outputPath", d.OutputPath)
	viper.SetDefault("logFile", d.LogFile)
	viper.SetDefault("debug", d.Debug)
	viper.SetDefault("metrics", d.Metrics)
	viper.SetDefault("metricsPath", d.MetricsPath)
	viper.SetDefault("sandboxMaxSteps", d.SandboxMaxSteps)

	r := d.Retrieval
	viper.SetDefault("retrieval.addr", r.Addr)
	viper.SetDefault("retrieval.chunkSize", r.ChunkSize)
	viper.SetDefault("retrieval.chunkOverlap", r.ChunkOverlap)
	viper.SetDefault("retrieval.embeddingProvider", r.EmbeddingProvider)
	viper.SetDefault("retrieval.embeddingModel", r.EmbeddingModel)
	viper.SetDefault("retrieval.topK", r.TopK)
	viper.SetDefault("retrieval.metric", r.Metric)
	viper.SetDefault("retrieval.weight", r.Weight)
}

// GetConfig returns the loaded application configuration.
func GetConfig() *appconfig.Config {
	return currentConfig
}
