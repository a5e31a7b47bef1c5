// internal/cli/eval.go
package palm

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/harness"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/metrics"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providerfactory"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers"
)

// evalCmd runs every test case against the configured model.
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the evaluation harness over a test-case file",
	Long: `Send each test case prompt (and its variants) to the configured model several
times, score every response with the case's match strategy and write the
summary and per-case results as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		return runEval(cmd.Context(), cfg, cmd.OutOrStdout(), providerfactory.NewChatProvider)
	},
}

type providerBuilder func(cfg *appconfig.Config, host appconfig.Host) (providers.ChatProvider, error)

func runEval(ctx context.Context, cfg *appconfig.Config, out io.Writer, build providerBuilder) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cases, err := harness.LoadCases(cfg.CasesPath)
	if err != nil {
		return err
	}
	host, err := cfg.ActiveHost()
	if err != nil {
		return err
	}
	model, err := cfg.ActiveModel()
	if err != nil {
		return err
	}

	provider, err := build(cfg, host)
	if err != nil {
		return err
	}
	defer provider.Close()

	log.Printf("eval: %d cases from %s, host=%s model=%s runs=%d", len(cases), cfg.CasesPath, host.Name, model, cfg.Runs)

	runner := harness.NewRunner(providers.AnswerCaller{
		Provider:     provider,
		Host:         host,
		Model:        model,
		SystemPrompt: cfg.SystemPrompt,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
	}, cfg.Runs)
	runner.Model = model
	runner.Progress = out
	runner.Evaluator.Sandbox.MaxSteps = cfg.SandboxMaxSteps

	report, err := runner.Run(ctx, cases)
	if err != nil {
		return err
	}
	if err := harness.PrintSummary(out, report); err != nil {
		return err
	}

	if cfg.OutputPath != "" {
		if err := harness.Save(cfg.OutputPath, report); err != nil {
			return err
		}
		fmt.Fprintln(out, "Wrote results to", cfg.OutputPath)
	}

	if mp, ok := provider.(*metrics.Provider); ok && cfg.MetricsPath != "" {
		if err := mp.Aggregator().Save(cfg.MetricsPath); err != nil {
			return fmt.Errorf("save model metrics: %w", err)
		}
		fmt.Fprintln(out, "Wrote model metrics to", cfg.MetricsPath)
	}
	return nil
}

func init() {
	evalCmd.Flags().String("cases", appconfig.DefaultCasesPath, "test-case file (JSON or YAML)")
	evalCmd.Flags().Int("runs", appconfig.DefaultRuns, "calls per prompt")
	evalCmd.Flags().String("output", appconfig.DefaultOutputPath, "results file; empty to skip writing")
	evalCmd.Flags().String("model", "", "model id (defaults to the active host's first model)")
	evalCmd.Flags().Float64("temperature", appconfig.DefaultTemperature, "sampling temperature")
	evalCmd.Flags().String("system-prompt", "", "system message sent before every prompt")

	_ = viper.BindPFlag("casesPath", evalCmd.Flags().Lookup("cases"))
	_ = viper.BindPFlag("runs", evalCmd.Flags().Lookup("runs"))
	_ = viper.BindPFlag("outputPath", evalCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("model", evalCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("temperature", evalCmd.Flags().Lookup("temperature"))
	_ = viper.BindPFlag("systemPrompt", evalCmd.Flags().Lookup("system-prompt"))

	rootCmd.AddCommand(evalCmd)
}
