// internal/cli/serve.go
package palm

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/logging"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/rag"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/server"
)

// serveCmd starts the retrieval HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the BM25, vector and hybrid retrieval API",
	Long: `Index the configured snippet corpus once, then serve the retrieval API
until interrupted. SIGINT and SIGTERM drain in-flight requests before exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	},
}

func runServe(ctx context.Context, cfg *appconfig.Config) error {
	if !logging.DebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, err := rag.Open(ctx, cfg, statusLogger(time.Now()))
	if err != nil {
		return fmt.Errorf("build retrieval index: %w", err)
	}

	srv, err := server.New(svc, server.Options{
		Tracing:   cfg.Retrieval.Tracing,
		Profiling: cfg.Retrieval.Profiling,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx, cfg.Retrieval.Addr)
}

// statusLogger prefixes progress lines with the time elapsed since start.
func statusLogger(start time.Time) rag.StatusFunc {
	return func(format string, args ...any) {
		elapsed := time.Since(start).Truncate(time.Millisecond)
		log.Printf("[%s] %s", elapsed, fmt.Sprintf(format, args...))
	}
}

func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	serveCmd.Flags().String("addr", appconfig.DefaultRetrievalAddr, "listen address")
	serveCmd.Flags().Bool("tracing", false, "export OpenTelemetry spans to stdout")
	serveCmd.Flags().Bool("profiling", false, "expose /debug/pprof")

	_ = viper.BindPFlag("retrieval.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("retrieval.tracing", serveCmd.Flags().Lookup("tracing"))
	_ = viper.BindPFlag("retrieval.profiling", serveCmd.Flags().Lookup("profiling"))

	rootCmd.AddCommand(serveCmd)
}
