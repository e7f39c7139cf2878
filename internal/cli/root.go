// Package cli 提供命令列擷取工具
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"recipe-extractor/internal/core/extraction"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// Extractor 擷取流程
type Extractor interface {
	ExtractDetailed(ctx context.Context, req recipe.Request) (*extraction.Outcome, error)
}

// EngineFactory 依設定建立擷取流程與清理函式
type EngineFactory func(cfg *config.Config) (Extractor, func(), error)

// app 命令共用狀態
type app struct {
	version   string
	newEngine EngineFactory
	out       io.Writer

	logLevel   string
	noCache    bool
	aiProvider string
	cfg        *config.Config
}

func defaultEngine(cfg *config.Config) (Extractor, func(), error) {
	// CLI 單次執行不對外提供指標
	return extraction.NewFromConfig(cfg, prometheus.NewRegistry())
}

// NewRootCmd 建立根命令
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(&app{version: version, newEngine: defaultEngine, out: os.Stdout})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "recipe-extract",
		Short: "Extract structured recipes from web pages and short videos",
		Long: `recipe-extract runs the multi-tier extraction pipeline locally.

Example usage:
  recipe-extract extract https://www.allrecipes.com/recipe/10813/
  recipe-extract extract https://youtu.be/dQw4w9WgXcQ --pretty
  recipe-extract extract https://example.com/r --html-file page.html --no-cache`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (default from LOG_LEVEL or config)")
	root.PersistentFlags().BoolVar(&a.noCache, "no-cache", false, "disable the extraction cache")
	root.PersistentFlags().StringVar(&a.aiProvider, "ai-provider", "", "override AI provider: openrouter | anthropic | none")

	root.AddCommand(newExtractCmd(a))
	root.AddCommand(newVersionCmd(a))
	return root
}

// init 載入設定並套用命令列覆寫
func (a *app) init() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.noCache {
		cfg.Cache.Enabled = false
	}
	if a.aiProvider != "" {
		cfg.AI.Provider = a.aiProvider
	}
	// 日誌寫入 stderr，stdout 只輸出結果
	common.InitConsoleLogger(cfg.LogLevel)
	a.cfg = cfg
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.out, "recipe-extract %s\n", a.version)
			return err
		},
	}
}
