package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		htmlFile string
		platform string
		timeout  time.Duration
		pretty   bool
	)

	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract a recipe from a URL",
		Long: `Extract a recipe from a recipe page, a YouTube video or a TikTok video.

The result is written to stdout as JSON. Logs go to stderr.

Examples:
  recipe-extract extract https://example.com/lemon-bars
  recipe-extract extract https://example.com/r --html-file saved.html
  recipe-extract extract https://vm.tiktok.com/ZMabc123/ --platform tiktok`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := recipe.Request{Source: args[0], PlatformHint: recipe.Platform(platform)}
			if htmlFile != "" {
				data, err := os.ReadFile(htmlFile)
				if err != nil {
					return fmt.Errorf("reading html file: %w", err)
				}
				req.RawHTML = string(data)
			}

			engine, cleanup, err := a.newEngine(a.cfg)
			if err != nil {
				return fmt.Errorf("initializing extraction: %w", err)
			}
			defer cleanup()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			out, err := engine.ExtractDetailed(ctx, req)
			if err != nil {
				return err
			}
			common.LogInfo("擷取完成",
				zap.String("source", req.Source),
				zap.Bool("found", out.Result.Found),
				zap.Bool("cache_hit", out.CacheHit),
				zap.Duration("duration", out.Duration),
			)

			enc := json.NewEncoder(a.out)
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(out.Result)
		},
	}

	cmd.Flags().StringVar(&htmlFile, "html-file", "", "use this saved HTML instead of fetching the page")
	cmd.Flags().StringVar(&platform, "platform", "", "platform hint: web | youtube | tiktok")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall deadline in addition to the configured request timeout")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	return cmd
}
