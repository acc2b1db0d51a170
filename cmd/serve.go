package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillroad/server/internal/ai"
	"skillroad/server/internal/api"
	"skillroad/server/internal/config"
	"skillroad/server/internal/learning"
	"skillroad/server/internal/logger"
	"skillroad/server/internal/market"
	"skillroad/server/internal/portal"
	"skillroad/server/internal/scheduler"
	"skillroad/server/internal/skills"
	"skillroad/server/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = flagDbg
	}
	if cmd.Flags().Changed("json") {
		cfg.LogJSON = flagJSON
	}

	zl, err := logger.New(cfg.LogJSON, cfg.Debug)
	if err != nil {
		log.Fatalf("creating a logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	zl.Info("starting skillroad", zap.String("version", version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("connecting to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		zl.Fatal("connecting to redis", zap.Error(err))
	}
	defer rdb.Close()

	st := store.New(pool)

	extractor, err := newExtractor(cfg)
	if err != nil {
		zl.Fatal("building skill extractor", zap.Error(err))
	}

	adapters := buildAdapters(cfg, extractor, zl)
	aggregator := portal.NewAggregator(adapters, cfg.Portals.Timeout, cfg.Market.SampleSize, zl)

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		zl.Fatal("building ai provider", zap.Error(err))
	}
	generator := ai.NewGenerator(completer, zl)

	marketSvc := market.NewService(st, aggregator, rdb, cfg.Market.FreshnessWindow, zl)
	learningSvc := learning.NewService(st, generator, zl)

	sched := scheduler.New(marketSvc, cfg.Market.RefreshSpec, zl)
	if err := sched.Start(ctx); err != nil {
		zl.Fatal("starting scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := api.New(marketSvc, learningSvc, zl)

	go func() {
		zl.Info("http server listening",
			zap.String("port", cfg.Port),
			zap.Int("portal_adapters", len(adapters)),
			zap.String("ai_provider", cfg.AI.Provider),
		)
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	zl.Info("stopped")
}

// newExtractor builds the skill extractor from the configured vocabulary
// file, falling back to the embedded default list.
func newExtractor(cfg *config.Config) (*skills.Extractor, error) {
	if cfg.SkillsFile == "" {
		return skills.Default()
	}

	raw, err := os.ReadFile(cfg.SkillsFile)
	if err != nil {
		return nil, fmt.Errorf("read skills file: %w", err)
	}
	return skills.Load(raw)
}

// buildAdapters wires every portal with credentials configured. A missing
// credential omits the adapter rather than failing startup.
func buildAdapters(cfg *config.Config, extractor *skills.Extractor, zl *zap.Logger) []portal.Adapter {
	timeout := cfg.Portals.Timeout
	adapters := make([]portal.Adapter, 0, 4)

	if cfg.Portals.LinkedInAPIKey != "" {
		adapters = append(adapters, portal.NewLinkedInAdapter(cfg.Portals.LinkedInAPIKey, extractor, timeout))
	} else {
		zl.Warn("linkedin adapter disabled", zap.String("reason", "no api key configured"))
	}

	if cfg.Portals.IndeedPublisherID != "" {
		adapters = append(adapters, portal.NewIndeedAdapter(cfg.Portals.IndeedPublisherID, extractor, timeout))
	} else {
		zl.Warn("indeed adapter disabled", zap.String("reason", "no publisher id configured"))
	}

	if cfg.Portals.GlassdoorEnabled {
		adapters = append(adapters, portal.NewGlassdoorAdapter(extractor, timeout))
	}

	adapters = append(adapters, portal.NewNaukriAdapter(zl))
	return adapters
}

func newCompleter(ctx context.Context, cfg *config.Config) (ai.Completer, error) {
	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.OpenAI == nil {
			return nil, fmt.Errorf("ai.openai configuration is required for the openai provider")
		}
		return ai.NewOpenAICompleter(cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.Model)
	default:
		if cfg.AI.Gemini == nil {
			return nil, fmt.Errorf("ai.gemini configuration is required for the gemini provider")
		}
		return ai.NewGeminiCompleter(ctx, cfg.AI.Gemini.APIKey, cfg.AI.Gemini.Model)
	}
}
