package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Anthropic   AnthropicConfig   `mapstructure:"anthropic"`
	AI          AIConfig          `mapstructure:"ai"`
	Extraction  ExtractionConfig  `mapstructure:"extraction"`
	YouTube     YouTubeConfig     `mapstructure:"youtube"`
	TikTok      TikTokConfig      `mapstructure:"tiktok"`
	Spoonacular SpoonacularConfig `mapstructure:"spoonacular"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Queue       QueueConfig       `mapstructure:"queue"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	LogLevel    string            `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// AnthropicConfig Anthropic 配置
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// AIConfig 文字理解服務設定
type AIConfig struct {
	Provider     string        `mapstructure:"provider"` // openrouter | anthropic | none
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	Temperature  float64       `mapstructure:"temperature"`
	MaxInputChar int           `mapstructure:"max_input_chars"`
}

// ExtractionConfig 擷取流程設定
type ExtractionConfig struct {
	RequestTimeout           time.Duration `mapstructure:"request_timeout"`
	FetchTimeout             time.Duration `mapstructure:"fetch_timeout"`
	MetadataTimeout          time.Duration `mapstructure:"metadata_timeout"`
	TranscriptTimeout        time.Duration `mapstructure:"transcript_timeout"`
	TranscriptAITimeout      time.Duration `mapstructure:"transcript_ai_timeout"`
	MinStepLength            int           `mapstructure:"min_step_length"`
	MinHTMLBytes             int           `mapstructure:"min_html_bytes"`
	MaxHTMLBytes             int64         `mapstructure:"max_html_bytes"`
	MaxIngredients           int           `mapstructure:"max_ingredients"`
	UserAgent                string        `mapstructure:"user_agent"`
	AIPageFallback           bool          `mapstructure:"ai_page_fallback"`
	HostRequestsPerSecond    float64       `mapstructure:"host_requests_per_second"`
	CaloriesPerServingCutoff float64       `mapstructure:"calories_per_serving_cutoff"`
}

// YouTubeConfig YouTube Data API 設定
type YouTubeConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	PageBaseURL  string `mapstructure:"page_base_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	TokenURL     string `mapstructure:"token_url"`
}

// TikTokConfig TikTok oEmbed 設定
type TikTokConfig struct {
	OEmbedURL string `mapstructure:"oembed_url"`
}

// SpoonacularConfig Spoonacular 設定
type SpoonacularConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis | sqlite
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"` // 0 代表不過期
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
}

// QueueConfig 請求隊列設定
type QueueConfig struct {
	Workers      int `mapstructure:"workers"`
	MaxSize      int `mapstructure:"max_size"`
	MaxBatchSize int `mapstructure:"max_batch_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（不存在時略過）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindEnv(v)

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Default 回傳只含預設值的設定（測試及 CLI 使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// 預設值皆為合法型別，不會解析失敗
	_ = v.Unmarshal(&config)
	return &config
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	_ = v.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("anthropic.model", "ANTHROPIC_MODEL")
	_ = v.BindEnv("ai.provider", "AI_PROVIDER")
	_ = v.BindEnv("youtube.api_key", "YOUTUBE_API_KEY")
	_ = v.BindEnv("youtube.client_id", "YOUTUBE_CLIENT_ID")
	_ = v.BindEnv("youtube.client_secret", "YOUTUBE_CLIENT_SECRET")
	_ = v.BindEnv("youtube.refresh_token", "YOUTUBE_REFRESH_TOKEN")
	_ = v.BindEnv("spoonacular.api_key", "SPOONACULAR_API_KEY")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("cache.backend", "CACHE_BACKEND")
	_ = v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("cache.redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("cache.sqlite_path", "CACHE_SQLITE_PATH")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.port", "PORT")
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-extractor")
	v.SetDefault("log_level", "info")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 6<<20)

	// OpenRouter 設定
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.max_tokens", 2000)

	// Anthropic 設定
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2000)

	// AI 設定
	v.SetDefault("ai.provider", "openrouter")
	v.SetDefault("ai.timeout", "25s")
	v.SetDefault("ai.max_attempts", 2)
	v.SetDefault("ai.retry_backoff", "500ms")
	v.SetDefault("ai.temperature", 0.1)
	v.SetDefault("ai.max_input_chars", 8000)

	// 擷取流程設定
	v.SetDefault("extraction.request_timeout", "30s")
	v.SetDefault("extraction.fetch_timeout", "8s")
	v.SetDefault("extraction.metadata_timeout", "8s")
	v.SetDefault("extraction.transcript_timeout", "10s")
	v.SetDefault("extraction.transcript_ai_timeout", "30s")
	v.SetDefault("extraction.min_step_length", 20)
	v.SetDefault("extraction.min_html_bytes", 20000)
	v.SetDefault("extraction.max_html_bytes", 5<<20)
	v.SetDefault("extraction.max_ingredients", 20)
	v.SetDefault("extraction.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	v.SetDefault("extraction.ai_page_fallback", true)
	v.SetDefault("extraction.host_requests_per_second", 2.0)
	v.SetDefault("extraction.calories_per_serving_cutoff", 1000.0)

	// 影音平台設定
	v.SetDefault("youtube.base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("youtube.page_base_url", "https://www.youtube.com")
	v.SetDefault("youtube.token_url", "https://oauth2.googleapis.com/token")
	v.SetDefault("tiktok.oembed_url", "https://www.tiktok.com/oembed")
	v.SetDefault("spoonacular.base_url", "https://api.spoonacular.com")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.key_prefix", "recipe:extract:")
	v.SetDefault("cache.sqlite_path", "data/extractions.db")

	// 隊列設定
	v.SetDefault("queue.workers", 5)
	v.SetDefault("queue.max_size", 100)
	v.SetDefault("queue.max_batch_size", 10)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.RedisAddr == "" {
				return fmt.Errorf("redis address is required for redis cache")
			}
		case "sqlite":
			if config.Cache.SQLitePath == "" {
				return fmt.Errorf("sqlite path is required for sqlite cache")
			}
		default:
			return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
		}
		if config.Cache.TTL < 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	switch config.AI.Provider {
	case "openrouter", "anthropic", "none", "":
	default:
		return fmt.Errorf("unknown ai provider %q", config.AI.Provider)
	}

	if config.Extraction.RequestTimeout <= 0 {
		return fmt.Errorf("invalid extraction request timeout")
	}
	if config.Extraction.MaxIngredients <= 0 {
		return fmt.Errorf("invalid extraction max ingredients")
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	return nil
}

// Summary 回傳可寫入日誌的設定摘要（金鑰已遮罩）
func (c *Config) Summary() map[string]interface{} {
	return map[string]interface{}{
		"ai_provider":        c.AI.Provider,
		"openrouter_model":   c.OpenRouter.Model,
		"openrouter_api_key": maskAPIKey(c.OpenRouter.APIKey),
		"anthropic_model":    c.Anthropic.Model,
		"anthropic_api_key":  maskAPIKey(c.Anthropic.APIKey),
		"youtube_api_key":    maskAPIKey(c.YouTube.APIKey),
		"spoonacular":        c.Spoonacular.APIKey != "",
		"cache_backend":      c.Cache.Backend,
		"cache_enabled":      c.Cache.Enabled,
	}
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
