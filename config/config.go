package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"inpainter/internal/inpaint"
	"inpainter/internal/inpaint/fallback"
)

type Config struct {
	TelegramToken string          `mapstructure:"telegram_token"`
	Log           LogConfig       `mapstructure:"log"`
	Server        ServerConfig    `mapstructure:"server"`
	Redis         RedisConfig     `mapstructure:"redis"`
	Inference     InferenceConfig `mapstructure:"inference"`
	Inpaint       InpaintConfig   `mapstructure:"inpaint"`
	Fallback      FallbackConfig  `mapstructure:"fallback"`
	Masks         MasksConfig     `mapstructure:"masks"`
	Bot           BotConfig       `mapstructure:"bot"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	Mode          string        `mapstructure:"mode"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// InferenceConfig описывает ONNX-модель. Пустой ModelPath включает локальный синтез.
type InferenceConfig struct {
	ModelPath   string   `mapstructure:"model_path"`
	TileSize    int      `mapstructure:"tile_size"`
	InputNames  []string `mapstructure:"input_names"`
	OutputNames []string `mapstructure:"output_names"`
}

type InpaintConfig struct {
	MinPadding      int           `mapstructure:"min_padding"`
	PaddingFraction float64       `mapstructure:"padding_fraction"`
	OverlapFraction float64       `mapstructure:"overlap_fraction"`
	FeatherRadius   int           `mapstructure:"feather_radius"`
	QueueTimeout    time.Duration `mapstructure:"queue_timeout"`
}

type FallbackConfig struct {
	PatchSize     int   `mapstructure:"patch_size"`
	Iterations    int   `mapstructure:"iterations"`
	MaxCandidates int   `mapstructure:"max_candidates"`
	Shuffle       bool  `mapstructure:"shuffle"`
	Seed          int64 `mapstructure:"seed"`
	MaxSide       int   `mapstructure:"max_side"`
}

type MasksConfig struct {
	TemplateTTL time.Duration `mapstructure:"template_ttl"`
}

type BotConfig struct {
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
	SessionTTL       time.Duration `mapstructure:"session_ttl"`
}

// Load читает конфигурацию: значения по умолчанию, затем YAML-файл (если есть),
// затем переменные окружения (INFERENCE_TILE_SIZE, TELEGRAM_TOKEN, ...).
func Load(path string) (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram_token", "")
	v.SetDefault("log.mode", "debug")

	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.max_upload_size", 20*1024*1024)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("inference.model_path", "")
	v.SetDefault("inference.tile_size", inpaint.DefaultTileSize)
	v.SetDefault("inference.input_names", []string{"image", "mask"})
	v.SetDefault("inference.output_names", []string{"output"})

	v.SetDefault("inpaint.min_padding", inpaint.DefaultMinPadding)
	v.SetDefault("inpaint.padding_fraction", inpaint.DefaultPaddingFraction)
	v.SetDefault("inpaint.overlap_fraction", inpaint.DefaultOverlapFraction)
	v.SetDefault("inpaint.feather_radius", inpaint.DefaultFeatherRadius)
	v.SetDefault("inpaint.queue_timeout", 2*time.Minute)

	v.SetDefault("fallback.patch_size", fallback.DefaultPatchSize)
	v.SetDefault("fallback.iterations", fallback.DefaultIterations)
	v.SetDefault("fallback.max_candidates", fallback.DefaultMaxCandidates)
	v.SetDefault("fallback.shuffle", true)
	v.SetDefault("fallback.seed", 0)
	v.SetDefault("fallback.max_side", fallback.DefaultMaxSide)

	v.SetDefault("masks.template_ttl", 24*time.Hour)

	v.SetDefault("bot.progress_interval", 2*time.Second)
	v.SetDefault("bot.session_ttl", 24*time.Hour)
}

// EngineOptions собирает параметры движка закрашивания.
func (c *Config) EngineOptions() inpaint.Options {
	return inpaint.Options{
		TileSize:        c.Inference.TileSize,
		MinPadding:      c.Inpaint.MinPadding,
		PaddingFraction: c.Inpaint.PaddingFraction,
		OverlapFraction: c.Inpaint.OverlapFraction,
		FeatherRadius:   c.Inpaint.FeatherRadius,
	}
}

// FallbackParams собирает параметры локального синтеза.
func (c *Config) FallbackParams() fallback.Params {
	return fallback.Params{
		PatchSize:     c.Fallback.PatchSize,
		Iterations:    c.Fallback.Iterations,
		MaxCandidates: c.Fallback.MaxCandidates,
		Shuffle:       c.Fallback.Shuffle,
		Seed:          c.Fallback.Seed,
	}
}

// Validate проверяет согласованность параметров.
func (c *Config) Validate() error {
	if err := c.EngineOptions().Validate(); err != nil {
		return err
	}
	if err := c.FallbackParams().Validate(); err != nil {
		return err
	}
	if c.Fallback.MaxSide < 0 {
		return fmt.Errorf("%w: max side %d", fallback.ErrInvalidParams, c.Fallback.MaxSide)
	}
	if c.Inference.ModelPath != "" && (len(c.Inference.InputNames) < 2 || len(c.Inference.OutputNames) < 1) {
		return fmt.Errorf("model needs 2 input names and 1 output name, got %v / %v",
			c.Inference.InputNames, c.Inference.OutputNames)
	}
	if c.Inpaint.QueueTimeout <= 0 {
		return fmt.Errorf("queue timeout must be positive, got %s", c.Inpaint.QueueTimeout)
	}
	return nil
}
