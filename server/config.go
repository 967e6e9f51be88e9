package server

import (
	"io/fs"
	"math/rand"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"kanilife/game"
)

// Config 服务配置，全部来自 KANI_ 前缀的环境变量（可写在 .env 中）
type Config struct {
	Addr            string        `env:"ADDR" envDefault:":8000"`
	GridSize        int           `env:"GRID_SIZE" envDefault:"30"`
	InboxSize       int           `env:"INBOX_SIZE" envDefault:"100"`
	SpawnPolicy     string        `env:"SPAWN_POLICY" envDefault:"replace"`
	FoodCap         int           `env:"FOOD_CAP" envDefault:"5"`
	FoodMaxSize     int           `env:"FOOD_MAX_SIZE" envDefault:"3"`
	Seed            int64         `env:"SEED"` // 0 表示按时间取种子
	StaticDir       string        `env:"STATIC_DIR" envDefault:"static"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	LogFile   string `env:"LOG_FILE" envDefault:"kanilife.log"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogStdout bool   `env:"LOG_STDOUT" envDefault:"true"`

	OtelEndpoint string `env:"OTEL_ENDPOINT"`
	OtelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

const envPrefix = "KANI_"

// LoadConfig 先加载 .env（文件不存在不算错误），再解析环境变量
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.Wrap(err, "load .env")
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 检查取值范围
func (c Config) Validate() error {
	switch {
	case c.GridSize < 1:
		return errors.Errorf("grid size must be >= 1, got %d", c.GridSize)
	case c.InboxSize < 1:
		return errors.Errorf("inbox size must be >= 1, got %d", c.InboxSize)
	case !game.SpawnPolicy(c.SpawnPolicy).Valid():
		return errors.Errorf("unknown spawn policy %q", c.SpawnPolicy)
	case c.FoodCap < 0:
		return errors.Errorf("food cap must be >= 0, got %d", c.FoodCap)
	case c.FoodMaxSize < 1:
		return errors.Errorf("food max size must be >= 1, got %d", c.FoodMaxSize)
	}
	return nil
}

// NewWorld 按配置创建世界
func (c Config) NewWorld() *game.World {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return game.NewWorld(c.GridSize,
		game.WithRand(rand.New(rand.NewSource(seed))),
		game.WithSpawnPolicy(game.SpawnPolicy(c.SpawnPolicy)),
		game.WithFoodCap(c.FoodCap),
		game.WithFoodMaxSize(c.FoodMaxSize),
	)
}

// LogOptions 日志相关配置
func (c Config) LogOptions() LogOptions {
	return LogOptions{File: c.LogFile, Level: c.LogLevel, Stdout: c.LogStdout}
}
