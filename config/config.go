package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Log         LogConfig      `mapstructure:"log"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Stream      StreamConfig   `mapstructure:"stream"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// StreamConfig holds the replay tunables. Every field can be overridden
// per deployment; env var names follow the section path, e.g.
// STREAM_POLL_INTERVAL or STREAM_MAX_BATCH_SIZE.
type StreamConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`      // wait between fetches once caught up
	BatchSize        int           `mapstructure:"batch_size"`         // default fetch page size
	MaxBatchSize     int           `mapstructure:"max_batch_size"`     // ceiling for client-requested page sizes
	MinEmitDelayMs   float64       `mapstructure:"min_emit_delay_ms"`  // clamp very small gaps
	MaxEmitDelayMs   float64       `mapstructure:"max_emit_delay_ms"`  // cap so replay stays snappy
	BaseDelayMs      float64       `mapstructure:"base_delay_ms"`      // baseline delay for a reference-delta gap at 1x
	ReferenceDeltaMs float64       `mapstructure:"reference_delta_ms"` // gap that maps onto the base delay
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	setDefaults(v)

	// Support environment variables with dot notation (e.g., STREAM_BATCH_SIZE)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Defaults plus env vars form a complete configuration; only a
		// malformed file is fatal.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			log.Fatalf("failed to read config: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("stream.poll_interval", 500*time.Millisecond)
	v.SetDefault("stream.batch_size", 500)
	v.SetDefault("stream.max_batch_size", 2000)
	v.SetDefault("stream.min_emit_delay_ms", 1.0)
	v.SetDefault("stream.max_emit_delay_ms", 250.0)
	v.SetDefault("stream.base_delay_ms", 400.0)
	v.SetDefault("stream.reference_delta_ms", float64(15*60*1000))

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
}
