package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sakashimaa/etech-storefront/pkg/utils"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	LogLevel string   `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTP     HTTP     `yaml:"http"`
	Backend  Backend  `yaml:"backend"`
	Cache    Cache    `yaml:"cache"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Tracing  Tracing  `yaml:"tracing"`
	Sessions Sessions `yaml:"sessions"`
	Limiter  Limiter  `yaml:"limiter"`
	Reports  Reports  `yaml:"reports"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3000"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type Backend struct {
	BaseURL string        `yaml:"base_url" env:"BACKEND_URL" env-default:"http://localhost:8080/api"`
	Timeout time.Duration `yaml:"timeout" env:"BACKEND_TIMEOUT" env-default:"5s"`
}

type Cache struct {
	ProductsTTL   time.Duration `yaml:"products_ttl" env:"CACHE_PRODUCTS_TTL" env-default:"5m"`
	CategoriesTTL time.Duration `yaml:"categories_ttl" env:"CACHE_CATEGORIES_TTL" env-default:"10m"`
	BrandsTTL     time.Duration `yaml:"brands_ttl" env:"CACHE_BRANDS_TTL" env-default:"10m"`
}

type Redis struct {
	Addr    string `yaml:"addr" env:"REDIS_ADDR"`
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
}

type Kafka struct {
	Brokers       []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	EventsTopic   string   `yaml:"events_topic" env:"KAFKA_EVENTS_TOPIC" env-default:"storefront_events"`
	ProductsTopic string   `yaml:"products_topic" env:"KAFKA_PRODUCTS_TOPIC" env-default:"product_events"`
	GroupID       string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"storefront"`
}

type Tracing struct {
	Enabled     bool    `yaml:"enabled" env:"TRACING_ENABLED" env-default:"false"`
	ServiceName string  `yaml:"service_name" env:"TRACING_SERVICE_NAME" env-default:"storefront-bff"`
	Endpoint    string  `yaml:"endpoint" env:"TRACING_ENDPOINT" env-default:"localhost:4318"`
	SampleRatio float64 `yaml:"sample_ratio" env:"TRACING_SAMPLE_RATIO" env-default:"1"`
	Insecure    bool    `yaml:"insecure" env:"TRACING_INSECURE" env-default:"true"`
}

type Sessions struct {
	IdleTTL       time.Duration `yaml:"idle_ttl" env:"SESSION_IDLE_TTL" env-default:"30m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SESSION_SWEEP_INTERVAL" env-default:"1m"`
	CredentialTTL time.Duration `yaml:"credential_ttl" env:"SESSION_CREDENTIAL_TTL" env-default:"720h"`
}

type Limiter struct {
	Max        int           `yaml:"max" env-default:"20"`
	Expiration time.Duration `yaml:"expiration" env-default:"5s"`
}

type Reports struct {
	Timezone string `yaml:"timezone" env:"REPORTS_TIMEZONE" env-default:"Asia/Bangkok"`
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exists: %v\n", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}

// Load reads configuration from the environment only, for processes started without a config file.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
