package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/utils"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	HTTP       HTTP       `yaml:"http"`
	Postgres   PG         `yaml:"postgres"`
	Kafka      Kafka      `yaml:"kafka"`
	Inventory  Inventory  `yaml:"inventory"`
	Reconciler Reconciler `yaml:"reconciler"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":8080"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	GroupID string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"order-service"`
}

type Inventory struct {
	URL     string        `yaml:"url" env:"INVENTORY_URL" env-default:"http://localhost:8081"`
	Timeout time.Duration `yaml:"timeout" env:"INVENTORY_TIMEOUT" env-default:"3s"`
}

// Reconciler bounds the retry budget for inventory decrements that failed
// after the order was already persisted.
type Reconciler struct {
	Interval    time.Duration `yaml:"interval" env:"RECONCILER_INTERVAL" env-default:"1s"`
	BatchSize   int           `yaml:"batch_size" env:"RECONCILER_BATCH_SIZE" env-default:"50"`
	MaxAttempts int           `yaml:"max_attempts" env:"RECONCILER_MAX_ATTEMPTS" env-default:"10"`
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	var cfg Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("error reading config from env: %v", err)
		}
		return &cfg
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
