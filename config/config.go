package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Datatruck DatatruckConfig `yaml:"datatruck"`
	Loadwatch LoadwatchConfig `yaml:"loadwatch"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	SnapshotUpdatedTopicName string `yaml:"snapshot_updated_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatatruckConfig — доступ к upstream API. Endpoint/APIKey обычно приходят
// из окружения (.env), yaml-значения служат дефолтом для docker compose.
type DatatruckConfig struct {
	APIEndpoint string `yaml:"api_endpoint"`
	APIKey      string `yaml:"api_key"`
	GenEndpoint string `yaml:"gen_endpoint"`
	GenAPIKey   string `yaml:"gen_api_key"`
}

type LoadwatchConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`
	SnapshotTTLSeconds int    `yaml:"snapshot_ttl_seconds"`

	DispatcherPhone string `yaml:"dispatcher_phone"`
	AlertOwnerPhone string `yaml:"alert_owner_phone"`
	AckBaseURL      string `yaml:"ack_base_url"`

	WorkerHTTPAddr            string `yaml:"worker_http_addr"`
	WorkerPollIntervalSeconds int    `yaml:"worker_poll_interval_seconds"`

	// Poll scheduling (optional). If not set, defaults are "prod-like":
	// AT_RISK: 5 minutes, WATCH: 10 minutes, OK: settings default, backoff: 5/15/30/60 minutes.
	WorkerNextPollAtRiskSeconds int `yaml:"worker_next_poll_at_risk_seconds"`
	WorkerNextPollWatchSeconds  int `yaml:"worker_next_poll_watch_seconds"`
	WorkerBackoff1Seconds       int `yaml:"worker_backoff_1_seconds"`
	WorkerBackoff2Seconds       int `yaml:"worker_backoff_2_seconds"`
	WorkerBackoff3Seconds       int `yaml:"worker_backoff_3_seconds"`
	WorkerBackoff4Seconds       int `yaml:"worker_backoff_4_seconds"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	// Окружение всегда выигрывает у yaml: так креды не попадают в конфиги.
	if v := os.Getenv("DATATRUCK_API_ENDPOINT"); v != "" {
		config.Datatruck.APIEndpoint = v
	}
	if v := os.Getenv("DATATRUCK_API_KEY"); v != "" {
		config.Datatruck.APIKey = v
	}
	if v := os.Getenv("NOTIFYGEN_ENDPOINT"); v != "" {
		config.Datatruck.GenEndpoint = v
	}
	if v := os.Getenv("NOTIFYGEN_API_KEY"); v != "" {
		config.Datatruck.GenAPIKey = v
	}

	return &config, nil
}
