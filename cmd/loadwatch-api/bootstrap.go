package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dkchapman16/loadwatch/config"
	loadsapi "github.com/dkchapman16/loadwatch/internal/api/loads_api"
	"github.com/dkchapman16/loadwatch/internal/broker/kafka"
	"github.com/dkchapman16/loadwatch/internal/cache/rediscache"
	"github.com/dkchapman16/loadwatch/internal/integrations/datatruck"
	dtfake "github.com/dkchapman16/loadwatch/internal/integrations/datatruck/fake"
	"github.com/dkchapman16/loadwatch/internal/integrations/notifygen"
	genfake "github.com/dkchapman16/loadwatch/internal/integrations/notifygen/fake"
	"github.com/dkchapman16/loadwatch/internal/services/alerts"
	"github.com/dkchapman16/loadwatch/internal/services/loads"
	"github.com/dkchapman16/loadwatch/internal/storage/pgstore"
)

type loadwatchAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     loadwatchAPIOpts
	api      *loadsapi.LoadsAPI
	alerts   *alerts.Service
	consumer *kafka.Consumer
	closeDB  func()
}

func mustBootstrapLoadwatchAPI() *loadwatchAPIApp {
	// .env удобен при локальном запуске; в docker окружение приходит извне.
	_ = godotenv.Load()

	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.Loadwatch.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.Loadwatch.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "loadwatch-api"
	}
	topic := cfg.Kafka.SnapshotUpdatedTopicName
	if topic == "" {
		topic = "load.snapshot_updated"
	}

	snapshotTTL := time.Duration(cfg.Loadwatch.SnapshotTTLSeconds) * time.Second
	if snapshotTTL <= 0 {
		snapshotTTL = 5 * time.Minute
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)

	fetcher := datatruck.New(cfg.Datatruck.APIEndpoint, cfg.Datatruck.APIKey)
	loadsSvc := loads.New(fetcher, dtfake.New(), rc, snapshotTTL)

	// Без настроенного генератора работаем на локальном fake.
	var gen notifygen.Generator = genfake.New()
	if cfg.Datatruck.GenEndpoint != "" {
		gen = notifygen.NewClient(cfg.Datatruck.GenEndpoint, cfg.Datatruck.GenAPIKey)
	}
	alertsSvc := alerts.New(st, gen, cfg.Loadwatch.DispatcherPhone, cfg.Loadwatch.AlertOwnerPhone, cfg.Loadwatch.AckBaseURL)

	api := loadsapi.New(loadsSvc, alertsSvc, st)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &loadwatchAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: loadwatchAPIOpts{
			httpAddr:      httpAddr,
			swaggerPath:   os.Getenv("swaggerPath"),
			topic:         topic,
			consumerGroup: consumerGroup,
		},
		api:      api,
		alerts:   alertsSvc,
		consumer: consumer,
		closeDB:  st.Close,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgstore.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgstore.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *loadwatchAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *loadwatchAPIApp) Run() error {
	return runLoadwatchAPI(a.ctx, a.opts, a.api, a.alerts, a.consumer)
}
