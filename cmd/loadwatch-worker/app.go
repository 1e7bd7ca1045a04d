package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dkchapman16/loadwatch/config"
	"github.com/dkchapman16/loadwatch/internal/broker/kafka"
	"github.com/dkchapman16/loadwatch/internal/cache"
	"github.com/dkchapman16/loadwatch/internal/cache/rediscache"
	"github.com/dkchapman16/loadwatch/internal/integrations/datatruck"
	dtfake "github.com/dkchapman16/loadwatch/internal/integrations/datatruck/fake"
	"github.com/dkchapman16/loadwatch/internal/services/loads"
	"github.com/dkchapman16/loadwatch/internal/services/poller"
	"github.com/dkchapman16/loadwatch/internal/storage/pgstore"
)

type workerFactories struct {
	newStorage     func(cfg *config.Config) (settings poller.SettingsSource, closeFn func(), err error)
	newCache       func(cfg *config.Config) cache.BytesCache
	newProducer    func(cfg *config.Config) poller.Producer
	newRateLimiter func(cfg *config.Config) poller.RateLimiter
	newFetcher     func(cfg *config.Config) datatruck.Fetcher
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (poller.SettingsSource, func(), error) {
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgstore.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newCache: func(cfg *config.Config) cache.BytesCache {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.New(redisAddr)
		},
		newProducer: func(cfg *config.Config) poller.Producer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
		newRateLimiter: func(cfg *config.Config) poller.RateLimiter {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
		newFetcher: func(cfg *config.Config) datatruck.Fetcher {
			// Клиент сам отличает "не настроено" от сетевых ошибок,
			// подмену на fallback делает loads.Service.
			return datatruck.New(cfg.Datatruck.APIEndpoint, cfg.Datatruck.APIKey)
		},
	}
}

func plannerConfigFrom(cfg *config.Config) poller.PlannerConfig {
	lw := cfg.Loadwatch
	return poller.PlannerConfig{
		AtRiskDelay:  time.Duration(lw.WorkerNextPollAtRiskSeconds) * time.Second,
		WatchDelay:   time.Duration(lw.WorkerNextPollWatchSeconds) * time.Second,
		DefaultDelay: time.Duration(lw.WorkerPollIntervalSeconds) * time.Second,

		Backoff1: time.Duration(lw.WorkerBackoff1Seconds) * time.Second,
		Backoff2: time.Duration(lw.WorkerBackoff2Seconds) * time.Second,
		Backoff3: time.Duration(lw.WorkerBackoff3Seconds) * time.Second,
		Backoff4: time.Duration(lw.WorkerBackoff4Seconds) * time.Second,
	}
}

func RunLoadwatchWorker(ctx context.Context, cfg *config.Config, f workerFactories) error {
	topic := cfg.Kafka.SnapshotUpdatedTopicName
	if topic == "" {
		topic = "load.snapshot_updated"
	}

	snapshotTTL := time.Duration(cfg.Loadwatch.SnapshotTTLSeconds) * time.Second
	if snapshotTTL <= 0 {
		snapshotTTL = 5 * time.Minute
	}

	settings, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	loadsSvc := loads.New(f.newFetcher(cfg), dtfake.New(), f.newCache(cfg), snapshotTTL)

	p := poller.New(loadsSvc, settings, f.newProducer(cfg), f.newRateLimiter(cfg), topic).
		WithPlanner(plannerConfigFrom(cfg))

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr: cfg.Loadwatch.WorkerHTTPAddr,
			poller:   p,
			cfg:      cfg,
		})
	}()

	pollErr := make(chan error, 1)
	go func() {
		pollErr <- p.Run(ctx)
	}()

	select {
	case err := <-pollErr:
		return err
	case err := <-httpErr:
		return err
	}
}
