package poller

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/dkchapman16/loadwatch/internal/broker/messages"
	"github.com/dkchapman16/loadwatch/internal/cache/rediscache"
	"github.com/dkchapman16/loadwatch/internal/models"
)

type Snapshots interface {
	Refresh(ctx context.Context) ([]*models.Load, []messages.RiskTransition, error)
}

type SettingsSource interface {
	GetSettings(ctx context.Context) (models.GlobalSettings, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Poller периодически перечитывает снапшот Datatruck и публикует результат
// цикла в Kafka. Суточный лимит обращений к API держится в Redis.
type Poller struct {
	snaps    Snapshots
	settings SettingsSource
	producer Producer
	rl       RateLimiter

	topic string

	planner *Planner

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalCycles         atomic.Int64
	totalSkipped        atomic.Int64
	totalTransitions    atomic.Int64
	totalErrors         atomic.Int64
	failStreak          atomic.Int32
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(snaps Snapshots, settings SettingsSource, producer Producer, rl RateLimiter, topic string) *Poller {
	return &Poller{
		snaps:     snaps,
		settings:  settings,
		producer:  producer,
		rl:        rl,
		topic:     topic,
		planner:   DefaultPlanner(),
		triggerCh: make(chan struct{}, 1),

		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (p *Poller) WithPlanner(cfg PlannerConfig) *Poller {
	p.planner = NewPlanner(cfg)
	return p
}

// Trigger forces an immediate poll cycle (best-effort, non-blocking).
func (p *Poller) Trigger() {
	p.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt        time.Time  `json:"startedAt"`
	LastCycleAt      *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt    *time.Time `json:"lastTriggerAt,omitempty"`
	TotalCycles      int64      `json:"totalCycles"`
	TotalSkipped     int64      `json:"totalSkipped"`
	TotalTransitions int64      `json:"totalTransitions"`
	TotalErrors      int64      `json:"totalErrors"`
	LastError        string     `json:"lastError,omitempty"`
}

func (p *Poller) Stats() Stats {
	st := Stats{
		StartedAt:        time.Unix(0, p.startedAtUnixNano).UTC(),
		TotalCycles:      p.totalCycles.Load(),
		TotalSkipped:     p.totalSkipped.Load(),
		TotalTransitions: p.totalTransitions.Load(),
		TotalErrors:      p.totalErrors.Load(),
	}
	if n := p.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := p.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	p.lastErrorMu.Lock()
	st.LastError = p.lastError
	p.lastErrorMu.Unlock()
	return st
}

// Run крутит цикл до отмены контекста. Интервал между циклами не
// фиксированный: его считает планировщик по итогам прошедшего цикла.
func (p *Poller) Run(ctx context.Context) error {
	delay := p.runOnce(ctx)
	t := time.NewTimer(delay)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		case <-p.triggerCh:
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
		}
		t.Reset(p.runOnce(ctx))
	}
}

func (p *Poller) runOnce(ctx context.Context) time.Duration {
	now := time.Now().UTC()
	p.lastCycleUnixNano.Store(now.UnixNano())
	p.totalCycles.Add(1)

	settings, err := p.settings.GetSettings(ctx)
	if err != nil {
		slog.Warn("load settings, using defaults", "error", err.Error())
		settings = models.DefaultGlobalSettings()
	}

	defaultDelay := time.Duration(settings.PollIntervalMinDefault) * time.Minute
	if defaultDelay <= 0 {
		defaultDelay = p.planner.NextPollDelay(models.RiskStatusOK)
	}

	if p.rl != nil && settings.DailyAPICap > 0 {
		key := rediscache.DailyKey("datatruck", now)
		// Окно чуть больше суток, чтобы ключ дожил до конца дня в любой зоне.
		allowed, n, err := p.rl.Allow(ctx, key, int64(settings.DailyAPICap), 26*time.Hour)
		if err != nil {
			slog.Warn("daily cap check failed, proceeding", "error", err.Error())
		} else if !allowed {
			slog.Warn("daily api cap reached, skipping cycle", "count", n, "cap", settings.DailyAPICap)
			p.totalSkipped.Add(1)
			return defaultDelay
		}
	}

	snapshot, transitions, err := p.snaps.Refresh(ctx)
	if err != nil {
		p.recordError(err)
		nextFail := p.failStreak.Add(1)
		return p.planner.BackoffDelay(nextFail)
	}
	p.failStreak.Store(0)
	p.totalTransitions.Add(int64(len(transitions)))

	if err := p.publish(ctx, now, snapshot, transitions); err != nil {
		p.recordError(err)
	}

	if len(transitions) > 0 {
		slog.Info("poll cycle complete", "loads", len(snapshot), "transitions", len(transitions))
	}

	worst := WorstStatus(snapshot)
	if worst == models.RiskStatusOK {
		return defaultDelay
	}
	return p.planner.NextPollDelay(worst)
}

func (p *Poller) publish(ctx context.Context, now time.Time, snapshot []*models.Load, transitions []messages.RiskTransition) error {
	if p.producer == nil {
		return nil
	}

	msg := messages.SnapshotUpdated{
		CheckedAt:   now,
		LoadCount:   len(snapshot),
		Transitions: transitions,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal kafka msg")
	}

	// Kafka может быть не готова сразу после старта docker compose.
	// Для устойчивости делаем небольшой retry.
	var pubErr error
	for i := 0; i < 10; i++ {
		if err := p.producer.Publish(ctx, p.topic, []byte(now.Format(time.RFC3339)), b); err == nil {
			return nil
		} else {
			pubErr = err
			time.Sleep(time.Duration(150*(i+1)) * time.Millisecond)
		}
	}
	return pubErr
}

func (p *Poller) recordError(err error) {
	p.totalErrors.Add(1)
	p.lastErrorMu.Lock()
	p.lastError = err.Error()
	p.lastErrorMu.Unlock()
	slog.Error("poll cycle", "error", err.Error())
}
