package poller

import (
	"time"

	"github.com/dkchapman16/loadwatch/internal/models"
)

type PlannerConfig struct {
	AtRiskDelay  time.Duration // default: 5 minutes
	WatchDelay   time.Duration // default: 10 minutes
	DefaultDelay time.Duration // default: 15 minutes (settings pollIntervalMinDefault)

	Backoff1 time.Duration // default: 5 minutes
	Backoff2 time.Duration // default: 15 minutes
	Backoff3 time.Duration // default: 30 minutes
	Backoff4 time.Duration // default: 60 minutes
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		AtRiskDelay:  5 * time.Minute,
		WatchDelay:   10 * time.Minute,
		DefaultDelay: 15 * time.Minute,

		Backoff1: 5 * time.Minute,
		Backoff2: 15 * time.Minute,
		Backoff3: 30 * time.Minute,
		Backoff4: 60 * time.Minute,
	}
}

type Planner struct {
	cfg PlannerConfig
}

func NewPlanner(cfg PlannerConfig) *Planner {
	def := DefaultPlannerConfig()
	if cfg.AtRiskDelay <= 0 {
		cfg.AtRiskDelay = def.AtRiskDelay
	}
	if cfg.WatchDelay <= 0 {
		cfg.WatchDelay = def.WatchDelay
	}
	if cfg.DefaultDelay <= 0 {
		cfg.DefaultDelay = def.DefaultDelay
	}
	if cfg.Backoff1 <= 0 {
		cfg.Backoff1 = def.Backoff1
	}
	if cfg.Backoff2 <= 0 {
		cfg.Backoff2 = def.Backoff2
	}
	if cfg.Backoff3 <= 0 {
		cfg.Backoff3 = def.Backoff3
	}
	if cfg.Backoff4 <= 0 {
		cfg.Backoff4 = def.Backoff4
	}
	return &Planner{cfg: cfg}
}

func DefaultPlanner() *Planner {
	return NewPlanner(DefaultPlannerConfig())
}

// NextPollDelay сокращает интервал опроса, когда в снапшоте есть риск:
// AT_RISK опрашиваем чаще, чем WATCH, чем полностью зелёный снапшот.
func (p *Planner) NextPollDelay(worstStatus string) time.Duration {
	switch worstStatus {
	case models.RiskStatusAtRisk:
		return p.cfg.AtRiskDelay
	case models.RiskStatusWatch:
		return p.cfg.WatchDelay
	default:
		return p.cfg.DefaultDelay
	}
}

func (p *Planner) BackoffDelay(nextFailCount int32) time.Duration {
	switch {
	case nextFailCount <= 1:
		return p.cfg.Backoff1
	case nextFailCount == 2:
		return p.cfg.Backoff2
	case nextFailCount == 3:
		return p.cfg.Backoff3
	default:
		return p.cfg.Backoff4
	}
}

// WorstStatus: AT_RISK > WATCH > OK.
func WorstStatus(loads []*models.Load) string {
	worst := models.RiskStatusOK
	for _, l := range loads {
		switch l.LastStatus {
		case models.RiskStatusAtRisk:
			return models.RiskStatusAtRisk
		case models.RiskStatusWatch:
			worst = models.RiskStatusWatch
		}
	}
	return worst
}
