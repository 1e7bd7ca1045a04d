package loads

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/dkchapman16/loadwatch/internal/broker/messages"
	"github.com/dkchapman16/loadwatch/internal/cache"
	"github.com/dkchapman16/loadwatch/internal/integrations/datatruck"
	"github.com/dkchapman16/loadwatch/internal/models"
)

const snapshotKey = "loads:snapshot"

// ErrNotFound возвращается GetLoad, когда перевозки нет в текущем снапшоте.
var ErrNotFound = errors.New("load not found")

// Service отвечает за текущий снапшот перевозок. Живой фетч никогда не
// отдаёт ошибку наружу: любая проблема деградирует до fallback-набора.
type Service struct {
	fetcher  datatruck.Fetcher
	fallback datatruck.Fetcher
	cache    cache.BytesCache
	ttl      time.Duration
}

func New(fetcher, fallback datatruck.Fetcher, c cache.BytesCache, ttl time.Duration) *Service {
	return &Service{fetcher: fetcher, fallback: fallback, cache: c, ttl: ttl}
}

// GetLoads отдаёт кэшированный снапшот, при промахе — делает Refresh.
func (s *Service) GetLoads(ctx context.Context) ([]*models.Load, error) {
	if cached, ok := s.cachedSnapshot(ctx); ok {
		return cached, nil
	}
	snapshot, _, err := s.Refresh(ctx)
	return snapshot, err
}

// GetLoad ищет перевозку по каноническому id или по строковому dt_id:
// placeholder-данные используют простой id, живой API — числовой dt_id.
func (s *Service) GetLoad(ctx context.Context, id string) (*models.Load, error) {
	if id == "" {
		return nil, errors.New("id is required")
	}
	all, err := s.GetLoads(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range all {
		if l.ID == id || strconv.FormatInt(l.DtID, 10) == id {
			return l, nil
		}
	}
	return nil, ErrNotFound
}

// Refresh перечитывает upstream, кладёт новый снапшот в кэш и возвращает
// переходы risk-статусов относительно предыдущего снапшота.
// Ошибки фетча и пустой результат подменяются fallback-набором.
func (s *Service) Refresh(ctx context.Context) ([]*models.Load, []messages.RiskTransition, error) {
	prev, _ := s.cachedSnapshot(ctx)

	snapshot, err := s.fetcher.FetchLoads(ctx)
	switch {
	case errors.Is(err, datatruck.ErrNotConfigured):
		// Деградация по дизайну, не ошибка.
		slog.Info("datatruck not configured, serving fallback dataset")
		snapshot = nil
	case err != nil:
		slog.Error("datatruck fetch failed, serving fallback dataset", "error", err.Error())
		snapshot = nil
	case len(snapshot) == 0:
		// Пустой результат неотличим от проблемы фетча, подменяем тоже.
		slog.Warn("datatruck returned no loads, serving fallback dataset")
	}

	if len(snapshot) == 0 {
		fb, fbErr := s.fallback.FetchLoads(ctx)
		if fbErr != nil {
			return nil, nil, errors.Wrap(fbErr, "fallback dataset")
		}
		snapshot = fb
	}

	s.storeSnapshot(ctx, snapshot)
	return snapshot, diffRisk(prev, snapshot), nil
}

func (s *Service) cachedSnapshot(ctx context.Context) ([]*models.Load, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return nil, false
	}
	b, ok, err := s.cache.Get(ctx, snapshotKey)
	if err != nil || !ok {
		return nil, false
	}
	var snapshot []*models.Load
	if json.Unmarshal(b, &snapshot) != nil || len(snapshot) == 0 {
		return nil, false
	}
	return snapshot, true
}

func (s *Service) storeSnapshot(ctx context.Context, snapshot []*models.Load) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	b, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, snapshotKey, b, s.ttl); err != nil {
		slog.Warn("store loads snapshot", "error", err.Error())
	}
}

// diffRisk сравнивает снапшоты по id. Переход фиксируется, когда статус
// изменился или когда новая перевозка сразу пришла не в OK.
func diffRisk(prev, next []*models.Load) []messages.RiskTransition {
	prevStatus := make(map[string]string, len(prev))
	for _, l := range prev {
		prevStatus[l.ID] = l.LastStatus
	}

	var out []messages.RiskTransition
	for _, l := range next {
		old, seen := prevStatus[l.ID]
		if seen && old == l.LastStatus {
			continue
		}
		if !seen && l.LastStatus == models.RiskStatusOK {
			continue
		}
		out = append(out, messages.RiskTransition{
			LoadID:     l.ID,
			LoadRef:    l.LoadRef,
			PrevStatus: old,
			NewStatus:  l.LastStatus,
			Reason:     l.LastReason,
			EtaISO:     l.LastEtaISO,
		})
	}
	return out
}
