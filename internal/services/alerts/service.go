package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/dkchapman16/loadwatch/internal/broker/messages"
	"github.com/dkchapman16/loadwatch/internal/integrations/notifygen"
	"github.com/dkchapman16/loadwatch/internal/models"
)

type Store interface {
	CreateAck(ctx context.Context, loadID string) (*models.Ack, error)
	Acknowledge(ctx context.Context, ackKey, by string) (*models.Ack, error)
	RecordAlerts(ctx context.Context, alerts []models.Alert) error
	ListRecentAlerts(ctx context.Context, limit int) ([]*models.Alert, error)
}

// Outcome — финальное решение по уведомлению: текст от генератора, каналы
// после гейтинга, эскалация пересчитана локальной политикой.
type Outcome struct {
	Message         string `json:"message"`
	SendSms         bool   `json:"sendSms"`
	SendVoice       bool   `json:"sendVoice"`
	EscalateToOwner bool   `json:"escalateToOwner"`
	AckKey          string `json:"ackKey"`
}

type Service struct {
	store Store
	gen   notifygen.Generator

	dispatcherPhone string
	ownerPhone      string
	ackBaseURL      string
}

func New(store Store, gen notifygen.Generator, dispatcherPhone, ownerPhone, ackBaseURL string) *Service {
	if ackBaseURL == "" {
		ackBaseURL = "http://localhost:8080/ack"
	}
	return &Service{
		store:           store,
		gen:             gen,
		dispatcherPhone: dispatcherPhone,
		ownerPhone:      ownerPhone,
		ackBaseURL:      ackBaseURL,
	}
}

// Notify запрашивает текст у генератора и применяет политику каналов.
// Предложенный генератором sendVoice гасится, если звонок не разрешён;
// sendSms проходит без изменений; эскалация считается только локально.
func (s *Service) Notify(ctx context.Context, load *models.Load, settings models.GlobalSettings, now time.Time) (*Outcome, error) {
	if load == nil {
		return nil, errors.New("load is required")
	}

	loc, err := time.LoadLocation(settings.TimezoneDefault)
	if err != nil {
		slog.Warn("unknown timezone, falling back to UTC", "tz", settings.TimezoneDefault)
		loc = time.UTC
	}
	hour := now.In(loc).Hour()

	d := Evaluate(hour, settings.QuietHoursStart, settings.QuietHoursEnd, settings.AllowNightCalls, load.LastStatus)

	ack, err := s.store.CreateAck(ctx, load.ID)
	if err != nil {
		return nil, errors.Wrap(err, "create ack")
	}

	buffer := settings.DefaultBufferMin
	if v, ok := settings.CustomerBuffers[load.LoadRef]; ok {
		buffer = v
	}

	req := notifygen.Request{
		LoadRef:         load.LoadRef,
		DeliveryCity:    load.DeliveryCity,
		DeliveryState:   load.DeliveryState,
		ApptLocal:       localClock(load.DeliveryAppointment, loc),
		EtaLocal:        localClock(load.LastEtaISO, loc),
		Reason:          load.LastReason,
		BufferMin:       buffer,
		AckURL:          fmt.Sprintf("%s/%s", s.ackBaseURL, ack.AckKey),
		DriverPhone:     load.DriverPhone,
		DispatcherPhone: s.dispatcherPhone,
		QuietHoursStart: settings.QuietHoursStart,
		QuietHoursEnd:   settings.QuietHoursEnd,
		AllowNightCalls: settings.AllowNightCalls,
		AlertOwnerPhone: s.ownerPhone,
		CurrentHour:     hour,
		DriverName:      load.DriverName,
		Status:          load.LastStatus,
	}

	res, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "generate notification")
	}
	if res == nil {
		return nil, errors.New("empty generation result")
	}

	return &Outcome{
		Message:         res.Message,
		SendSms:         res.SendSms,
		SendVoice:       d.VoiceAllowed && res.SendVoice,
		EscalateToOwner: d.EscalateToOwner,
		AckKey:          ack.AckKey,
	}, nil
}

// ApplySnapshotUpdate фиксирует переходы risk-статусов из kafka-сообщения
// воркера в журнале алертов.
func (s *Service) ApplySnapshotUpdate(ctx context.Context, msg messages.SnapshotUpdated) error {
	if len(msg.Transitions) == 0 {
		return nil
	}
	at := msg.CheckedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	alerts := make([]models.Alert, 0, len(msg.Transitions))
	for _, tr := range msg.Transitions {
		if tr.LoadID == "" || tr.NewStatus == "" {
			continue
		}
		alerts = append(alerts, models.Alert{
			LoadID:     tr.LoadID,
			LoadRef:    tr.LoadRef,
			PrevStatus: tr.PrevStatus,
			NewStatus:  tr.NewStatus,
			Reason:     tr.Reason,
			EtaISO:     tr.EtaISO,
			CreatedAt:  at,
		})
	}
	if len(alerts) == 0 {
		return nil
	}
	return s.store.RecordAlerts(ctx, alerts)
}

func (s *Service) Acknowledge(ctx context.Context, ackKey, by string) (*models.Ack, error) {
	if ackKey == "" {
		return nil, errors.New("ackKey is required")
	}
	if by != "driver" && by != "dispatcher" {
		return nil, errors.New("acknowledgedBy must be driver or dispatcher")
	}
	return s.store.Acknowledge(ctx, ackKey, by)
}

func (s *Service) ListRecentAlerts(ctx context.Context, limit int) ([]*models.Alert, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.store.ListRecentAlerts(ctx, limit)
}

// localClock показывает ISO-метку как HH:MM в локальной таймзоне настроек.
// Неразборчивую метку отдаём как есть: для текста это лучше, чем пусто.
func localClock(iso string, loc *time.Location) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.In(loc).Format("15:04")
}
