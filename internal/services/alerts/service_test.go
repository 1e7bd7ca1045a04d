package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/dkchapman16/loadwatch/internal/broker/messages"
	genfake "github.com/dkchapman16/loadwatch/internal/integrations/notifygen/fake"
	"github.com/dkchapman16/loadwatch/internal/models"
)

type fakeStore struct {
	acks      []*models.Ack
	ackErr    error
	recorded  []models.Alert
	recordErr error
}

func (f *fakeStore) CreateAck(ctx context.Context, loadID string) (*models.Ack, error) {
	if f.ackErr != nil {
		return nil, f.ackErr
	}
	a := &models.Ack{AckKey: "ack-1", LoadID: loadID, CreatedAt: time.Now().UTC()}
	f.acks = append(f.acks, a)
	return a, nil
}

func (f *fakeStore) Acknowledge(ctx context.Context, ackKey, by string) (*models.Ack, error) {
	now := time.Now().UTC()
	return &models.Ack{AckKey: ackKey, AcknowledgedBy: by, AcknowledgedAt: &now}, nil
}

func (f *fakeStore) RecordAlerts(ctx context.Context, alerts []models.Alert) error {
	f.recorded = append(f.recorded, alerts...)
	return f.recordErr
}

func (f *fakeStore) ListRecentAlerts(ctx context.Context, limit int) ([]*models.Alert, error) {
	return nil, nil
}

func atRiskLoad() *models.Load {
	return &models.Load{
		ID:           "L-1",
		LoadRef:      "REF-4821",
		DeliveryCity: "San Antonio",
		DeliveryState: "TX",
		DriverName:   "Mike Rowland",
		DriverPhone:  "+15125550117",
		LastStatus:   models.RiskStatusAtRisk,
		LastReason:   "detention",
	}
}

func quietSettings(allowNight bool) models.GlobalSettings {
	s := models.DefaultGlobalSettings()
	s.TimezoneDefault = "UTC"
	s.QuietHoursStart = 22
	s.QuietHoursEnd = 6
	s.AllowNightCalls = allowNight
	return s
}

func TestNotify_VoiceGatedInQuietHours(t *testing.T) {
	gen := genfake.New() // предлагает sms+voice
	svc := New(&fakeStore{}, gen, "+1000", "+2000", "http://lw.local/ack")

	night := time.Date(2025, 5, 1, 23, 0, 0, 0, time.UTC)
	out, err := svc.Notify(context.Background(), atRiskLoad(), quietSettings(false), night)
	require.NoError(t, err)

	// sendVoice гасится политикой, sendSms проходит как есть.
	require.False(t, out.SendVoice)
	require.True(t, out.SendSms)
	require.True(t, out.EscalateToOwner)
	require.Equal(t, "ack-1", out.AckKey)
	require.NotEmpty(t, out.Message)

	require.NotNil(t, gen.LastRequest)
	require.Equal(t, 23, gen.LastRequest.CurrentHour)
	require.Equal(t, "REF-4821", gen.LastRequest.LoadRef)
	require.Equal(t, "http://lw.local/ack/ack-1", gen.LastRequest.AckURL)
}

func TestNotify_NightCallsAllowed(t *testing.T) {
	gen := genfake.New()
	svc := New(&fakeStore{}, gen, "+1000", "+2000", "")

	night := time.Date(2025, 5, 1, 23, 0, 0, 0, time.UTC)
	out, err := svc.Notify(context.Background(), atRiskLoad(), quietSettings(true), night)
	require.NoError(t, err)
	require.True(t, out.SendVoice)
	require.False(t, out.EscalateToOwner)
}

func TestNotify_DaytimeNoEscalation(t *testing.T) {
	gen := genfake.New()
	svc := New(&fakeStore{}, gen, "+1000", "+2000", "")

	noon := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	out, err := svc.Notify(context.Background(), atRiskLoad(), quietSettings(false), noon)
	require.NoError(t, err)
	require.True(t, out.SendVoice)
	require.False(t, out.EscalateToOwner)
}

func TestNotify_IgnoresProposedEscalation(t *testing.T) {
	gen := genfake.New()
	gen.EscalateToOwner = true // модель предлагает эскалацию днём
	svc := New(&fakeStore{}, gen, "+1000", "+2000", "")

	noon := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	out, err := svc.Notify(context.Background(), atRiskLoad(), quietSettings(false), noon)
	require.NoError(t, err)
	require.False(t, out.EscalateToOwner)
}

func TestNotify_EmptyGenerationResult(t *testing.T) {
	gen := genfake.New()
	gen.Empty = true
	svc := New(&fakeStore{}, gen, "", "", "")

	_, err := svc.Notify(context.Background(), atRiskLoad(), quietSettings(false), time.Now().UTC())
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty generation result")
}

func TestNotify_GeneratorError(t *testing.T) {
	gen := genfake.New()
	gen.Err = errors.New("backend down")
	svc := New(&fakeStore{}, gen, "", "", "")

	_, err := svc.Notify(context.Background(), atRiskLoad(), quietSettings(false), time.Now().UTC())
	require.Error(t, err)
}

func TestNotify_CustomerBufferOverride(t *testing.T) {
	gen := genfake.New()
	svc := New(&fakeStore{}, gen, "", "", "")

	settings := quietSettings(false)
	settings.DefaultBufferMin = 30
	settings.CustomerBuffers = map[string]int{"REF-4821": 45}

	_, err := svc.Notify(context.Background(), atRiskLoad(), settings, time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 45, gen.LastRequest.BufferMin)
}

func TestApplySnapshotUpdate(t *testing.T) {
	st := &fakeStore{}
	svc := New(st, genfake.New(), "", "", "")

	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	err := svc.ApplySnapshotUpdate(context.Background(), messages.SnapshotUpdated{
		CheckedAt: at,
		Transitions: []messages.RiskTransition{
			{LoadID: "L-1", LoadRef: "R1", PrevStatus: "OK", NewStatus: "AT_RISK", Reason: "detention"},
			{LoadID: "", NewStatus: "WATCH"}, // пропускается
		},
	})
	require.NoError(t, err)
	require.Len(t, st.recorded, 1)
	require.Equal(t, "L-1", st.recorded[0].LoadID)
	require.Equal(t, at, st.recorded[0].CreatedAt)
}

func TestAcknowledge_Validation(t *testing.T) {
	svc := New(&fakeStore{}, genfake.New(), "", "", "")

	_, err := svc.Acknowledge(context.Background(), "", "driver")
	require.Error(t, err)

	_, err = svc.Acknowledge(context.Background(), "k", "owner")
	require.Error(t, err)

	ack, err := svc.Acknowledge(context.Background(), "k", "dispatcher")
	require.NoError(t, err)
	require.Equal(t, "dispatcher", ack.AcknowledgedBy)
}
