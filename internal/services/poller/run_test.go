package poller

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/dkchapman16/loadwatch/internal/broker/messages"
	"github.com/dkchapman16/loadwatch/internal/models"
)

type fakeSnaps struct {
	calls       int
	loads       []*models.Load
	transitions []messages.RiskTransition
	err         error
}

func (f *fakeSnaps) Refresh(ctx context.Context) ([]*models.Load, []messages.RiskTransition, error) {
	f.calls++
	return f.loads, f.transitions, f.err
}

type fakeSettings struct {
	s   models.GlobalSettings
	err error
}

func (f *fakeSettings) GetSettings(ctx context.Context) (models.GlobalSettings, error) {
	return f.s, f.err
}

type capturingProducer struct {
	topics []string
	values [][]byte
	err    error
}

func (p *capturingProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	p.topics = append(p.topics, topic)
	p.values = append(p.values, value)
	return p.err
}

type fixedLimiter struct {
	allowed bool
	count   int64
}

func (l *fixedLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	l.count++
	return l.allowed, l.count, nil
}

func settingsFixture() models.GlobalSettings {
	s := models.DefaultGlobalSettings()
	s.PollIntervalMinDefault = 15
	s.DailyAPICap = 100
	return s
}

func TestPoller_RunOnce_PublishesTransitions(t *testing.T) {
	snaps := &fakeSnaps{
		loads: []*models.Load{{ID: "L-1", LastStatus: "AT_RISK"}},
		transitions: []messages.RiskTransition{
			{LoadID: "L-1", PrevStatus: "OK", NewStatus: "AT_RISK"},
		},
	}
	prod := &capturingProducer{}
	p := New(snaps, &fakeSettings{s: settingsFixture()}, prod, &fixedLimiter{allowed: true}, "load.snapshot_updated")

	delay := p.runOnce(context.Background())
	require.Equal(t, 1, snaps.calls)
	require.Len(t, prod.values, 1)
	require.Equal(t, "load.snapshot_updated", prod.topics[0])

	var msg messages.SnapshotUpdated
	require.NoError(t, json.Unmarshal(prod.values[0], &msg))
	require.Equal(t, 1, msg.LoadCount)
	require.Len(t, msg.Transitions, 1)

	// AT_RISK в снапшоте ускоряет следующий цикл.
	require.Equal(t, 5*time.Minute, delay)
	require.Equal(t, int64(1), p.Stats().TotalTransitions)
}

func TestPoller_RunOnce_GreenSnapshotUsesSettingsInterval(t *testing.T) {
	snaps := &fakeSnaps{loads: []*models.Load{{ID: "L-1", LastStatus: "OK"}}}
	s := settingsFixture()
	s.PollIntervalMinDefault = 7
	p := New(snaps, &fakeSettings{s: s}, &capturingProducer{}, nil, "t")

	require.Equal(t, 7*time.Minute, p.runOnce(context.Background()))
}

func TestPoller_RunOnce_DailyCapSkipsCycle(t *testing.T) {
	snaps := &fakeSnaps{}
	p := New(snaps, &fakeSettings{s: settingsFixture()}, &capturingProducer{}, &fixedLimiter{allowed: false}, "t")

	p.runOnce(context.Background())
	require.Zero(t, snaps.calls)
	require.Equal(t, int64(1), p.Stats().TotalSkipped)
}

func TestPoller_RunOnce_BackoffOnRefreshError(t *testing.T) {
	snaps := &fakeSnaps{err: errors.New("fallback dataset: boom")}
	p := New(snaps, &fakeSettings{s: settingsFixture()}, &capturingProducer{}, nil, "t")

	require.Equal(t, 5*time.Minute, p.runOnce(context.Background()))
	require.Equal(t, 15*time.Minute, p.runOnce(context.Background()))
	require.Equal(t, 30*time.Minute, p.runOnce(context.Background()))
	require.Equal(t, 60*time.Minute, p.runOnce(context.Background()))
	require.Equal(t, 60*time.Minute, p.runOnce(context.Background()))

	st := p.Stats()
	require.Equal(t, int64(5), st.TotalErrors)
	require.Contains(t, st.LastError, "boom")
}

func TestPoller_Run_StopsOnContextCancel(t *testing.T) {
	snaps := &fakeSnaps{loads: []*models.Load{{ID: "L-1", LastStatus: "OK"}}}
	s := settingsFixture()
	p := New(snaps, &fakeSettings{s: s}, nil, nil, "t")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := p.Run(ctx)
	require.Error(t, err)
	require.GreaterOrEqual(t, snaps.calls, 1)
}

func TestPoller_Trigger_NonBlocking(t *testing.T) {
	p := New(&fakeSnaps{}, &fakeSettings{s: settingsFixture()}, nil, nil, "t")
	p.Trigger()
	p.Trigger() // второй не должен блокировать
	require.NotNil(t, p.Stats().LastTriggerAt)
}
