package fake

import (
	"context"
	"fmt"

	"github.com/dkchapman16/loadwatch/internal/integrations/notifygen"
)

// FakeGenerator — детерминированная заглушка генератора для тестов и
// локального запуска без живого бэкенда.
type FakeGenerator struct {
	Empty bool
	Err   error

	SendSms         bool
	SendVoice       bool
	EscalateToOwner bool

	LastRequest *notifygen.Request
}

func New() *FakeGenerator {
	return &FakeGenerator{SendSms: true, SendVoice: true}
}

func (f *FakeGenerator) Generate(ctx context.Context, req notifygen.Request) (*notifygen.Result, error) {
	f.LastRequest = &req
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Empty {
		return nil, nil
	}
	return &notifygen.Result{
		Message: fmt.Sprintf("ETA Risk: %s. Load %s to %s, %s. Appt: %s. ETA: %s. Reason: %s. Acknowledge: %s",
			req.Status, req.LoadRef, req.DeliveryCity, req.DeliveryState, req.ApptLocal, req.EtaLocal, req.Reason, req.AckURL),
		SendSms:         f.SendSms,
		SendVoice:       f.SendVoice,
		EscalateToOwner: f.EscalateToOwner,
	}, nil
}
