package messages

import "time"

// SnapshotUpdated публикуется воркером после каждого цикла опроса Datatruck.
type SnapshotUpdated struct {
	CheckedAt time.Time `json:"checked_at"`
	LoadCount int       `json:"load_count"`
	Fallback  bool      `json:"fallback,omitempty"`

	Transitions []RiskTransition `json:"transitions,omitempty"`

	Error *string `json:"error,omitempty"`
}

// RiskTransition — смена risk-статуса одной перевозки между снапшотами.
type RiskTransition struct {
	LoadID     string `json:"load_id"`
	LoadRef    string `json:"load_ref"`
	PrevStatus string `json:"prev_status,omitempty"`
	NewStatus  string `json:"new_status"`
	Reason     string `json:"reason,omitempty"`
	EtaISO     string `json:"eta_iso,omitempty"`
}
