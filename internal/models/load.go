package models

import "time"

// Нормализованные risk-статусы (закрытое множество).
const (
	RiskStatusOK     = "OK"
	RiskStatusWatch  = "WATCH"
	RiskStatusAtRisk = "AT_RISK"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether the pair is the {0,0} sentinel.
func (p LatLng) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

// Load — каноническая запись одной перевозки. Собирается заново на каждом
// цикле опроса Datatruck, локально не мутируется.
// Timestamp fields are ISO-8601 strings: the upstream API is string-typed and
// the dashboard consumes them verbatim.
type Load struct {
	ID      string `json:"id"`
	DtID    int64  `json:"dt_id"`
	LoadRef string `json:"load_ref"`
	Status  string `json:"status"`

	CreatedAt string `json:"created_at"`

	PickupAppointment   string `json:"pickup_appointment"`
	DeliveryAppointment string `json:"delivery_appointment"`

	DriverName     string  `json:"driver_name"`
	DriverPhone    string  `json:"driver_phone"`
	TruckUnit      string  `json:"truck_unit"`
	DriverLocation *LatLng `json:"driver_location,omitempty"`

	PickupAddress string `json:"pickup_address"`
	PickupCity    string `json:"pickup_city"`
	PickupState   string `json:"pickup_state"`
	PickupZip     string `json:"pickup_zip"`
	PickupCoords  LatLng `json:"pickup_coords"`

	DeliveryAddress string `json:"delivery_address"`
	DeliveryCity    string `json:"delivery_city"`
	DeliveryState   string `json:"delivery_state"`
	DeliveryZip     string `json:"delivery_zip"`
	DeliveryCoords  LatLng `json:"delivery_coords"`

	PerMileRevenue float64 `json:"per_mile_revenue"`
	TotalMiles     float64 `json:"total_miles"`

	LastStatus   string `json:"lastStatus"`
	LastStatusAt string `json:"lastStatusAt"`
	LastEtaISO   string `json:"lastEtaISO,omitempty"`
	LastReason   string `json:"lastReason,omitempty"`
	UpdatedAt    string `json:"updatedAt"`
}

// GlobalSettings — singleton-настройки дашборда (одна строка в Postgres).
type GlobalSettings struct {
	TimezoneDefault        string         `json:"timezoneDefault"`
	DefaultBufferMin       int            `json:"defaultBufferMin"`
	QuietHoursStart        int            `json:"quietHoursStart"`
	QuietHoursEnd          int            `json:"quietHoursEnd"`
	AllowNightCalls        bool           `json:"allowNightCalls"`
	DailyAPICap            int            `json:"dailyApiCap"`
	PollIntervalMinDefault int            `json:"pollIntervalMinDefault"`
	CustomerBuffers        map[string]int `json:"customerBuffers"`
}

func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		TimezoneDefault:        "America/Chicago",
		DefaultBufferMin:       30,
		QuietHoursStart:        22,
		QuietHoursEnd:          6,
		AllowNightCalls:        false,
		DailyAPICap:            500,
		PollIntervalMinDefault: 15,
		CustomerBuffers:        map[string]int{},
	}
}

// Ack — подтверждение алерта водителем или диспетчером.
type Ack struct {
	AckKey         string     `json:"ackKey"`
	LoadID         string     `json:"loadId"`
	AcknowledgedBy string     `json:"acknowledgedBy,omitempty"` // "driver" | "dispatcher"
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Alert — зафиксированный переход risk-статуса по одной перевозке.
type Alert struct {
	ID         uint64    `json:"id"`
	LoadID     string    `json:"loadId"`
	LoadRef    string    `json:"loadRef"`
	PrevStatus string    `json:"prevStatus"`
	NewStatus  string    `json:"newStatus"`
	Reason     string    `json:"reason,omitempty"`
	EtaISO     string    `json:"etaISO,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
