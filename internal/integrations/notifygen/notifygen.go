package notifygen

import "context"

// Request — структурированный запрос к генератору текста уведомления.
// Политика (quiet hours, эскалация) передаётся как контекст для текста,
// но решения по каналам принимает не генератор, а alerts-сервис.
type Request struct {
	LoadRef          string `json:"loadRef"`
	DeliveryCity     string `json:"deliveryCity"`
	DeliveryState    string `json:"deliveryState"`
	ApptLocal        string `json:"apptLocal"`
	EtaLocal         string `json:"etaLocal"`
	Reason           string `json:"reason"`
	BufferMin        int    `json:"buffer"`
	AckURL           string `json:"ackUrl"`
	DriverPhone      string `json:"driverPhone"`
	DispatcherPhone  string `json:"dispatcherPhone"`
	QuietHoursStart  int    `json:"quietHoursStart"`
	QuietHoursEnd    int    `json:"quietHoursEnd"`
	AllowNightCalls  bool   `json:"allowNightCalls"`
	AlertOwnerPhone  string `json:"alertOwnerPhone"`
	CurrentHour      int    `json:"currentHour"`
	DriverName       string `json:"driverName"`
	LastDrivingStart string `json:"lastDrivingStart,omitempty"`
	Status           string `json:"status"`
}

// Result — ответ генератора. EscalateToOwner здесь — только предложение
// модели; финальное значение пересчитывается локально.
type Result struct {
	Message         string `json:"message"`
	SendSms         bool   `json:"sendSms"`
	SendVoice       bool   `json:"sendVoice"`
	EscalateToOwner bool   `json:"escalateToOwner"`
}

// Generator — внешний текст-генератор. Nil-результат без ошибки означает,
// что бэкенд не дал пригодного вывода; решает, что с этим делать, вызывающий.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
