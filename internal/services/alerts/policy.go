package alerts

import "github.com/dkchapman16/loadwatch/internal/models"

// InQuietHours проверяет попадание локального часа в тихое окно.
// start > end — окно через полночь (22–6 покрывает 22:00–05:59),
// start < end — окно внутри суток, start == end — тихих часов нет.
func InQuietHours(hour, start, end int) bool {
	if start == end {
		return false
	}
	if start > end {
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}

// VoiceAllowed: вне тихих часов, либо ночные звонки явно разрешены.
func VoiceAllowed(hour, start, end int, allowNightCalls bool) bool {
	return !InQuietHours(hour, start, end) || allowNightCalls
}

type Decision struct {
	InQuietHours    bool
	VoiceAllowed    bool
	EscalateToOwner bool
}

// Evaluate — чистая функция политики уведомления. Эскалация владельцу
// срабатывает только при одновременном выполнении всех трёх условий:
// тихие часы, звонок запрещён, статус ровно AT_RISK.
func Evaluate(hour, start, end int, allowNightCalls bool, status string) Decision {
	quiet := InQuietHours(hour, start, end)
	voice := !quiet || allowNightCalls
	return Decision{
		InQuietHours:    quiet,
		VoiceAllowed:    voice,
		EscalateToOwner: quiet && !voice && status == models.RiskStatusAtRisk,
	}
}
