package datatruck

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/dkchapman16/loadwatch/internal/models"
)

// Normalize превращает один сырой payload Datatruck в каноническую запись.
// Функция тотальна: на любой вход есть терминальный дефолт, ошибок не бывает.
func Normalize(raw RawLoad) *models.Load {
	return normalizeAt(raw, time.Now().UTC())
}

func normalizeAt(raw RawLoad, now time.Time) *models.Load {
	nowISO := now.Format(time.RFC3339)

	pickup := firstLocation(raw.Pickup, raw.PickupStop, raw.Origin)
	dropoff := firstLocation(raw.Dropoff, raw.DropoffStop, raw.Destination)

	l := &models.Load{
		ID:      resolveIdentity(raw),
		DtID:    resolveDtID(raw),
		LoadRef: firstNonEmpty(string(raw.LoadRef), string(raw.Reference), string(raw.Ref), string(raw.ID)),
		Status:  firstNonEmpty(raw.Status, raw.State),

		CreatedAt: firstNonEmpty(raw.CreatedAt, nowISO),
		UpdatedAt: firstNonEmpty(raw.UpdatedAt, raw.Updated, raw.CreatedAt, nowISO),

		PickupAppointment:   firstNonEmpty(raw.PickupAppointment, appointment(pickup)),
		DeliveryAppointment: firstNonEmpty(raw.DeliveryAppointment, appointment(dropoff)),

		DriverName:  resolveDriverName(raw),
		DriverPhone: firstNonEmpty(driverField(raw, func(d *RawDriver) string { return d.Phone }), raw.DriverPhone),
		TruckUnit:   firstNonEmpty(driverField(raw, func(d *RawDriver) string { return d.TruckUnit }), raw.TruckUnit),

		PickupAddress: buildAddress(pickup),
		PickupCity:    locField(pickup, func(l *RawLocation) string { return l.City }),
		PickupState:   locField(pickup, func(l *RawLocation) string { return l.State }),
		PickupZip:     locField(pickup, func(l *RawLocation) string { return l.Zip }),
		PickupCoords:  extractCoords(pickup),

		DeliveryAddress: buildAddress(dropoff),
		DeliveryCity:    locField(dropoff, func(l *RawLocation) string { return l.City }),
		DeliveryState:   locField(dropoff, func(l *RawLocation) string { return l.State }),
		DeliveryZip:     locField(dropoff, func(l *RawLocation) string { return l.Zip }),
		DeliveryCoords:  extractCoords(dropoff),

		PerMileRevenue: numberValue(raw.PerMileRevenue),
		TotalMiles:     numberValue(raw.TotalMiles),

		LastStatus:   classifyRisk(resolveStatusSource(raw)),
		LastStatusAt: resolveLastStatusAt(raw, nowISO),
	}

	if ev := raw.LastEvent; ev != nil {
		l.LastEtaISO = firstNonEmpty(ev.Eta, raw.Eta)
		l.LastReason = firstNonEmpty(ev.Reason, raw.Reason)
	} else {
		l.LastEtaISO = raw.Eta
		l.LastReason = raw.Reason
	}

	if raw.Driver != nil {
		if p := extractCoords(firstLocation(raw.Driver.Location, raw.Driver.LastLocation)); !p.IsZero() {
			loc := p
			l.DriverLocation = &loc
		}
	}

	return l
}

// extractCoords выбирает первый непустой кандидат по каждой оси:
// lat → latitude → geo.lat; lng → lon → long → longitude → geo-варианты.
// Отсутствие всегда разрешается в 0, никогда в ошибку.
func extractCoords(loc *RawLocation) models.LatLng {
	if loc == nil {
		return models.LatLng{}
	}

	latCands := []*Number{loc.Lat, loc.Latitude}
	lngCands := []*Number{loc.Lng, loc.Lon, loc.Long, loc.Longitude}
	if g := loc.Geo; g != nil {
		latCands = append(latCands, g.Lat)
		lngCands = append(lngCands, g.Lng, g.Lon, g.Long, g.Longitude)
	}

	return models.LatLng{
		Lat: firstNumber(latCands),
		Lng: firstNumber(lngCands),
	}
}

func firstNumber(cands []*Number) float64 {
	for _, c := range cands {
		if c != nil {
			return float64(*c)
		}
	}
	return 0
}

// buildAddress собирает адресную строку: trim, пустые выбрасываем,
// дубликаты убираем по всему списку, порядок появления сохраняем.
func buildAddress(loc *RawLocation) string {
	if loc == nil {
		return ""
	}
	parts := lo.Filter([]string{
		strings.TrimSpace(loc.Address),
		strings.TrimSpace(loc.Address2),
	}, func(s string, _ int) bool { return s != "" })
	return strings.Join(lo.Uniq(parts), ", ")
}

// resolveStatusSource: статус события → last_status → state → status.
func resolveStatusSource(raw RawLoad) string {
	if raw.LastEvent != nil && raw.LastEvent.Status != "" {
		return raw.LastEvent.Status
	}
	return firstNonEmpty(raw.LastStatus, raw.State, raw.Status)
}

// classifyRisk — закрытый трёхзначный классификатор. Регистр не важен,
// всё нераспознанное нормализуется в OK.
func classifyRisk(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case models.RiskStatusOK:
		return models.RiskStatusOK
	case models.RiskStatusWatch:
		return models.RiskStatusWatch
	case models.RiskStatusAtRisk:
		return models.RiskStatusAtRisk
	default:
		return models.RiskStatusOK
	}
}

// resolveIdentity: id → dt_id → load_ref → reference → ref → uuid.
// Последний вариант гарантирует, что запись адресуема даже без upstream-id.
func resolveIdentity(raw RawLoad) string {
	if s := string(raw.ID); s != "" {
		return s
	}
	if raw.DtID != nil {
		return strconv.FormatInt(int64(*raw.DtID), 10)
	}
	if s := firstNonEmpty(string(raw.LoadRef), string(raw.Reference), string(raw.Ref)); s != "" {
		return s
	}
	return uuid.NewString()
}

func resolveDtID(raw RawLoad) int64 {
	if raw.DtID == nil {
		return 0
	}
	return int64(*raw.DtID)
}

func resolveLastStatusAt(raw RawLoad, nowISO string) string {
	if ev := raw.LastEvent; ev != nil {
		if ts := firstNonEmpty(ev.Timestamp, ev.At); ts != "" {
			return ts
		}
	}
	return firstNonEmpty(raw.UpdatedAt, raw.Updated, raw.CreatedAt, nowISO)
}

// resolveDriverName: полное имя → first+last (trim, пустые части
// выбрасываем) → "Unknown driver".
func resolveDriverName(raw RawLoad) string {
	if d := raw.Driver; d != nil {
		if name := strings.TrimSpace(d.Name); name != "" {
			return name
		}
		parts := lo.Filter([]string{
			strings.TrimSpace(d.FirstName),
			strings.TrimSpace(d.LastName),
		}, func(s string, _ int) bool { return s != "" })
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	if name := strings.TrimSpace(raw.DriverName); name != "" {
		return name
	}
	return "Unknown driver"
}

func firstLocation(cands ...*RawLocation) *RawLocation {
	for _, c := range cands {
		if c != nil {
			return c
		}
	}
	return nil
}

func firstNonEmpty(cands ...string) string {
	for _, c := range cands {
		if c != "" {
			return c
		}
	}
	return ""
}

func locField(loc *RawLocation, f func(*RawLocation) string) string {
	if loc == nil {
		return ""
	}
	return f(loc)
}

func driverField(raw RawLoad, f func(*RawDriver) string) string {
	if raw.Driver == nil {
		return ""
	}
	return f(raw.Driver)
}

func appointment(loc *RawLocation) string {
	if loc == nil {
		return ""
	}
	return loc.Appointment
}

func numberValue(n *Number) float64 {
	if n == nil {
		return 0
	}
	return float64(*n)
}
