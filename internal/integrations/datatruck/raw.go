package datatruck

import (
	"bytes"
	"strconv"
)

// Number принимает JSON-число или числовую строку. Неразборчивое значение
// становится нулём: отсутствие координаты не должно ронять нормализацию.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

// FlexString принимает строку или число (Datatruck отдаёт id то так, то так).
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		var unq string
		if err := unquote(b, &unq); err != nil {
			return err
		}
		*s = FlexString(unq)
		return nil
	}
	*s = FlexString(b)
	return nil
}

func unquote(b []byte, out *string) error {
	u, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	*out = u
	return nil
}

// RawGeo — вложенный вариант координат (location.geo.*).
type RawGeo struct {
	Lat       *Number `json:"lat"`
	Lng       *Number `json:"lng"`
	Lon       *Number `json:"lon"`
	Long      *Number `json:"long"`
	Longitude *Number `json:"longitude"`
}

// RawLocation — location-подобный объект Datatruck. Почти все поля
// опциональны, для каждой оси есть несколько синонимичных ключей.
type RawLocation struct {
	Lat       *Number `json:"lat"`
	Latitude  *Number `json:"latitude"`
	Lng       *Number `json:"lng"`
	Lon       *Number `json:"lon"`
	Long      *Number `json:"long"`
	Longitude *Number `json:"longitude"`
	Geo       *RawGeo `json:"geo"`

	Address  string `json:"address"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`

	Appointment string `json:"appointment"`
}

type RawDriver struct {
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	TruckUnit string `json:"truck_unit"`

	Location     *RawLocation `json:"location"`
	LastLocation *RawLocation `json:"last_location"`
}

// RawStatusEvent — последнее событие изменения risk-статуса.
type RawStatusEvent struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	At        string `json:"at"`
	Eta       string `json:"eta"`
	Reason    string `json:"reason"`
}

// RawLoad — один payload перевозки как его отдаёт Datatruck: все поля
// опциональны, для большинства понятий несколько альтернативных написаний.
type RawLoad struct {
	ID        FlexString `json:"id"`
	DtID      *Number    `json:"dt_id"`
	LoadRef   FlexString `json:"load_ref"`
	Reference FlexString `json:"reference"`
	Ref       FlexString `json:"ref"`

	Status     string          `json:"status"`
	State      string          `json:"state"`
	LastStatus string          `json:"last_status"`
	LastEvent  *RawStatusEvent `json:"last_status_event"`

	Eta    string `json:"eta"`
	Reason string `json:"reason"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Updated   string `json:"updated"`

	PickupAppointment   string `json:"pickup_appointment"`
	DeliveryAppointment string `json:"delivery_appointment"`

	Pickup     *RawLocation `json:"pickup"`
	PickupStop *RawLocation `json:"pickup_stop"`
	Origin     *RawLocation `json:"origin"`

	Dropoff     *RawLocation `json:"dropoff"`
	DropoffStop *RawLocation `json:"dropoff_stop"`
	Destination *RawLocation `json:"destination"`

	Driver      *RawDriver `json:"driver"`
	DriverName  string     `json:"driver_name"`
	DriverPhone string     `json:"driver_phone"`
	TruckUnit   string     `json:"truck_unit"`

	PerMileRevenue *Number `json:"per_mile_revenue"`
	TotalMiles     *Number `json:"total_miles"`
}
