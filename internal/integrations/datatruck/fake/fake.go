package fake

import (
	"context"
	"time"

	"github.com/dkchapman16/loadwatch/internal/models"
)

// Provider — статический fallback-набор перевозок. Подставляется, когда
// живой фетч не сконфигурирован, упал или вернул пустой результат, чтобы
// дашборд никогда не оставался без данных.
type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) FetchLoads(ctx context.Context) ([]*models.Load, error) {
	now := time.Now().UTC()
	iso := now.Format(time.RFC3339)

	return []*models.Load{
		{
			ID:                  "L-1001",
			DtID:                1001,
			LoadRef:             "REF-4821",
			Status:              "dispatched",
			CreatedAt:           now.Add(-26 * time.Hour).Format(time.RFC3339),
			PickupAppointment:   now.Add(-24 * time.Hour).Format(time.RFC3339),
			DeliveryAppointment: now.Add(6 * time.Hour).Format(time.RFC3339),
			DriverName:          "Mike Rowland",
			DriverPhone:         "+15125550117",
			TruckUnit:           "T-204",
			PickupAddress:       "4500 Commerce St",
			PickupCity:          "Dallas",
			PickupState:         "TX",
			PickupZip:           "75226",
			PickupCoords:        models.LatLng{Lat: 32.7767, Lng: -96.797},
			DeliveryAddress:     "1200 Industrial Blvd",
			DeliveryCity:        "Oklahoma City",
			DeliveryState:       "OK",
			DeliveryZip:         "73108",
			DeliveryCoords:      models.LatLng{Lat: 35.4676, Lng: -97.5164},
			PerMileRevenue:      2.45,
			TotalMiles:          206,
			LastStatus:          models.RiskStatusOK,
			LastStatusAt:        iso,
			UpdatedAt:           iso,
			DriverLocation:      &models.LatLng{Lat: 33.9137, Lng: -97.133},
		},
		{
			ID:                  "L-1002",
			DtID:                1002,
			LoadRef:             "REF-4822",
			Status:              "in_transit",
			CreatedAt:           now.Add(-40 * time.Hour).Format(time.RFC3339),
			PickupAppointment:   now.Add(-36 * time.Hour).Format(time.RFC3339),
			DeliveryAppointment: now.Add(2 * time.Hour).Format(time.RFC3339),
			DriverName:          "Sandra Ibarra",
			DriverPhone:         "+19035550184",
			TruckUnit:           "T-118",
			PickupAddress:       "800 Port Rd",
			PickupCity:          "Houston",
			PickupState:         "TX",
			PickupZip:           "77029",
			PickupCoords:        models.LatLng{Lat: 29.7604, Lng: -95.3698},
			DeliveryAddress:     "55 Distribution Way",
			DeliveryCity:        "Memphis",
			DeliveryState:       "TN",
			DeliveryZip:         "38118",
			DeliveryCoords:      models.LatLng{Lat: 35.1495, Lng: -90.049},
			PerMileRevenue:      2.1,
			TotalMiles:          571,
			LastStatus:          models.RiskStatusWatch,
			LastStatusAt:        iso,
			LastEtaISO:          now.Add(150 * time.Minute).Format(time.RFC3339),
			LastReason:          "Slow traffic on I-40, buffer shrinking",
			UpdatedAt:           iso,
		},
		{
			ID:                  "L-1003",
			DtID:                1003,
			LoadRef:             "REF-4823",
			Status:              "in_transit",
			CreatedAt:           now.Add(-18 * time.Hour).Format(time.RFC3339),
			PickupAppointment:   now.Add(-12 * time.Hour).Format(time.RFC3339),
			DeliveryAppointment: now.Add(1 * time.Hour).Format(time.RFC3339),
			DriverName:          "Unknown driver",
			DriverPhone:         "",
			TruckUnit:           "T-377",
			PickupAddress:       "2100 Freight Ln",
			PickupCity:          "Laredo",
			PickupState:         "TX",
			PickupZip:           "78045",
			PickupCoords:        models.LatLng{Lat: 27.5306, Lng: -99.4803},
			DeliveryAddress:     "9 Yard Ave",
			DeliveryCity:        "San Antonio",
			DeliveryState:       "TX",
			DeliveryZip:         "78219",
			DeliveryCoords:      models.LatLng{Lat: 29.4241, Lng: -98.4936},
			PerMileRevenue:      2.8,
			TotalMiles:          157,
			LastStatus:          models.RiskStatusAtRisk,
			LastStatusAt:        iso,
			LastEtaISO:          now.Add(3 * time.Hour).Format(time.RFC3339),
			LastReason:          "Detention at pickup, appointment window lost",
			UpdatedAt:           iso,
		},
	}, nil
}
