package rate

import (
	"context"
	"math"
)

// DemoCarrier is one row of the synthetic carrier table. Its ETA is
// max(MinDays, round(distance/KmPerDay) + ExtraDays).
type DemoCarrier struct {
	Name       string
	Multiplier float64
	KmPerDay   float64
	ExtraDays  int
	MinDays    int
	Notes      string
}

// ETADays for a parcel travelling distanceKm.
func (c DemoCarrier) ETADays(distanceKm float64) int {
	// half-up, matching the rounding demo clients already display
	days := int(math.Floor(distanceKm/c.KmPerDay+0.5)) + c.ExtraDays
	return max(c.MinDays, days)
}

// DemoCarriers is the synthetic carrier table, in output order.
var DemoCarriers = []DemoCarrier{
	{Name: "DHL", Multiplier: 1.00, KmPerDay: 700, ExtraDays: 1, MinDays: 1, Notes: "Tracked"},
	{Name: "UPS", Multiplier: 1.08, KmPerDay: 800, ExtraDays: 1, MinDays: 1, Notes: "Tracked+pickup"},
	{Name: "FedEx", Multiplier: 1.12, KmPerDay: 900, ExtraDays: 1, MinDays: 1, Notes: "Express option"},
	{Name: "DPD", Multiplier: 0.98, KmPerDay: 650, ExtraDays: 2, MinDays: 2, Notes: "Predictable ground"},
	{Name: "Hermes", Multiplier: 0.96, KmPerDay: 600, ExtraDays: 2, MinDays: 2, Notes: "Economy"},
	{Name: "GLS", Multiplier: 0.95, KmPerDay: 600, ExtraDays: 2, MinDays: 2, Notes: "Economy"},
	{Name: "PostNL", Multiplier: 0.97, KmPerDay: 650, ExtraDays: 2, MinDays: 2, Notes: "Regional"},
	{Name: "Royal Mail", Multiplier: 0.99, KmPerDay: 650, ExtraDays: 2, MinDays: 2, Notes: "Regional/intl"},
	{Name: "Correos", Multiplier: 0.96, KmPerDay: 600, ExtraDays: 2, MinDays: 2, Notes: "Regional"},
	{Name: "Poste Italiane", Multiplier: 0.99, KmPerDay: 650, ExtraDays: 2, MinDays: 2, Notes: "Regional"},
}

const (
	DemoCurrency    = "EUR"
	demoNotesSuffix = " (demo)"
	expressMaxDays  = 2
)

// Demo prices shipments from the synthetic carrier table.
type Demo struct {
	Carriers []DemoCarrier
}

func NewDemo() *Demo { return &Demo{Carriers: DemoCarriers} }

// Rates returns one offer per table carrier the origin warehouse allows.
func (d *Demo) Rates(_ context.Context, s Shipment) ([]Offer, error) {
	base := basePrice(s.DistanceKm, s.BillableKg)
	offers := make([]Offer, 0, len(s.Origin.CarriersAllowed))
	for _, c := range d.Carriers {
		if !s.Origin.Allows(c.Name) {
			continue
		}
		eta := c.ETADays(s.DistanceKm)
		service := "Economy"
		if eta <= expressMaxDays {
			service = "Express"
		}
		offers = append(offers, Offer{
			Carrier:  c.Name,
			Service:  service,
			Amount:   RoundCents(base * c.Multiplier),
			Currency: DemoCurrency,
			ETADays:  &eta,
			Notes:    c.Notes + demoNotesSuffix,
		})
	}
	return offers, nil
}
