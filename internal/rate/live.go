package rate

import (
	"context"

	"shipquote/internal/shippo"
)

// ShipmentCreator is the provider operation used by live quoting.
type ShipmentCreator interface {
	CreateShipment(ctx context.Context, req shippo.ShipmentRequest) ([]map[string]any, error)
}

// Live asks the provider for rates and normalizes its answer. Provider
// failures are returned as-is; there is no retry and no demo fallback.
type Live struct {
	provider ShipmentCreator
}

// NewLive returns a Live assembler backed by provider.
func NewLive(provider ShipmentCreator) *Live { return &Live{provider: provider} }

// Rates returns the provider's offers in provider order.
func (l *Live) Rates(ctx context.Context, s Shipment) ([]Offer, error) {
	lines, err := l.provider.CreateShipment(ctx, ShipmentRequestFor(s))
	if err != nil {
		return nil, err
	}
	offers := make([]Offer, 0, len(lines))
	for _, line := range lines {
		offers = append(offers, NormalizeOffer(line))
	}
	return offers, nil
}

// ShipmentRequestFor builds the provider request. The parcel ships at its
// billable weight, not the declared one.
func ShipmentRequestFor(s Shipment) shippo.ShipmentRequest {
	toZip := s.ToZip
	toCity := s.ToZip
	if toZip == "" {
		toZip, toCity = "00000", "City"
	}
	toCountry := s.ToCountry
	if toCountry == "" {
		toCountry = "DE"
	}
	return shippo.ShipmentRequest{
		AddressFrom: shippo.Address{
			Name:    "Warehouse",
			Street1: "-",
			City:    s.Origin.Zip,
			Zip:     s.Origin.Zip,
			Country: s.Origin.Country,
		},
		AddressTo: shippo.Address{
			Name:    "Consignee",
			Street1: "-",
			City:    toCity,
			Zip:     toZip,
			Country: toCountry,
		},
		Parcels: []shippo.Parcel{{
			Length:       s.Parcel.Length,
			Width:        s.Parcel.Width,
			Height:       s.Parcel.Height,
			DistanceUnit: s.Parcel.DistanceUnit,
			Weight:       s.BillableKg,
			MassUnit:     s.Parcel.MassUnit,
		}},
		Async: false,
	}
}
