package rate

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"shipquote/internal/errs"
	"shipquote/internal/warehouse"
)

// Mode selects where rate offers come from.
type Mode string

const (
	ModeDemo Mode = "demo"
	ModeLive Mode = "live"
)

// ModeFor returns ModeLive when a provider token is configured.
func ModeFor(token string) Mode {
	if strings.TrimSpace(token) != "" {
		return ModeLive
	}
	return ModeDemo
}

// Offer is one carrier/service quote. RateID is only set for live offers,
// ETADays only when the source knows it.
type Offer struct {
	RateID   *string
	Carrier  string
	Service  string
	Amount   decimal.Decimal
	Currency string
	ETADays  *int
	Notes    string
}

// Shipment is everything an Assembler needs to price one parcel.
type Shipment struct {
	Origin     warehouse.Warehouse
	ToCountry  string
	ToZip      string
	Parcel     Parcel
	DistanceKm float64
	BillableKg float64
}

// Assembler produces the ordered offers for a shipment.
type Assembler interface {
	Rates(ctx context.Context, s Shipment) ([]Offer, error)
}

// NewByMode returns the Assembler for mode. Live mode never falls back to
// demo data, so a missing provider is a configuration error.
func NewByMode(mode Mode, provider ShipmentCreator) (Assembler, error) {
	if mode != ModeLive {
		return NewDemo(), nil
	}
	if provider == nil {
		return nil, errs.NewConfigurationError("live mode requires a rate provider")
	}
	return NewLive(provider), nil
}
