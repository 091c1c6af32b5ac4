package quote

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"shipquote/internal/errs"
	"shipquote/internal/geo"
	"shipquote/internal/logging"
	"shipquote/internal/metrics"
	"shipquote/internal/rate"
	"shipquote/internal/warehouse"
)

// Request is a decoded quote request. Origin is a warehouse id, "auto" or
// empty. Unusable parcel fields are replaced by defaults.
type Request struct {
	ToCountry string
	ToZip     string
	Origin    string
	Parcel    rate.Parcel
}

// Result is a successful quote: the origin warehouse and its offers.
type Result struct {
	Mode   rate.Mode
	Chosen warehouse.Warehouse
	Rates  []rate.Offer
}

// Service computes quotes. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	mode      rate.Mode
	catalog   warehouse.Catalog
	assembler rate.Assembler
	metrics   *metrics.Collector
}

type Option func(*Service)

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

// NewService wires a quote service for mode. provider is only consulted in
// live mode, where it is required, and may be nil in demo mode.
func NewService(mode rate.Mode, catalog warehouse.Catalog, provider rate.ShipmentCreator, opts ...Option) (*Service, error) {
	assembler, err := rate.NewByMode(mode, provider)
	if err != nil {
		return nil, err
	}
	s := &Service{
		mode:      mode,
		catalog:   catalog,
		assembler: assembler,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Mode() rate.Mode { return s.mode }

// Quote selects the origin warehouse, prices the parcel and returns every
// offer. Any failure aborts the whole quote; there is no partial result.
func (s *Service) Quote(ctx context.Context, req Request) (Result, error) {
	res, err := s.quote(ctx, req)
	s.metrics.ObserveQuote(string(s.mode), metrics.Outcome(err))
	return res, err
}

func (s *Service) quote(ctx context.Context, req Request) (Result, error) {
	log := logging.FromContext(ctx).With(zap.String("mode", string(s.mode)))

	warehouses, err := s.catalog.Warehouses(ctx)
	if err != nil {
		log.Error("load warehouse catalog", zap.Error(err))
		return Result{}, err
	}
	chosen, err := warehouse.Select(warehouses, req.Origin, req.ToCountry)
	if err != nil {
		log.Error("select warehouse", zap.Error(err))
		return Result{}, err
	}

	parcel := req.Parcel.WithDefaults()
	shipment := rate.Shipment{
		Origin:     chosen,
		ToCountry:  req.ToCountry,
		ToZip:      req.ToZip,
		Parcel:     parcel,
		DistanceKm: geo.CountryDistanceKm(chosen.Country, req.ToCountry),
		BillableKg: parcel.BillableWeightKg(),
	}

	offers, err := s.assembler.Rates(ctx, shipment)
	if err != nil {
		var pe *errs.ProviderError
		if errors.As(err, &pe) {
			log.Warn("provider rejected shipment",
				zap.String("warehouse", chosen.ID),
				zap.Int("status", pe.Status),
				zap.String("excerpt", pe.Excerpt))
		} else {
			log.Error("assemble rates", zap.String("warehouse", chosen.ID), zap.Error(err))
		}
		return Result{}, err
	}

	log.Info("quote computed",
		zap.String("warehouse", chosen.ID),
		zap.String("to_country", req.ToCountry),
		zap.Float64("distance_km", shipment.DistanceKm),
		zap.Float64("billable_kg", shipment.BillableKg),
		zap.Int("rates", len(offers)))

	return Result{Mode: s.mode, Chosen: chosen, Rates: offers}, nil
}
