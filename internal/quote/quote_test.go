package quote_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipquote/internal/errs"
	"shipquote/internal/metrics"
	"shipquote/internal/quote"
	"shipquote/internal/rate"
	"shipquote/internal/shippo"
	"shipquote/internal/warehouse"
)

type failingCatalog struct{ err error }

func (c failingCatalog) Warehouses(context.Context) ([]warehouse.Warehouse, error) {
	return nil, c.err
}

func newService(t *testing.T, mode rate.Mode, catalog warehouse.Catalog, provider rate.ShipmentCreator, opts ...quote.Option) *quote.Service {
	t.Helper()
	svc, err := quote.NewService(mode, catalog, provider, opts...)
	require.NoError(t, err)
	return svc
}

func defaultRequest() quote.Request {
	return quote.Request{
		ToCountry: "FR",
		Origin:    "auto",
		Parcel:    rate.Parcel{Length: 20, Width: 15, Height: 10, Weight: 1},
	}
}

func TestQuoteDemo(t *testing.T) {
	t.Run("single DE warehouse allowing DHL and DPD", func(t *testing.T) {
		catalog := warehouse.StaticCatalog{
			{ID: "W-DE", Country: "DE", Zip: "10115", CarriersAllowed: []string{"DHL", "DPD"}},
		}
		svc := newService(t, rate.ModeDemo, catalog, nil)

		res, err := svc.Quote(context.Background(), defaultRequest())
		require.NoError(t, err)
		assert.Equal(t, rate.ModeDemo, res.Mode)
		assert.Equal(t, "DE", res.Chosen.Country)
		require.Len(t, res.Rates, 2)
		for _, o := range res.Rates {
			assert.True(t, o.Amount.IsPositive())
			assert.Equal(t, "EUR", o.Currency)
			assert.Nil(t, o.RateID)
		}
		assert.Equal(t, "DHL", res.Rates[0].Carrier)
		assert.Equal(t, "DPD", res.Rates[1].Carrier)
	})

	t.Run("explicit origin is honored", func(t *testing.T) {
		catalog := warehouse.StaticCatalog{
			{ID: "W-ES", Country: "ES", CarriersAllowed: []string{"Correos"}},
			{ID: "W-NL", Country: "NL", CarriersAllowed: []string{"PostNL"}},
		}
		svc := newService(t, rate.ModeDemo, catalog, nil)

		for _, to := range []string{"ES", "FR", "US"} {
			req := defaultRequest()
			req.ToCountry, req.Origin = to, "W-NL"
			res, err := svc.Quote(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, "W-NL", res.Chosen.ID)
			require.Len(t, res.Rates, 1)
			assert.Equal(t, "PostNL", res.Rates[0].Carrier)
		}
	})

	t.Run("missing parcel fields use defaults", func(t *testing.T) {
		catalog := warehouse.StaticCatalog{{ID: "W-DE", Country: "DE", CarriersAllowed: []string{"DHL"}}}
		svc := newService(t, rate.ModeDemo, catalog, nil)

		withDefaults, err := svc.Quote(context.Background(), quote.Request{ToCountry: "FR"})
		require.NoError(t, err)
		explicit, err := svc.Quote(context.Background(), defaultRequest())
		require.NoError(t, err)
		assert.True(t, withDefaults.Rates[0].Amount.Equal(explicit.Rates[0].Amount))
	})

	t.Run("concurrent quotes share no state", func(t *testing.T) {
		catalog := warehouse.StaticCatalog{
			{ID: "W-DE", Country: "DE", CarriersAllowed: []string{"DHL", "DPD"}},
			{ID: "W-NL", Country: "NL", CarriersAllowed: []string{"PostNL"}},
		}
		svc := newService(t, rate.ModeDemo, catalog, nil)

		var wg sync.WaitGroup
		results := make([]quote.Result, 32)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := svc.Quote(context.Background(), defaultRequest())
				assert.NoError(t, err)
				results[i] = res
			}()
		}
		wg.Wait()
		for _, res := range results {
			assert.Equal(t, "W-NL", res.Chosen.ID)
		}
	})
}

func TestQuoteConfigurationErrors(t *testing.T) {
	t.Run("empty catalog", func(t *testing.T) {
		svc := newService(t, rate.ModeDemo, warehouse.StaticCatalog{}, nil)
		_, err := svc.Quote(context.Background(), defaultRequest())
		require.ErrorIs(t, err, errs.ErrConfiguration)
	})

	t.Run("catalog failure", func(t *testing.T) {
		cause := errs.NewConfigurationError("read warehouse catalog")
		svc := newService(t, rate.ModeDemo, failingCatalog{err: cause}, nil)
		_, err := svc.Quote(context.Background(), defaultRequest())
		assert.Same(t, cause, err)
	})
}

func TestNewServiceLiveRequiresProvider(t *testing.T) {
	catalog := warehouse.StaticCatalog{{ID: "W-DE", Country: "DE", CarriersAllowed: []string{"DHL"}}}

	svc, err := quote.NewService(rate.ModeLive, catalog, nil)
	require.ErrorIs(t, err, errs.ErrConfiguration)
	assert.Nil(t, svc)

	var ce *errs.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "live mode requires a rate provider", ce.Reason)
}

func TestQuoteLive(t *testing.T) {
	catalog := warehouse.StaticCatalog{{ID: "W-DE", Country: "DE", Zip: "10115", CarriersAllowed: []string{"DHL"}}}

	t.Run("provider 500 fails the quote", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"detail":"upstream exploded"}`)
		}))
		defer srv.Close()

		reg := prometheus.NewRegistry()
		collector, err := metrics.NewCollector(reg)
		require.NoError(t, err)
		svc := newService(t, rate.ModeLive, catalog, shippo.New(srv.URL, "tok"), quote.WithMetrics(collector))

		res, err := svc.Quote(context.Background(), defaultRequest())
		require.ErrorIs(t, err, errs.ErrProvider)
		assert.Nil(t, res.Rates)

		var pe *errs.ProviderError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, http.StatusInternalServerError, pe.Status)
		assert.Equal(t, `{"detail":"upstream exploded"}`, pe.Excerpt)
		assert.Equal(t, 1.0, testutil.ToFloat64(collector.Quotes.WithLabelValues("live", metrics.OutcomeProviderError)))
	})

	t.Run("provider rates are returned with ids", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"rates":[
				{"object_id":"r_1","provider":"DHL","servicelevel":{"name":"Paket"},"amount":"6.99","currency":"EUR","estimated_days":2,"duration_terms":"1-2 days"},
				{"object_id":"r_2","provider":"UPS","servicelevel":{"name":"Standard"},"amount":"9.40","currency":"EUR"}
			]}`)
		}))
		defer srv.Close()

		svc := newService(t, rate.ModeLive, catalog, shippo.New(srv.URL, "tok"))
		res, err := svc.Quote(context.Background(), defaultRequest())
		require.NoError(t, err)
		assert.Equal(t, rate.ModeLive, res.Mode)
		require.Len(t, res.Rates, 2)
		assert.Equal(t, "r_1", *res.Rates[0].RateID)
		assert.Equal(t, "Paket", res.Rates[0].Service)
		assert.Equal(t, "6.99", res.Rates[0].Amount.String())
		assert.Nil(t, res.Rates[1].ETADays)
	})
}

func TestQuoteMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	ok := newService(t, rate.ModeDemo, warehouse.StaticCatalog{{ID: "A", Country: "DE"}}, nil, quote.WithMetrics(collector))
	_, err = ok.Quote(context.Background(), defaultRequest())
	require.NoError(t, err)

	empty := newService(t, rate.ModeDemo, warehouse.StaticCatalog{}, nil, quote.WithMetrics(collector))
	_, _ = empty.Quote(context.Background(), defaultRequest())

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Quotes.WithLabelValues("demo", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Quotes.WithLabelValues("demo", metrics.OutcomeConfigurationError)))
}
