package shippo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipquote/internal/errs"
)

func TestCreateShipment(t *testing.T) {
	var got ShipmentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/shipments/", r.URL.Path)
		assert.Equal(t, "ShippoToken shippo_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"object_id":"shp_1","rates":[{"object_id":"r1","provider":"DHL","amount":"12.30"}]}`)
	}))
	defer srv.Close()

	var observed []string
	c := New(srv.URL+"/", "shippo_test_123", WithObserver(func(op string, d time.Duration) {
		observed = append(observed, op)
	}))
	lines, err := c.CreateShipment(context.Background(), ShipmentRequest{
		AddressFrom: Address{Country: "DE", Zip: "10115"},
		AddressTo:   Address{Country: "FR", Zip: "75001"},
		Parcels:     []Parcel{{Length: 20, Width: 15, Height: 10, DistanceUnit: "cm", Weight: 1, MassUnit: "kg"}},
	})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "r1", lines[0]["object_id"])
	assert.Equal(t, "FR", got.AddressTo.Country)
	assert.InDelta(t, 1.0, got.Parcels[0].Weight, 1e-9)
	assert.Equal(t, []string{OpCreateShipment}, observed)
}

func TestCreateShipmentErrors(t *testing.T) {
	t.Run("non-success status", func(t *testing.T) {
		body := strings.Repeat("E", 300)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, body)
		}))
		defer srv.Close()

		_, err := New(srv.URL, "tok").CreateShipment(context.Background(), ShipmentRequest{})
		require.ErrorIs(t, err, errs.ErrProvider)
		var pe *errs.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, http.StatusInternalServerError, pe.Status)
		assert.Len(t, pe.Excerpt, errs.MaxExcerpt)
		assert.True(t, strings.HasPrefix(pe.Message, "Shippo error 500: EEE"))
	})

	t.Run("non-JSON body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<html>maintenance</html>")
		}))
		defer srv.Close()

		_, err := New(srv.URL, "tok").CreateShipment(context.Background(), ShipmentRequest{})
		var pe *errs.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, http.StatusBadGateway, pe.Status)
		assert.Equal(t, "Shippo non-JSON response", pe.Message)
		assert.Equal(t, "<html>maintenance</html>", pe.Excerpt)
	})

	t.Run("unreachable provider", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := New(url, "tok").CreateShipment(context.Background(), ShipmentRequest{})
		require.ErrorIs(t, err, errs.ErrProvider)
	})

	t.Run("caller cancellation is not a provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(srv.URL, "tok").CreateShipment(ctx, ShipmentRequest{})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestPurchaseLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"rate": "rate_abc", "label_file_type": "PNG"}, body)
		_, _ = io.WriteString(w, `{"status":"SUCCESS","tracking_number":"1Z999","label_url":"https://labels.example/1.png"}`)
	}))
	defer srv.Close()

	tx, err := New(srv.URL, "tok").PurchaseLabel(context.Background(), "rate_abc")
	require.NoError(t, err)
	assert.Equal(t, Transaction{Status: "SUCCESS", TrackingNumber: "1Z999", LabelURL: "https://labels.example/1.png"}, tx)
}

func TestNewDefaultsBaseURL(t *testing.T) {
	c := New("  ", "tok")
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
