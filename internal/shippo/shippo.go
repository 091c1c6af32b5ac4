// Package shippo is a minimal client for the two Shippo operations the
// service consumes: creating a shipment to obtain rates and purchasing a
// label for a chosen rate.
package shippo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shipquote/internal/errs"
)

const DefaultBaseURL = "https://api.goshippo.com"

// Operation names passed to the Observer.
const (
	OpCreateShipment = "create_shipment"
	OpPurchaseLabel  = "purchase_label"
)

type Address struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type Parcel struct {
	Length       float64 `json:"length"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	DistanceUnit string  `json:"distance_unit"`
	Weight       float64 `json:"weight"`
	MassUnit     string  `json:"mass_unit"`
}

type ShipmentRequest struct {
	AddressFrom Address  `json:"address_from"`
	AddressTo   Address  `json:"address_to"`
	Parcels     []Parcel `json:"parcels"`
	Async       bool     `json:"async"`
}

// Transaction is the subset of a label purchase reply the service reads.
type Transaction struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
	Tracking       string `json:"tracking"`
	LabelURL       string `json:"label_url"`
}

// Observer receives the duration of every provider round trip.
type Observer func(operation string, d time.Duration)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	observe    Observer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

func New(baseURL, token string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateShipment returns the raw rate lines of the created shipment.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) ([]map[string]any, error) {
	var shipment struct {
		Rates []map[string]any `json:"rates"`
	}
	if err := c.post(ctx, OpCreateShipment, "/shipments/", req, &shipment); err != nil {
		return nil, err
	}
	return shipment.Rates, nil
}

// PurchaseLabel buys a PNG label for rateID.
func (c *Client) PurchaseLabel(ctx context.Context, rateID string) (Transaction, error) {
	body := map[string]string{"rate": rateID, "label_file_type": "PNG"}
	var tx Transaction
	if err := c.post(ctx, OpPurchaseLabel, "/transactions/", body, &tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// post sends one request. Non-2xx replies and bodies that are not JSON
// become *errs.ProviderError with a bounded excerpt of the reply.
func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "ShippoToken "+c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.observe != nil {
		defer func() { c.observe(op, time.Since(start)) }()
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.NewProviderErrorWithCause(http.StatusBadGateway, "Shippo request failed", "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewProviderErrorWithCause(http.StatusBadGateway, "Shippo response read failed", "", err)
	}
	txt := string(raw)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errs.NewProviderError(resp.StatusCode,
			fmt.Sprintf("Shippo error %d: %s", resp.StatusCode, errs.Excerpt(txt)), txt)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.NewProviderErrorWithCause(http.StatusBadGateway, "Shippo non-JSON response", txt, err)
	}
	return nil
}
