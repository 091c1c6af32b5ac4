package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shipquote/internal/errs"
	"shipquote/internal/label"
	"shipquote/internal/logging"
	"shipquote/internal/metrics"
	"shipquote/internal/quote"
	"shipquote/internal/rate"
	"shipquote/internal/warehouse"
)

type Server struct {
	quotes  *quote.Service
	labels  *label.Service
	metrics *metrics.Collector
	log     *zap.Logger
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// New builds the HTTP API around the quote and label services.
func New(quotes *quote.Service, labels *label.Service, opts ...Option) http.Handler {
	s := &Server{quotes: quotes, labels: labels, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	r := chi.NewRouter()
	// Observability: Request ID and basic logger
	r.Use(s.requestIDMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.MethodNotAllowed(handleMethodNotAllowed)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Post("/quote", s.handleQuote)
	r.Post("/buy_label", s.handleBuyLabel)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Quotes
type QuoteRequest struct {
	ToCountry string        `json:"toCountry"`
	ToZip     string        `json:"toZip"`
	Origin    string        `json:"origin"`
	Parcel    ParcelRequest `json:"parcel"`
}

// ParcelRequest dimensions accept numbers or numeric strings; anything else
// falls back to the default for that field.
type ParcelRequest struct {
	Length       any    `json:"length"`
	Width        any    `json:"width"`
	Height       any    `json:"height"`
	Weight       any    `json:"weight"`
	DistanceUnit string `json:"distance_unit"`
	MassUnit     string `json:"mass_unit"`
}

type QuoteResponse struct {
	Mode   rate.Mode           `json:"mode"`
	Chosen warehouse.Warehouse `json:"chosen"`
	Rates  []RateResponse      `json:"rates"`
}

type RateResponse struct {
	RateID   *string     `json:"rate_id"`
	Carrier  string      `json:"carrier"`
	Service  string      `json:"service"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	ETADays  *int        `json:"eta_days"`
	Notes    string      `json:"notes"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	res, err := s.quotes.Quote(r.Context(), quote.Request{
		ToCountry: strings.TrimSpace(req.ToCountry),
		ToZip:     strings.TrimSpace(req.ToZip),
		Origin:    req.Origin,
		Parcel:    req.Parcel.toParcel(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rates := make([]RateResponse, 0, len(res.Rates))
	for _, o := range res.Rates {
		rates = append(rates, RateResponse{
			RateID:   o.RateID,
			Carrier:  o.Carrier,
			Service:  o.Service,
			Amount:   json.Number(o.Amount.String()),
			Currency: o.Currency,
			ETADays:  o.ETADays,
			Notes:    o.Notes,
		})
	}
	writeJSON(w, http.StatusOK, QuoteResponse{Mode: res.Mode, Chosen: res.Chosen, Rates: rates})
}

func (p ParcelRequest) toParcel() rate.Parcel {
	return rate.Parcel{
		Length:       floatOrZero(p.Length),
		Width:        floatOrZero(p.Width),
		Height:       floatOrZero(p.Height),
		Weight:       floatOrZero(p.Weight),
		DistanceUnit: strings.TrimSpace(p.DistanceUnit),
		MassUnit:     strings.TrimSpace(p.MassUnit),
	}
}

// Labels
type LabelRequest struct {
	RateID string `json:"rate_id"`
}

type LabelResponse struct {
	Mode     rate.Mode `json:"mode"`
	Tracking string    `json:"tracking"`
	LabelURL string    `json:"label_url"`
}

func (s *Server) handleBuyLabel(w http.ResponseWriter, r *http.Request) {
	var req LabelRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	l, err := s.labels.Buy(r.Context(), req.RateID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LabelResponse{Mode: l.Mode, Tracking: l.Tracking, LabelURL: l.LabelURL})
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorJSON(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST")
}

// decodeBody decodes a JSON body; an empty body decodes as {}.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeError maps a service error onto the standard error envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())

	var (
		ve *errs.ValidationError
		ce *errs.ConfigurationError
		pe *errs.ProviderError
	)
	switch {
	case errors.As(err, &ve):
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", ve.Reason)
	case errors.As(err, &ce):
		writeErrorJSON(w, http.StatusInternalServerError, "configuration_error", ce.Reason)
	case errors.As(err, &pe):
		status := pe.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeErrorDetails(w, status, "provider_error", pe.Message, pe.Excerpt)
	default:
		log.Error("request failed", zap.Error(err))
		writeErrorJSON(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	writeErrorDetails(w, status, code, message, "")
}

func writeErrorDetails(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: message, Details: details},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestIDMiddleware ensures X-Request-ID is set on the response and on the
// request-scoped logger. If provided in the request header, it is
// propagated; otherwise a UUID is generated.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", rid)
		ctx := logging.WithContext(r.Context(), s.log.With(zap.String("request_id", rid)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func floatOrZero(v any) float64 {
	f, ok := rate.ParseFloat(v)
	if !ok {
		return 0
	}
	return f
}
