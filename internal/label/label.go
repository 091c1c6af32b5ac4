// Package label converts a quoted rate into a printable shipping label.
package label

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"shipquote/internal/errs"
	"shipquote/internal/logging"
	"shipquote/internal/metrics"
	"shipquote/internal/rate"
	"shipquote/internal/shippo"
)

const demoLabelURL = "https://via.placeholder.com/700x300.png?text=DEMO+LABEL+%%7C+%s"

// Purchaser is the provider operation used for live labels.
type Purchaser interface {
	PurchaseLabel(ctx context.Context, rateID string) (shippo.Transaction, error)
}

type Label struct {
	Mode     rate.Mode
	Tracking string
	LabelURL string
}

type Service struct {
	mode      rate.Mode
	purchaser Purchaser
	metrics   *metrics.Collector
	now       func() time.Time
}

type Option func(*Service)

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a label service for mode. Live mode requires purchaser;
// demo mode never calls it.
func NewService(mode rate.Mode, purchaser Purchaser, opts ...Option) (*Service, error) {
	if mode == rate.ModeLive && purchaser == nil {
		return nil, errs.NewConfigurationError("live mode requires a label provider")
	}
	s := &Service{mode: mode, purchaser: purchaser, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Buy purchases a label for rateID. Demo mode ignores rateID and returns a
// placeholder label.
func (s *Service) Buy(ctx context.Context, rateID string) (Label, error) {
	l, err := s.buy(ctx, strings.TrimSpace(rateID))
	s.metrics.ObserveLabel(string(s.mode), metrics.Outcome(err))
	return l, err
}

func (s *Service) buy(ctx context.Context, rateID string) (Label, error) {
	if s.mode != rate.ModeLive {
		return s.demo(), nil
	}
	if rateID == "" {
		return Label{}, errs.NewValidationError("rate_id", "missing rate_id for live label purchase")
	}

	log := logging.FromContext(ctx).With(zap.String("rate_id", rateID))
	tx, err := s.purchaser.PurchaseLabel(ctx, rateID)
	if err != nil {
		var pe *errs.ProviderError
		if errors.As(err, &pe) {
			log.Warn("provider rejected label purchase", zap.Int("status", pe.Status), zap.String("excerpt", pe.Excerpt))
		}
		return Label{}, err
	}
	if tx.Status != "" && !strings.EqualFold(tx.Status, "success") && tx.LabelURL == "" {
		log.Warn("label transaction not successful", zap.String("status", tx.Status))
		return Label{}, errs.NewProviderError(http.StatusBadGateway, "Shippo transaction status: "+tx.Status, "")
	}

	tracking := tx.TrackingNumber
	if tracking == "" {
		tracking = tx.Tracking
	}
	log.Info("label purchased", zap.String("tracking", tracking))
	return Label{Mode: rate.ModeLive, Tracking: tracking, LabelURL: tx.LabelURL}, nil
}

// demo tracking numbers are TRK followed by the last ten digits of the
// current unix time in milliseconds.
func (s *Service) demo() Label {
	ms := strconv.FormatInt(s.now().UnixMilli(), 10)
	if len(ms) > 10 {
		ms = ms[len(ms)-10:]
	}
	tracking := "TRK" + ms
	return Label{
		Mode:     rate.ModeDemo,
		Tracking: tracking,
		LabelURL: fmt.Sprintf(demoLabelURL, tracking),
	}
}
