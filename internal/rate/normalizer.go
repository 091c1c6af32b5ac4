package rate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeOffer maps one provider rate line onto an Offer, applying the
// documented fallback for every missing or malformed field.
func NormalizeOffer(line map[string]any) Offer {
	o := Offer{
		Carrier:  orDefaultString(getString(line, []string{"provider", "carrier"}), "Carrier"),
		Service:  getString(line, []string{"servicelevel.name", "service"}),
		Currency: orDefaultString(getString(line, []string{"currency"}), DemoCurrency),
		Notes:    getString(line, []string{"duration_terms"}),
	}
	if id := strings.TrimSpace(getString(line, []string{"object_id"})); id != "" {
		o.RateID = &id
	}
	amount, ok := ParseAmount(getFirst(line, []string{"amount", "price"}))
	if !ok {
		amount = decimal.Zero
	}
	o.Amount = amount
	if days, ok := ParseDays(getAny(line, []string{"estimated_days"})); ok {
		o.ETADays = &days
	}
	return o
}

// ParseFloat accepts JSON numbers and numeric strings. It reports false for
// anything else, including NaN and infinities.
func ParseFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseAmount parses a non-negative money amount.
func ParseAmount(v any) (decimal.Decimal, bool) {
	if s, ok := v.(string); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil || d.IsNegative() {
			return decimal.Zero, false
		}
		return d, true
	}
	f, ok := ParseFloat(v)
	if !ok || f < 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// ParseDays parses a positive whole number of days. Zero counts as unknown.
func ParseDays(v any) (int, bool) {
	f, ok := ParseFloat(v)
	if !ok || f <= 0 {
		return 0, false
	}
	return int(math.Round(f)), true
}

// getString returns the first non-empty string from the candidate keys.
// Supports dot-path navigation for nested maps.
func getString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v := getPath(m, k); v != nil {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

// getFirst returns the first value that is neither nil, empty string nor zero.
func getFirst(m map[string]any, keys []string) any {
	for _, k := range keys {
		v := getPath(m, k)
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(t) == "" {
				continue
			}
		case float64:
			if t == 0 {
				continue
			}
		}
		return v
	}
	return nil
}

// getAny returns the first non-nil value from the candidate keys.
func getAny(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v := getPath(m, k); v != nil {
			return v
		}
	}
	return nil
}

// getPath navigates a dot-separated key into nested maps.
func getPath(m map[string]any, path string) any {
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := mm[p]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func orDefaultString(s, d string) string {
	if strings.TrimSpace(s) == "" {
		return d
	}
	return s
}
