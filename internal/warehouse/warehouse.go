package warehouse

import (
	"fmt"
	"slices"
	"strings"

	"shipquote/internal/errs"
	"shipquote/internal/geo"
)

// AutoOrigin asks Select to pick the warehouse closest to the destination.
const AutoOrigin = "auto"

// Warehouse is an origin location together with the carriers allowed to
// collect from it.
type Warehouse struct {
	ID              string   `json:"id" mapstructure:"id"`
	Country         string   `json:"country" mapstructure:"country"`
	Zip             string   `json:"zip" mapstructure:"zip"`
	CarriersAllowed []string `json:"carriers_allowed" mapstructure:"carriers_allowed"`
}

// Allows reports whether carrier may ship from the warehouse.
func (w Warehouse) Allows(carrier string) bool {
	return slices.Contains(w.CarriersAllowed, carrier)
}

// Select returns the warehouse named by explicitID when it exists in the
// catalog. Otherwise it returns the warehouse whose country center is
// closest to the destination country; ties go to the earlier catalog entry.
func Select(warehouses []Warehouse, explicitID, toCountry string) (Warehouse, error) {
	if len(warehouses) == 0 {
		return Warehouse{}, errs.NewConfigurationError("warehouse catalog is empty")
	}

	id := strings.TrimSpace(explicitID)
	if id != "" && id != AutoOrigin {
		for _, w := range warehouses {
			if w.ID == id {
				return w, nil
			}
		}
	}

	best := 0
	bestDist := geo.CountryDistanceKm(warehouses[0].Country, toCountry)
	for i := 1; i < len(warehouses); i++ {
		if d := geo.CountryDistanceKm(warehouses[i].Country, toCountry); d < bestDist {
			best, bestDist = i, d
		}
	}
	return warehouses[best], nil
}

// validate rejects catalog entries that cannot be quoted from.
func validate(warehouses []Warehouse) error {
	for i, w := range warehouses {
		if strings.TrimSpace(w.ID) == "" {
			return errs.NewConfigurationError(fmt.Sprintf("warehouse #%d has no id", i))
		}
		if strings.TrimSpace(w.Country) == "" {
			return errs.NewConfigurationError("warehouse " + w.ID + " has no country")
		}
	}
	return nil
}
