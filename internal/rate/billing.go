package rate

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// VolumetricDivisor converts cm³ to billable kg.
const VolumetricDivisor = 5000.0

// Parcel defaults applied to missing or unusable dimensions.
const (
	DefaultLengthCm = 20.0
	DefaultWidthCm  = 15.0
	DefaultHeightCm = 10.0
	DefaultWeightKg = 1.0

	DefaultDistanceUnit = "cm"
	DefaultMassUnit     = "kg"
)

// Linear demo pricing model.
const (
	baseFee       = 4.0
	perKm         = 0.35
	perBillableKg = 1.8
	handlingFee   = 2.5
)

// Parcel dimensions are in centimetres and weight in kilograms. The unit
// fields are only forwarded to the live provider.
type Parcel struct {
	Length       float64
	Width        float64
	Height       float64
	Weight       float64
	DistanceUnit string
	MassUnit     string
}

// WithDefaults replaces zero, negative or non-finite fields with defaults.
func (p Parcel) WithDefaults() Parcel {
	p.Length = orDefault(p.Length, DefaultLengthCm)
	p.Width = orDefault(p.Width, DefaultWidthCm)
	p.Height = orDefault(p.Height, DefaultHeightCm)
	p.Weight = orDefault(p.Weight, DefaultWeightKg)
	if p.DistanceUnit == "" {
		p.DistanceUnit = DefaultDistanceUnit
	}
	if p.MassUnit == "" {
		p.MassUnit = DefaultMassUnit
	}
	return p
}

// BillableWeightKg of the parcel as given; call WithDefaults first.
func (p Parcel) BillableWeightKg() float64 {
	return BillableWeightKg(p.Weight, p.Length, p.Width, p.Height)
}

// VolumetricWeightKg is the dimensional weight of a box measured in cm.
func VolumetricWeightKg(length, width, height float64) float64 {
	return (length * width * height) / VolumetricDivisor
}

// BillableWeightKg is the larger of the declared and volumetric weights.
func BillableWeightKg(declared, length, width, height float64) float64 {
	return math.Max(declared, VolumetricWeightKg(length, width, height))
}

// BasePrice is the demo price before the carrier multiplier.
func BasePrice(distanceKm, billableKg float64) decimal.Decimal {
	return decimal.NewFromFloat(basePrice(distanceKm, billableKg))
}

func basePrice(distanceKm, billableKg float64) float64 {
	return baseFee + perKm*distanceKm + perBillableKg*billableKg + handlingFee
}

// RoundCents rounds the exact binary value of amount to two decimals, half
// up. 1.005 is stored as 1.00499... and therefore rounds to 1.00.
func RoundCents(amount float64) decimal.Decimal {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return decimal.Zero
	}
	exact, err := decimal.NewFromString(new(big.Float).SetFloat64(amount).Text('f', 64))
	if err != nil {
		return decimal.NewFromFloat(amount).Round(2)
	}
	return exact.Round(2)
}

func orDefault(v, d float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return d
	}
	return v
}
