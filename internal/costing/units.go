package costing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidInput reports a quantity, unit or amount that cannot be costed.
var ErrInvalidInput = errors.New("invalid input")

// Unit is a measurement unit understood by the normalizer.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLiter      Unit = "L"
	UnitMilliliter Unit = "mL"
	UnitPiece      Unit = "unit"
)

// bulkFactor is the multiplier from a purchase unit to its usage unit.
const bulkFactor = 1000.0

var unitAliases = map[string]Unit{
	"kg":       UnitKilogram,
	"kilo":     UnitKilogram,
	"kilogram": UnitKilogram,
	"g":        UnitGram,
	"gr":       UnitGram,
	"gram":     UnitGram,
	"grama":    UnitGram,
	"l":        UnitLiter,
	"lt":       UnitLiter,
	"liter":    UnitLiter,
	"litro":    UnitLiter,
	"ml":       UnitMilliliter,
	"unit":     UnitPiece,
	"un":       UnitPiece,
	"unidade":  UnitPiece,
	"pcs":      UnitPiece,
}

// ParseUnit resolves a user-entered unit label, ignoring case and surrounding space.
func ParseUnit(label string) (Unit, error) {
	unit, ok := unitAliases[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return "", fmt.Errorf("%w: unknown unit %q", ErrInvalidInput, label)
	}
	return unit, nil
}

// UsageUnit returns the base unit recipes consume for the given purchase unit.
func (u Unit) UsageUnit() Unit {
	switch u {
	case UnitKilogram:
		return UnitGram
	case UnitLiter:
		return UnitMilliliter
	default:
		return u
	}
}

// Quantity is an amount expressed in a usage unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// Normalize converts a purchase-package quantity into its usage unit. Kilograms and
// liters are scaled by 1000; every other unit passes through unchanged.
func Normalize(unit Unit, qty float64) (Quantity, error) {
	if err := checkPositive("package quantity", qty); err != nil {
		return Quantity{}, err
	}
	switch unit {
	case UnitKilogram, UnitLiter:
		return Quantity{Value: qty * bulkFactor, Unit: unit.UsageUnit()}, nil
	case UnitGram, UnitMilliliter, UnitPiece:
		return Quantity{Value: qty, Unit: unit}, nil
	default:
		return Quantity{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidInput, unit)
	}
}

func checkPositive(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, field)
	}
	if value <= 0 {
		return fmt.Errorf("%w: %s must be greater than zero", ErrInvalidInput, field)
	}
	return nil
}
