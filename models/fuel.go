package models

import (
	"encoding/json"
	"fmt"
)

// Fuel is a national generation fuel category. The set is closed: decoding
// any value outside Fuels fails.
type Fuel string

const (
	FuelGas     Fuel = "gas"
	FuelCoal    Fuel = "coal"
	FuelNuclear Fuel = "nuclear"
	FuelBiomass Fuel = "biomass"
	FuelHydro   Fuel = "hydro"
	FuelImports Fuel = "imports"
	FuelSolar   Fuel = "solar"
	FuelWind    Fuel = "wind"
	FuelOther   Fuel = "other"
)

// Fuels is the full enumeration in its canonical order. Ties in the averaged
// fuel mix keep this order.
var Fuels = []Fuel{
	FuelGas,
	FuelCoal,
	FuelNuclear,
	FuelBiomass,
	FuelHydro,
	FuelImports,
	FuelSolar,
	FuelWind,
	FuelOther,
}

// Valid reports whether f belongs to the enumeration.
func (f Fuel) Valid() bool {
	for _, known := range Fuels {
		if f == known {
			return true
		}
	}
	return false
}

func (f Fuel) String() string {
	return string(f)
}

func (f *Fuel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("fuel must be a string: %w", err)
	}
	fuel := Fuel(s)
	if !fuel.Valid() {
		return fmt.Errorf("unknown fuel category %q", s)
	}
	*f = fuel
	return nil
}

// FuelShare is a (fuel, percentage) pair.
type FuelShare struct {
	Fuel Fuel    `json:"fuel"`
	Perc float64 `json:"perc"`
}
