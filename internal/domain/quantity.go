package domain

// MassUnit identifies the unit a consumption quantity was reported in.
// Source vintages disagree (1000-tonne blocks vs tonnes vs kilograms), so
// quantities stay tagged until converted to kilograms at the transform
// boundary — never via loose multiplication constants mid-pipeline.
type MassUnit int

const (
	Kilograms MassUnit = iota
	Tonnes
	ThousandTonnes
)

// consumption quantity column names, one per source vintage.
const (
	ColConsumptionKg    = "consumption_kg"
	ColConsumptionT     = "consumption_t"
	ColConsumption1000T = "consumption_1000t"
)

func (u MassUnit) String() string {
	switch u {
	case Kilograms:
		return "kg"
	case Tonnes:
		return "t"
	case ThousandTonnes:
		return "1000t"
	default:
		return "unknown"
	}
}

// Column returns the consumption column name that carries this unit.
func (u MassUnit) Column() string {
	switch u {
	case Kilograms:
		return ColConsumptionKg
	case Tonnes:
		return ColConsumptionT
	case ThousandTonnes:
		return ColConsumption1000T
	default:
		return ""
	}
}

// MassUnitForColumn maps a quantity column name back to its unit.
func MassUnitForColumn(col string) (MassUnit, bool) {
	switch col {
	case ColConsumptionKg:
		return Kilograms, true
	case ColConsumptionT:
		return Tonnes, true
	case ColConsumption1000T:
		return ThousandTonnes, true
	default:
		return Kilograms, false
	}
}

// Quantity is a mass value tagged with its reporting unit.
type Quantity struct {
	Value float64
	Unit  MassUnit
}

// Kilograms converts the quantity to kilograms.
func (q Quantity) Kilograms() float64 {
	switch q.Unit {
	case ThousandTonnes:
		return q.Value * 1_000_000
	case Tonnes:
		return q.Value * 1_000
	default:
		return q.Value
	}
}
