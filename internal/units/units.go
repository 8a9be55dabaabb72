// Package units provides shared constants and conversions for the speed and
// length units used across the pipeline and its reports.
package units

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// Length conversion factors. Internal geometry is always meters; sector
// lengths arrive in inches and circuit lengths in miles.
const (
	MetersPerInch = 0.0254
	MetersPerMile = 1609.34
)

// ValidUnits contains all valid speed unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from meters per second to the target units.
// The solver works in m/s (meters per second)
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.23694 // m/s to mph
	case KMPH, KPH:
		return speedMPS * 3.6 // m/s to km/h
	case MPS:
		return speedMPS // no conversion needed
	default:
		return speedMPS // default to m/s if unknown unit
	}
}

// InchesToMeters converts a sector length given in inches to meters.
func InchesToMeters(in float64) float64 {
	return in * MetersPerInch
}

// MilesToMeters converts a circuit length given in miles to meters.
func MilesToMeters(mi float64) float64 {
	return mi * MetersPerMile
}
