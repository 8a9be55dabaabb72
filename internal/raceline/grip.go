package raceline

import (
	"math"

	"github.com/apexdata/trackline/internal/vehicle"
	"github.com/apexdata/trackline/internal/weather"
)

// Rainfall thresholds (mm/hr) selecting the tire compound.
const (
	rainfallWet          = 10.0
	rainfallIntermediate = 2.0
	rainfallDamp         = 0.1
	dampGripFactor       = 0.85
)

// ComputeGrip returns the weather-adjusted tire-road friction coefficient.
//
// Track temperature scales grip down by 0.3 per 100 C of deviation from the
// optimal tire temperature, clamped to [0.4, 1.0]. Rainfall selects the
// compound: wet above 10 mm/hr, intermediate above 2, damp (dry x 0.85)
// above 0.1, otherwise dry.
func ComputeGrip(veh vehicle.Config, wx weather.Config) float64 {
	tempFactor := 1.0 - math.Abs(wx.TrackTemp-veh.OptimalTireTemp)/100.0*0.3
	tempFactor = math.Max(0.4, math.Min(1.0, tempFactor))

	var friction float64
	switch {
	case wx.Rainfall > rainfallWet:
		friction = veh.TireFrictionWet
	case wx.Rainfall > rainfallIntermediate:
		friction = veh.TireFrictionIntermediate
	case wx.Rainfall > rainfallDamp:
		friction = veh.TireFrictionDry * dampGripFactor
	default:
		friction = veh.TireFrictionDry
	}
	return friction * tempFactor
}
