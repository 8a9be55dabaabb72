// Package weather supplies the track conditions consumed by the racing-line
// solver and parses them out of telemetry-dataset weather files. Only track
// temperature and rainfall affect grip; the rest travels through for
// reporting.
package weather

// Config is one set of track conditions.
type Config struct {
	TrackTemp     float64 `json:"track_temp"`
	AirTemp       float64 `json:"air_temp"`
	Humidity      float64 `json:"humidity"`
	Rainfall      float64 `json:"rainfall"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`
	Pressure      float64 `json:"pressure"`
}

// Default returns ideal dry conditions. These anchor the optimal grip
// baseline and must be reproducible exactly.
func Default() Config {
	return Config{
		TrackTemp:     85.0,
		AirTemp:       25.0,
		Humidity:      50,
		Rainfall:      0.0,
		WindSpeed:     0.0,
		WindDirection: 0,
		Pressure:      1013.25,
	}
}
