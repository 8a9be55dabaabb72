package weather

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Weather files are semicolon-separated telemetry exports named
// 26_Weather_<race>_*.CSV with columns:
//
//	0 timestamp, 1 datetime, 2 air temp (C), 3 unused, 4 humidity (%),
//	5 pressure (mbar), 6 wind speed (m/s), 7 wind direction (deg),
//	8 rainfall (mm/hr)
//
// An optional header row is detected by a non-numeric air-temp column.

const weatherColumns = 9

// ParseFile reads one weather CSV and reduces it to a Config using the
// median of each column, which keeps sensor outliers out of the grip model.
// Track temperature is estimated as air temperature + 10 C.
func ParseFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Default(), err
	}
	defer f.Close()

	var (
		airTemps, humidities, pressures []float64
		windSpeeds, windDirs, rainfalls []float64
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), ";")
		if len(fields) < weatherColumns {
			continue
		}
		airTemp, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			// Header or malformed row.
			continue
		}
		humidity, err1 := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
		pressure, err2 := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
		windSpeed, err3 := strconv.ParseFloat(strings.TrimSpace(fields[6]), 64)
		windDir, err4 := strconv.ParseFloat(strings.TrimSpace(fields[7]), 64)
		rainfall, err5 := strconv.ParseFloat(strings.TrimSpace(fields[8]), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		airTemps = append(airTemps, airTemp)
		humidities = append(humidities, humidity)
		pressures = append(pressures, pressure)
		windSpeeds = append(windSpeeds, windSpeed)
		windDirs = append(windDirs, windDir)
		rainfalls = append(rainfalls, rainfall)
	}
	if err := scanner.Err(); err != nil {
		return Default(), err
	}
	if len(airTemps) == 0 {
		log.Printf("[Weather] no valid rows in %s, using defaults", filepath.Base(path))
		return Default(), nil
	}

	airTemp := median(airTemps)
	cfg := Config{
		TrackTemp:     airTemp + 10.0,
		AirTemp:       airTemp,
		Humidity:      median(humidities),
		Pressure:      median(pressures),
		WindSpeed:     median(windSpeeds),
		WindDirection: median(windDirs),
		Rainfall:      median(rainfalls),
	}
	log.Printf("[Weather] %s: air=%.1fC track=%.1fC humidity=%.0f%% rain=%.1fmm/hr wind=%.1fm/s",
		filepath.Base(path), cfg.AirTemp, cfg.TrackTemp, cfg.Humidity, cfg.Rainfall, cfg.WindSpeed)
	return cfg, nil
}

// FindFile locates the weather CSV for a dataset folder, preferring the
// named race when given.
func FindFile(datasetDir, raceName string) (string, error) {
	pattern := "26_Weather_*.CSV"
	if raceName != "" {
		pattern = fmt.Sprintf("26_Weather_%s_*.CSV", raceName)
	}
	matches, err := filepath.Glob(filepath.Join(datasetDir, pattern))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no weather file matching %s in %s", pattern, datasetDir)
	}
	sort.Strings(matches)
	return matches[0], nil
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
