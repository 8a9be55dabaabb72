// Package geo provides the local flat-earth projection and small numeric
// helpers shared by the track reconstruction pipeline.
package geo

import "math"

// EarthRadiusMeters is the WGS84 equatorial radius used by the projection.
const EarthRadiusMeters = 6378137.0

// Point is a planar position in meters relative to the projection origin.
type Point struct {
	X float64
	Y float64
}

// LatLon is a geographic coordinate in decimal degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// Project converts a geographic coordinate to local planar meters around
// center using an equirectangular approximation. Valid for bounding boxes up
// to a few kilometers; the only curvature correction is the cosine scale
// factor at the center latitude.
func Project(lat, lon, centerLat, centerLon float64) Point {
	dLat := (lat - centerLat) * math.Pi / 180
	dLon := (lon - centerLon) * math.Pi / 180
	latRad := centerLat * math.Pi / 180
	return Point{
		X: EarthRadiusMeters * dLon * math.Cos(latRad),
		Y: EarthRadiusMeters * dLat,
	}
}

// Unproject is the inverse of Project for the same center.
func Unproject(p Point, centerLat, centerLon float64) LatLon {
	latRad := centerLat * math.Pi / 180
	return LatLon{
		Lat: centerLat + (p.Y/EarthRadiusMeters)*180/math.Pi,
		Lon: centerLon + (p.X/(EarthRadiusMeters*math.Cos(latRad)))*180/math.Pi,
	}
}

// Distance returns the planar distance between two projected points.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
