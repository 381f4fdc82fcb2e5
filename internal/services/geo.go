package services

import (
	"math"

	"festival-cleanup-backend/internal/models"
)

const earthRadiusMeters = 6371e3
const defaultRadiusMeters = 1500

// haversineMeters returns the great-circle distance between two coordinates.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dPhi := toRad(lat2 - lat1)
	dLambda := toRad(lng2 - lng1)

	a := math.Pow(math.Sin(dPhi/2), 2) + math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// insideFestival reports whether the client position is within the festival
// geofence. Festivals without a configured center accept any position;
// festivals with one require client coordinates.
func insideFestival(festival *models.Festival, lat, lng *float64) bool {
	if festival.CenterLat == nil || festival.CenterLng == nil {
		return true
	}
	if lat == nil || lng == nil {
		return false
	}
	radius := float64(defaultRadiusMeters)
	if festival.RadiusMeters != nil {
		radius = float64(*festival.RadiusMeters)
	}
	return haversineMeters(*lat, *lng, *festival.CenterLat, *festival.CenterLng) <= radius
}
