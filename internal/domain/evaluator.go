package domain

import (
	"math"
	"strings"
	"time"
)

// Matches reports whether an activity of eventType with payload p counts
// toward objective o.
func Matches(o Objective, eventType ObjectiveType, p ActivityPayload) bool {
	if o.Type != eventType {
		return false
	}

	switch o.Type {
	case ObjectiveVisitShop:
		return o.ShopID == "" || o.ShopID == p.ShopID

	case ObjectiveTryFlavor:
		if o.FlavorID != "" && o.FlavorID != p.FlavorID {
			return false
		}
		return o.Category == "" || strings.EqualFold(o.Category, p.Category)

	case ObjectiveTryFlavorCategory:
		if p.Category == "" {
			return false
		}
		return o.Category == "" || strings.EqualFold(o.Category, p.Category)

	case ObjectiveVisitLocation:
		if o.ShopID != "" && o.ShopID != p.ShopID {
			return false
		}
		if o.RadiusMeters <= 0 {
			return true
		}
		if !p.HasLocation {
			return false
		}
		return DistanceMeters(o.Latitude, o.Longitude, p.Latitude, p.Longitude) <= o.RadiusMeters

	case ObjectiveLogReviews:
		return o.ShopID == "" || o.ShopID == p.ShopID

	case ObjectiveEarnPoints:
		return p.Points > 0

	case ObjectiveCustom:
		return o.CustomKey == "" || o.CustomKey == p.CustomKey
	}
	return false
}

// Increment returns how much one matching event adds. For earn_points the
// target is a point threshold, so the event's point amount is used.
func Increment(o Objective, p ActivityPayload) int {
	if o.Type == ObjectiveEarnPoints {
		if p.Points < 0 {
			return 0
		}
		return p.Points
	}
	if p.Increment > 1 {
		return p.Increment
	}
	return 1
}

// Evaluate applies one matching event to cur. It never decrements and never
// exceeds the target. changed is false when the objective was already
// saturated. The caller is expected to have checked Matches.
func Evaluate(cur ObjectiveProgress, o Objective, p ActivityPayload, now time.Time) (next ObjectiveProgress, changed bool) {
	next = cur
	next.ObjectiveID = o.ID

	inc := Increment(o, p)
	count := cur.CurrentCount
	if count < 0 {
		count = 0
	}
	if count >= o.TargetCount || inc == 0 {
		return next, false
	}

	newCount := count + inc
	if newCount > o.TargetCount || newCount < count {
		newCount = o.TargetCount
	}

	next.CurrentCount = newCount
	next.IsCompleted = newCount >= o.TargetCount
	next.LastUpdated = now
	return next, true
}

const earthRadiusMeters = 6371000.0

// DistanceMeters is the great-circle (haversine) distance between two points.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}
