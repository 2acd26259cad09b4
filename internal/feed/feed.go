// Package feed derives the visible, ordered help-request feed for a viewer.
// Everything here is pure: no clocks, no stores, no side effects.
package feed

import (
	"math"
	"sort"

	"github.com/padosi-app/backend/internal/models"
)

// RadiusKM is the visibility radius around the viewer.
const RadiusKM = 2.0

// FallbackLocation is the documented coordinate callers may substitute when
// no location fix is available. The filter itself never applies it.
var FallbackLocation = models.Coordinate{Lat: 28.6139, Lng: 77.2090}

// Sort modes for the feed.
const (
	SortDistance = "Distance"
	SortNewest   = "Newest"
	SortPriority = "Priority"
)

// CategoryAll disables category filtering.
const CategoryAll = "All"

var priorityRank = map[string]int{"High": 0, "Medium": 1, "Low": 2}

// Item is a help request annotated with the computed viewer distance.
type Item struct {
	models.HelpRequest
	Distance float64 `json:"distance"`
}

const earthRadiusKM = 6371.0

// Haversine returns the great-circle distance between two coordinates in km.
func Haversine(a, b models.Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

// Build filters and orders open requests for a viewer. A nil viewer location
// yields an empty feed; callers wanting a default must substitute
// FallbackLocation themselves. Input order is preserved for ties under the
// Distance sort, so pass requests newest-first.
func Build(requests []models.HelpRequest, viewer *models.Coordinate, category, sortMode string) []Item {
	if viewer == nil {
		return []Item{}
	}

	items := make([]Item, 0, len(requests))
	for _, req := range requests {
		if req.Status != models.StatusOpen {
			continue
		}
		if category != "" && category != CategoryAll && req.Category != category {
			continue
		}
		d := Haversine(*viewer, models.Coordinate{Lat: req.Lat, Lng: req.Lng})
		if d > RadiusKM {
			continue
		}
		items = append(items, Item{HelpRequest: req, Distance: d})
	}

	switch sortMode {
	case SortNewest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	case SortPriority:
		sort.SliceStable(items, func(i, j int) bool {
			ri, rj := priorityRank[items[i].Priority], priorityRank[items[j].Priority]
			if ri != rj {
				return ri < rj
			}
			return items[i].Distance < items[j].Distance
		})
	default: // SortDistance
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Distance < items[j].Distance
		})
	}
	return items
}
