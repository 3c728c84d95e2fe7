package geomentions

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/s2"
)

// earthRadiusKm is the mean Earth radius used to turn S2 angles into distances.
const earthRadiusKm = 6371.0088

// Result holds the aggregated city and country mentions of one Fit call.
// All query methods build fresh slices and maps; a Result never changes after
// Fit returns, so it can be shared between goroutines.
type Result struct {
	Cities    []Mention `json:"city_mentions"`
	Countries []Mention `json:"country_mentions"`
}

// CountryCount splits a country's mention total into the part implied by
// its cities and the part from direct country-name matches.
type CountryCount struct {
	TotalCount    int `json:"total_count"`
	ImplicitCount int `json:"implicit_count"`
	ExplicitCount int `json:"explicit_count"`
}

// Hotspot is the total city mention count inside one geohash cell.
type Hotspot struct {
	Geohash string   `json:"geohash"`
	Count   int      `json:"count"`
	Cities  []string `json:"cities"`
}

func (r *Result) String() string {
	return fmt.Sprintf("Result(cities=%d, countries=%d)", sumCounts(r.Cities), sumCounts(r.Countries))
}

func sumCounts(ms []Mention) int {
	n := 0
	for _, m := range ms {
		n += m.Count
	}
	return n
}

type cityFilter struct {
	minPopulation *int64
	maxPopulation *int64
	countryCode   *string
}

// FilterOption narrows the result of FilterCities.
type FilterOption func(*cityFilter)

// MinPopulation keeps cities with population >= n.
func MinPopulation(n int64) FilterOption {
	return func(f *cityFilter) {
		f.minPopulation = &n
	}
}

// MaxPopulation keeps cities with population <= n.
func MaxPopulation(n int64) FilterOption {
	return func(f *cityFilter) {
		f.maxPopulation = &n
	}
}

// InCountry keeps cities whose country code equals code.
func InCountry(code string) FilterOption {
	return func(f *cityFilter) {
		f.countryCode = &code
	}
}

// FilterCities returns the city mentions that pass every given filter, in
// their original order. Without options it returns a copy of all cities.
// Contradictory bounds (min > max) simply match nothing. The result is
// never nil.
func (r *Result) FilterCities(opts ...FilterOption) []Mention {
	var f cityFilter
	for _, opt := range opts {
		opt(&f)
	}

	out := []Mention{}
	for _, m := range r.Cities {
		if f.minPopulation != nil && m.Population < *f.minPopulation {
			continue
		}
		if f.maxPopulation != nil && m.Population > *f.maxPopulation {
			continue
		}
		if f.countryCode != nil && m.CountryCode != *f.countryCode {
			continue
		}
		out = append(out, m)
	}
	return out
}

// CountryRollup sums mention counts per country code. City mentions count
// as implicit mentions of their country, country mentions as explicit ones.
// City mentions without a country code are left out, and so are country
// mentions without one, so the explicit side never has an empty-code entry.
func (r *Result) CountryRollup() map[string]CountryCount {
	rollup := make(map[string]CountryCount)
	for _, m := range r.Cities {
		if m.CountryCode == "" {
			continue
		}
		c := rollup[m.CountryCode]
		c.ImplicitCount += m.Count
		c.TotalCount += m.Count
		rollup[m.CountryCode] = c
	}
	for _, m := range r.Countries {
		if m.CountryCode == "" {
			continue
		}
		c := rollup[m.CountryCode]
		c.ExplicitCount += m.Count
		c.TotalCount += m.Count
		rollup[m.CountryCode] = c
	}
	return rollup
}

// ToMap converts the result into plain nested maps and slices, with the
// same field names as the JSON encoding.
func (r *Result) ToMap() map[string]any {
	return map[string]any{
		"city_mentions":    mentionMaps(r.Cities),
		"country_mentions": mentionMaps(r.Countries),
	}
}

func mentionMaps(ms []Mention) []map[string]any {
	out := make([]map[string]any, 0, len(ms))
	for _, m := range ms {
		out = append(out, map[string]any{
			"name":         m.Name,
			"count":        m.Count,
			"country_code": m.CountryCode,
			"population":   m.Population,
			"coordinates":  []float64{m.Coordinates.Lat, m.Coordinates.Lng},
		})
	}
	return out
}

// CitiesNear returns the city mentions within radiusKm of (lat, lng),
// measured along the great circle, in their original order.
func (r *Result) CitiesNear(lat, lng, radiusKm float64) []Mention {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsNaN(radiusKm) ||
		math.IsInf(lat, 0) || math.IsInf(lng, 0) || radiusKm < 0 {
		return nil
	}

	origin := s2.LatLngFromDegrees(lat, lng)
	var out []Mention
	for _, m := range r.Cities {
		dist := origin.Distance(m.Coordinates.LatLng()).Radians() * earthRadiusKm
		if dist <= radiusKm {
			out = append(out, m)
		}
	}
	return out
}

// maxGeohashPrecision is the longest geohash geohash-golang encodes meaningfully.
const maxGeohashPrecision = 12

// CityHotspots rolls city mention counts up into geohash cells of the given
// precision (1-12 characters; out-of-range values are clamped). Cells are
// ordered by count descending, ties by first appearance.
func (r *Result) CityHotspots(precision int) []Hotspot {
	precision = min(max(precision, 1), maxGeohashPrecision)

	pos := make(map[string]int)
	var spots []Hotspot
	for _, m := range r.Cities {
		cell := m.Coordinates.Geohash(precision)
		if i, ok := pos[cell]; ok {
			spots[i].Count += m.Count
			spots[i].Cities = append(spots[i].Cities, m.Name)
			continue
		}
		pos[cell] = len(spots)
		spots = append(spots, Hotspot{Geohash: cell, Count: m.Count, Cities: []string{m.Name}})
	}

	sort.SliceStable(spots, func(i, j int) bool {
		return spots[i].Count > spots[j].Count
	})
	return spots
}
