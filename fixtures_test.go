package geomentions

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

func place(name, country string, population int64, lat, lng float64) PlaceRecord {
	return PlaceRecord{
		Name:        name,
		CountryCode: country,
		Population:  population,
		TimeZone:    "UTC",
		Coordinates: Coordinates{Lat: lat, Lng: lng},
	}
}

var (
	paris   = place("Paris", "FR", 2138551, 48.85341, 2.3488)
	london  = place("London", "GB", 8961989, 51.50853, -0.12574)
	berlin  = place("Berlin", "DE", 3426354, 52.52437, 13.41053)
	nyc     = place("New York City", "US", 8804190, 40.71427, -74.00597)
	york    = place("York", "GB", 153717, 53.95763, -1.08271)
	nowhere = place("Nowhere", "", 1200, 0.5, 0.5)

	france  = place("France", "FR", 64768389, 46.0, 2.0)
	germany = place("Germany", "DE", 82927922, 51.5, 10.5)
	usa     = place("United States", "US", 327167434, 39.76, -98.5)
)

// testCities is a small hand-built city gazetteer with exact-case keys.
func testCities() *Gazetteer {
	return NewGazetteer(map[string]PlaceRecord{
		"Paris":         paris,
		"London":        london,
		"Londres":       london,
		"Berlin":        berlin,
		"New York":      nyc,
		"New York City": nyc,
		"NYC":           nyc,
		"York":          york,
		"Nowhere":       nowhere,
	})
}

func testCountries() *Gazetteer {
	return NewGazetteer(map[string]PlaceRecord{
		"France":        france,
		"Germany":       germany,
		"United States": usa,
		"USA":           usa,
	})
}

// indexEntry is the on-disk record shape written by the offline index build.
func indexEntry(p PlaceRecord) map[string]any {
	var cc any
	if p.CountryCode != "" {
		cc = p.CountryCode
	}
	return map[string]any{
		"name":         p.Name,
		"country_code": cc,
		"population":   p.Population,
		"timezone":     p.TimeZone,
		"coordinates":  []float64{p.Coordinates.Lat, p.Coordinates.Lng},
	}
}

// gzipJSON encodes v as gzip-compressed JSON, like the shipped index files.
func gzipJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return gzipBytes(b)
}

// gzipBytes compresses raw, which need not be valid JSON.
func gzipBytes(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeIndex writes v as a gzip JSON index file named name under dir.
func writeIndex(dir, name string, v any) (string, error) {
	b, err := gzipJSON(v)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, b, 0644)
}
