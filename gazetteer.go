package geomentions

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"io"
	"os"
	"sort"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/goccy/go-json"
	"github.com/golang/geo/s2"
	"github.com/klauspost/compress/gzip"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
)

// PlaceRecord is a single gazetteer entry. Several lookup keys (alternate
// names) may resolve to the same record.
type PlaceRecord struct {
	Name        string      // Standardized display name
	CountryCode string      // ISO 3166-1 alpha-2, empty when unknown
	Population  int64       // Population count
	TimeZone    string      // IANA zone name, empty when unknown
	Coordinates Coordinates // Location in degrees
}

// Coordinates is a latitude/longitude pair in degrees.
// It serializes as a two-element JSON array, the form used by the index files.
type Coordinates struct {
	Lat float64
	Lng float64
}

// LatLng converts the coordinates to an S2 point for distance computations.
func (c Coordinates) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lng)
}

// Geohash encodes the coordinates as a geohash with the given number of characters.
func (c Coordinates) Geohash(precision int) string {
	return geohash.EncodeWithPrecision(c.Lat, c.Lng, precision)
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

// Gazetteer is an immutable dictionary from lookup key to place record.
// Keys are single words or two words joined by one space.
// Safe for concurrent use; nothing mutates it after construction.
type Gazetteer struct {
	entries map[string]PlaceRecord
	fold    bool
}

// GazetteerOption configures gazetteer construction.
type GazetteerOption func(*gazetteerConfig)

type gazetteerConfig struct {
	fold bool
}

// FoldKeys makes the gazetteer case-insensitive: keys are Unicode case-folded
// at load time and every lookup folds its input the same way.
func FoldKeys() GazetteerOption {
	return func(c *gazetteerConfig) {
		c.fold = true
	}
}

// foldKey case-folds s. A Caser is stateful, so each call gets its own.
func foldKey(s string) string {
	return cases.Fold().String(s)
}

// NewGazetteer builds a gazetteer from an in-memory map. The map is copied.
//
// With FoldKeys, keys that collide after folding keep the record with the
// larger population, then the lexicographically smaller original key.
func NewGazetteer(entries map[string]PlaceRecord, opts ...GazetteerOption) *Gazetteer {
	cfg := gazetteerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	g := &Gazetteer{
		entries: make(map[string]PlaceRecord, len(entries)),
		fold:    cfg.fold,
	}
	for _, k := range keys {
		rec := entries[k]
		if !cfg.fold {
			g.entries[k] = rec
			continue
		}
		fk := foldKey(k)
		// Keys are visited in sorted order, so on equal population the
		// earlier (smaller) original key is already in place.
		if prev, ok := g.entries[fk]; ok && prev.Population >= rec.Population {
			continue
		}
		g.entries[fk] = rec
	}
	return g
}

// Lookup returns the record stored under key. The match is exact unless the
// gazetteer was built with FoldKeys.
func (g *Gazetteer) Lookup(key string) (PlaceRecord, bool) {
	if g == nil {
		return PlaceRecord{}, false
	}
	if g.fold {
		key = foldKey(key)
	}
	rec, ok := g.entries[key]
	return rec, ok
}

// Len returns the number of lookup keys.
func (g *Gazetteer) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Keys returns all lookup keys in sorted order.
func (g *Gazetteer) Keys() []string {
	if g == nil {
		return nil
	}
	keys := make([]string, 0, len(g.entries))
	for k := range g.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rawPlace mirrors one record of the index file. Pointer fields distinguish
// a missing field from its zero value.
type rawPlace struct {
	Name        *string   `json:"name"`
	CountryCode *string   `json:"country_code"`
	Population  *int64    `json:"population"`
	TimeZone    *string   `json:"timezone"`
	Coordinates []float64 `json:"coordinates"`
}

// stringInterner deduplicates repeated strings (country codes, time zones)
// so millions of alternate-name records share one backing copy.
// Used only during a single load, so it needs no locking.
type stringInterner struct {
	index map[string]string
}

func newStringInterner(capacity int) *stringInterner {
	return &stringInterner{index: make(map[string]string, capacity)}
}

func (si *stringInterner) intern(s string) string {
	if v, ok := si.index[s]; ok {
		return v
	}
	si.index[s] = s
	return s
}

// LoadGazetteer reads a compressed index file from disk.
func LoadGazetteer(path string, opts ...GazetteerOption) (*Gazetteer, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Source: path, Err: eris.Wrap(err, "open index")}
	}
	defer fh.Close()
	return ReadGazetteer(fh, path, opts...)
}

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
)

// ReadGazetteer decodes a gzip- or bzip2-compressed JSON index from r.
// source names the resource in errors. Every record is validated up front;
// the first bad record fails the whole load with a *DataLoadError.
func ReadGazetteer(r io.Reader, source string, opts ...GazetteerOption) (*Gazetteer, error) {
	raw, err := decodeIndex(r)
	if err != nil {
		return nil, &DataLoadError{Source: source, Err: err}
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	countries := newStringInterner(300)
	zones := newStringInterner(512)
	entries := make(map[string]PlaceRecord, len(raw))
	for _, k := range keys {
		rec, err := validateRecord(k, raw[k])
		if err != nil {
			return nil, &DataLoadError{Source: source, Err: err}
		}
		rec.CountryCode = countries.intern(rec.CountryCode)
		rec.TimeZone = zones.intern(rec.TimeZone)
		entries[k] = rec
	}
	return NewGazetteer(entries, opts...), nil
}

func decodeIndex(r io.Reader) (map[string]rawPlace, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(3)

	var body io.Reader
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, eris.Wrap(err, "open gzip stream")
		}
		defer zr.Close()
		body = zr
	case bytes.HasPrefix(head, bzip2Magic):
		body = bzip2.NewReader(br)
	default:
		return nil, eris.New("unrecognized compression (want gzip or bzip2)")
	}

	// The index build writes missing country codes and time zones as NaN.
	body = transform.NewReader(body, &nonFiniteToNull{})

	var raw map[string]rawPlace
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "decode index")
	}
	if raw == nil {
		return nil, eris.New("index is not a JSON object")
	}
	return raw, nil
}

func validateRecord(key string, p rawPlace) (PlaceRecord, error) {
	if key == "" || strings.TrimSpace(key) != key {
		return PlaceRecord{}, eris.Errorf("invalid key %q", key)
	}
	if p.Name == nil || *p.Name == "" {
		return PlaceRecord{}, eris.Errorf("key %q: missing name", key)
	}
	if p.Population == nil || *p.Population < 0 {
		return PlaceRecord{}, eris.Errorf("key %q: missing or negative population", key)
	}
	if len(p.Coordinates) != 2 {
		return PlaceRecord{}, eris.Errorf("key %q: coordinates must hold 2 values, got %d", key, len(p.Coordinates))
	}
	lat, lng := p.Coordinates[0], p.Coordinates[1]
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return PlaceRecord{}, eris.Errorf("key %q: coordinates (%v, %v) out of range", key, lat, lng)
	}

	rec := PlaceRecord{
		Name:        *p.Name,
		Population:  *p.Population,
		Coordinates: Coordinates{Lat: lat, Lng: lng},
	}
	if p.CountryCode != nil {
		rec.CountryCode = *p.CountryCode
	}
	if p.TimeZone != nil {
		rec.TimeZone = *p.TimeZone
	}
	return rec, nil
}
