package geomentions

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Validation thresholds for data integrity checks. The embedded sample sits
// just above them; a full Geonames build is several orders of magnitude larger.
const (
	minCityKeys    = 50
	minCountryKeys = 40
	minCountries   = 20
)

// validationText defines a sentence with a known top city and top country.
// An empty want field means no mention of that level is expected.
type validationText struct {
	text        string
	wantCity    string
	wantCountry string
}

// knownTexts are used to validate that the loaded gazetteers and the
// normalizer agree on key form. Chosen to be unambiguous.
var knownTexts = []validationText{
	{"I love Paris and France. Paris is beautiful.", "Paris", "France"},
	{"Tokyo's population keeps growing in Japan", "Tokyo", "Japan"},
	{"She moved from New York to Berlin, Germany, then Berlin again.", "Berlin", "Germany"},
	{"Flights from São Paulo to Buenos Aires are cheap.", "São Paulo", ""},
	{"मुंबई और भारत", "Mumbai", "India"},
	{"Nothing to see here.", "", ""},
}

// ValidateData loads the gazetteers with the given options and performs
// integrity and functional checks. Returns an error if validation fails.
func ValidateData(opts ...Option) error {
	g, err := New(opts...)
	if err != nil {
		return eris.Wrap(err, "load gazetteers")
	}
	return g.Validate()
}

// Validate checks gazetteer sizes and runs the known sample texts through
// the matcher.
func (g *GeoMentions) Validate() error {
	if n := g.cities.Len(); n < minCityKeys {
		return eris.Errorf("city keys too low: got %d, want >= %d", n, minCityKeys)
	}
	if n := g.countries.Len(); n < minCountryKeys {
		return eris.Errorf("country keys too low: got %d, want >= %d", n, minCountryKeys)
	}
	if n := g.NumCountries(); n < minCountries {
		return eris.Errorf("country codes too low: got %d, want >= %d", n, minCountries)
	}

	// Always grouped by canonical name so the expectations hold whatever
	// StandardizeNames is set to.
	for _, tc := range knownTexts {
		tokens := Normalize(tc.text)
		if got := topName(Aggregate(FindMentions(tokens, g.cities), true)); got != tc.wantCity {
			return eris.Errorf("fit(%q) top city = %q, want %q", tc.text, got, tc.wantCity)
		}
		if got := topName(Aggregate(FindMentions(tokens, g.countries), true)); got != tc.wantCountry {
			return eris.Errorf("fit(%q) top country = %q, want %q", tc.text, got, tc.wantCountry)
		}
	}

	g.log.Info("gazetteers validated",
		zap.Int("city_keys", g.cities.Len()),
		zap.Int("country_keys", g.countries.Len()),
		zap.Int("texts", len(knownTexts)),
	)
	return nil
}

func topName(ms []Mention) string {
	if len(ms) == 0 {
		return ""
	}
	return ms[0].Name
}
