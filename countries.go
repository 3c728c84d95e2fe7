package geomentions

import "strings"

// loadCountryNames builds the country code -> canonical name table from the
// country gazetteer. Several keys (alternate names) point at each country, so
// the most populous record wins, then the alphabetically smaller name.
func (g *GeoMentions) loadCountryNames() {
	g.countryNamesOnce.Do(func() {
		names := make(map[string]string)
		best := make(map[string]PlaceRecord)
		for _, key := range g.countries.Keys() {
			rec, _ := g.countries.Lookup(key)
			if rec.CountryCode == "" {
				continue
			}
			prev, ok := best[rec.CountryCode]
			if ok && (prev.Population > rec.Population ||
				(prev.Population == rec.Population && prev.Name <= rec.Name)) {
				continue
			}
			best[rec.CountryCode] = rec
			names[rec.CountryCode] = rec.Name
		}
		g.countryNames = names
	})
}

// CountryName returns the canonical name for an ISO country code, or the
// empty string when the country gazetteer has no record for it.
// Examples: "FR" -> "France", "US" -> "United States"
func (g *GeoMentions) CountryName(code string) string {
	g.loadCountryNames()
	return g.countryNames[strings.ToUpper(code)]
}

// NumCountries returns the number of distinct country codes the country
// gazetteer covers.
func (g *GeoMentions) NumCountries() int {
	g.loadCountryNames()
	return len(g.countryNames)
}
