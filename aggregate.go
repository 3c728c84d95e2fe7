package geomentions

import "sort"

// Mention is the aggregated count for one grouping key: the canonical place
// name when names are standardized, otherwise the matched surface text.
type Mention struct {
	Name        string      `json:"name"`
	Count       int         `json:"count"`
	CountryCode string      `json:"country_code"`
	Population  int64       `json:"population"`
	Coordinates Coordinates `json:"coordinates"`
}

// Aggregate collapses raw matches into one Mention per grouping key, ordered
// by count descending. Ties keep the order in which keys first appeared.
//
// When distinct records share a grouping key (two cities whose alternate
// names standardize to the same display name), the non-count fields come
// from the first match seen for that key. The result is never nil, so it
// encodes as an empty JSON array.
func Aggregate(matches []RawMatch, standardize bool) []Mention {
	mentions := []Mention{}
	if len(matches) == 0 {
		return mentions
	}

	pos := make(map[string]int)
	for _, m := range matches {
		key := m.Key
		if standardize {
			key = m.Place.Name
		}
		if i, ok := pos[key]; ok {
			mentions[i].Count++
			continue
		}
		pos[key] = len(mentions)
		mentions = append(mentions, Mention{
			Name:        key,
			Count:       1,
			CountryCode: m.Place.CountryCode,
			Population:  m.Place.Population,
			Coordinates: m.Place.Coordinates,
		})
	}

	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].Count > mentions[j].Count
	})
	return mentions
}
