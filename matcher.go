package geomentions

// RawMatch pairs the literal text that hit the gazetteer with the record it
// resolved to. Key is a single token or two tokens joined by one space.
type RawMatch struct {
	Key   string
	Place PlaceRecord
}

// FindMentions looks tokens up in g, bigrams first.
//
// Every adjacent pair is probed left to right, including pairs that overlap
// an earlier hit. Each bigram hit marks both of its words as consumed; the
// unigram pass that follows skips consumed words wherever they occur. A
// single-token input is looked up as a unigram only.
func FindMentions(tokens []string, g *Gazetteer) []RawMatch {
	if len(tokens) == 0 {
		return nil
	}

	var matches []RawMatch
	if len(tokens) == 1 {
		if rec, ok := g.Lookup(tokens[0]); ok {
			matches = append(matches, RawMatch{Key: tokens[0], Place: rec})
		}
		return matches
	}

	consumed := make(map[string]struct{})
	for i := 0; i < len(tokens)-1; i++ {
		key := tokens[i] + " " + tokens[i+1]
		if rec, ok := g.Lookup(key); ok {
			matches = append(matches, RawMatch{Key: key, Place: rec})
			consumed[tokens[i]] = struct{}{}
			consumed[tokens[i+1]] = struct{}{}
		}
	}

	for _, tok := range tokens {
		if _, ok := consumed[tok]; ok {
			continue
		}
		if rec, ok := g.Lookup(tok); ok {
			matches = append(matches, RawMatch{Key: tok, Place: rec})
		}
	}
	return matches
}
