package geomentions

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	check "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { check.TestingT(t) }

type GeoMentionsSuite struct {
	gm *GeoMentions
}

var _ = check.Suite(&GeoMentionsSuite{})

func (s *GeoMentionsSuite) SetUpSuite(c *check.C) {
	var err error
	s.gm, err = New(WithLogger(zap.NewNop()))
	c.Assert(err, check.IsNil)
}

func (s *GeoMentionsSuite) TestNew(c *check.C) {
	c.Assert(s.gm, check.Not(check.IsNil))
	c.Assert(s.gm.Cities().Len(), check.Not(check.Equals), 0)
	c.Assert(s.gm.Countries().Len(), check.Not(check.Equals), 0)

	rec, ok := s.gm.Cities().Lookup("Paris")
	c.Assert(ok, check.Equals, true)
	c.Assert(rec.CountryCode, check.Equals, "FR")
	c.Assert(rec.TimeZone, check.Equals, "Europe/Paris")
}

func (s *GeoMentionsSuite) TestFit(c *check.C) {
	res := s.gm.Fit("I love Paris and France. Paris is beautiful.")

	c.Assert(res.Cities, check.HasLen, 1)
	c.Assert(res.Cities[0].Name, check.Equals, "Paris")
	c.Assert(res.Cities[0].Count, check.Equals, 2)
	c.Assert(res.Cities[0].CountryCode, check.Equals, "FR")

	c.Assert(res.Countries, check.HasLen, 1)
	c.Assert(res.Countries[0].Name, check.Equals, "France")
	c.Assert(res.Countries[0].Count, check.Equals, 1)

	c.Assert(res.CountryRollup(), check.DeepEquals, map[string]CountryCount{
		"FR": {TotalCount: 3, ImplicitCount: 2, ExplicitCount: 1},
	})
	c.Assert(res.String(), check.Equals, "Result(cities=2, countries=1)")
}

func (s *GeoMentionsSuite) TestFitAlternateNames(c *check.C) {
	res := s.gm.Fit("Londres, London and Лондон. Then Munich, or München as Deutschland calls it.")

	c.Assert(res.Cities, check.HasLen, 2)
	c.Assert(res.Cities[0].Name, check.Equals, "London")
	c.Assert(res.Cities[0].Count, check.Equals, 3)
	c.Assert(res.Cities[1].Name, check.Equals, "Munich")
	c.Assert(res.Cities[1].Count, check.Equals, 2)

	c.Assert(res.Countries, check.HasLen, 1)
	c.Assert(res.Countries[0].Name, check.Equals, "Germany")
}

func (s *GeoMentionsSuite) TestFitBigrams(c *check.C) {
	res := s.gm.Fit("From New York to Buenos Aires via Mexico City, Mexico.")

	names := make([]string, 0, len(res.Cities))
	for _, m := range res.Cities {
		names = append(names, m.Name)
	}
	c.Assert(names, check.DeepEquals, []string{"New York City", "Buenos Aires", "Mexico City"})

	// The "Mexico City" bigram consumes "Mexico" for the city pass only.
	// The country pass keeps both occurrences.
	c.Assert(res.Countries, check.HasLen, 1)
	c.Assert(res.Countries[0].Name, check.Equals, "Mexico")
	c.Assert(res.Countries[0].Count, check.Equals, 2)
}

func (s *GeoMentionsSuite) TestFitEmpty(c *check.C) {
	for _, text := range []string{"", "   ", "?!", "nothing to see here"} {
		res := s.gm.Fit(text)
		c.Assert(res, check.Not(check.IsNil))
		c.Assert(res.Cities, check.HasLen, 0)
		c.Assert(res.Countries, check.HasLen, 0)
		c.Assert(res.CountryRollup(), check.HasLen, 0)

		b, err := json.Marshal(res)
		c.Assert(err, check.IsNil)
		c.Assert(string(b), check.Equals, `{"city_mentions":[],"country_mentions":[]}`)
	}
}

func (s *GeoMentionsSuite) TestFitCaseSensitive(c *check.C) {
	res := s.gm.Fit("paris PARIS Paris")
	c.Assert(res.Cities, check.HasLen, 1)
	c.Assert(res.Cities[0].Count, check.Equals, 1)
}

func (s *GeoMentionsSuite) TestRawNames(c *check.C) {
	raw, err := New(WithStandardizeNames(false), WithLogger(zap.NewNop()))
	c.Assert(err, check.IsNil)

	res := raw.Fit("NYC is New York. NYC never sleeps.")
	c.Assert(res.Cities, check.HasLen, 2)
	c.Assert(res.Cities[0].Name, check.Equals, "NYC")
	c.Assert(res.Cities[0].Count, check.Equals, 2)
	c.Assert(res.Cities[1].Name, check.Equals, "New York")
	c.Assert(res.Cities[1].Count, check.Equals, 1)
	c.Assert(res.Cities[1].CountryCode, check.Equals, "US")

	std := s.gm.Fit("NYC is New York. NYC never sleeps.")
	c.Assert(std.Cities, check.HasLen, 1)
	c.Assert(std.Cities[0].Name, check.Equals, "New York City")
	c.Assert(std.Cities[0].Count, check.Equals, 3)
}

func (s *GeoMentionsSuite) TestFoldedIndexFiles(c *check.C) {
	dir := c.MkDir()
	_, err := writeIndex(dir, CityIndexFile, map[string]any{
		"paris":    indexEntry(paris),
		"new york": indexEntry(nyc),
	})
	c.Assert(err, check.IsNil)
	_, err = writeIndex(dir, CountryIndexFile, map[string]any{
		"france": indexEntry(france),
	})
	c.Assert(err, check.IsNil)

	text := "I love Paris and France. Paris is beautiful."

	exact, err := New(WithDataDir(dir), WithLogger(zap.NewNop()))
	c.Assert(err, check.IsNil)
	res := exact.Fit(text)
	c.Assert(res.Cities, check.HasLen, 0)
	c.Assert(res.Countries, check.HasLen, 0)

	folded, err := New(WithDataDir(dir), WithFoldedKeys(), WithLogger(zap.NewNop()))
	c.Assert(err, check.IsNil)
	res = folded.Fit(text)
	c.Assert(res.Cities, check.HasLen, 1)
	c.Assert(res.Cities[0].Count, check.Equals, 2)
	c.Assert(res.Countries, check.HasLen, 1)
	c.Assert(res.CountryRollup()["FR"], check.Equals, CountryCount{TotalCount: 3, ImplicitCount: 2, ExplicitCount: 1})
}

func (s *GeoMentionsSuite) TestExplicitIndexPaths(c *check.C) {
	dir := c.MkDir()
	cityPath, err := writeIndex(dir, "c.json.gz", map[string]any{"Berlin": indexEntry(berlin)})
	c.Assert(err, check.IsNil)

	gm, err := New(WithCityIndex(cityPath), WithLogger(zap.NewNop()))
	c.Assert(err, check.IsNil)
	c.Assert(gm.Cities().Len(), check.Equals, 1)
	// The country gazetteer still resolves through the default chain.
	c.Assert(gm.Countries().Len(), check.Equals, s.gm.Countries().Len())

	missing := dir + "/missing.json.gz"
	_, err = New(WithCountryIndex(missing), WithLogger(zap.NewNop()))
	c.Assert(err, check.NotNil)
	var dle *DataLoadError
	c.Assert(errors.As(err, &dle), check.Equals, true)
	c.Assert(dle.Source, check.Equals, missing)
}

func (s *GeoMentionsSuite) TestDataDirFallback(c *check.C) {
	gm, err := New(WithDataDir(c.MkDir()+"/does-not-exist"), WithLogger(zap.NewNop()))
	c.Assert(err, check.IsNil)
	c.Assert(gm.Cities().Len(), check.Equals, s.gm.Cities().Len())
	c.Assert(gm.Countries().Len(), check.Equals, s.gm.Countries().Len())
}

func (s *GeoMentionsSuite) TestCorruptDataDir(c *check.C) {
	dir := c.MkDir()
	_, err := writeIndex(dir, CityIndexFile, map[string]any{"Paris": map[string]any{"name": "Paris"}})
	c.Assert(err, check.IsNil)

	_, err = New(WithDataDir(dir), WithLogger(zap.NewNop()))
	var dle *DataLoadError
	c.Assert(errors.As(err, &dle), check.Equals, true)
	c.Assert(err, check.ErrorMatches, ".*missing or negative population.*")
}

func (s *GeoMentionsSuite) TestWithGazetteers(c *check.C) {
	gm, err := New(WithGazetteers(testCities(), testCountries()), WithDataDir(c.MkDir()))
	c.Assert(err, check.IsNil)
	c.Assert(gm.Cities().Len(), check.Equals, testCities().Len())

	res := gm.Fit("Londres or London? The USA or the United States?")
	c.Assert(res.Cities, check.HasLen, 1)
	c.Assert(res.Cities[0].Count, check.Equals, 2)
	c.Assert(res.Countries, check.HasLen, 1)
	c.Assert(res.Countries[0].Name, check.Equals, "United States")
	c.Assert(res.Countries[0].Count, check.Equals, 2)
}

func (s *GeoMentionsSuite) TestFitBatch(c *check.C) {
	texts := []string{
		"Tokyo and Tokyo",
		"",
		"Paris, France",
		"Москва, Россия",
	}
	results, err := s.gm.FitBatch(context.Background(), texts)
	c.Assert(err, check.IsNil)
	c.Assert(results, check.HasLen, len(texts))

	for i, text := range texts {
		c.Assert(results[i], check.DeepEquals, s.gm.Fit(text))
	}
	c.Assert(results[3].Cities[0].Name, check.Equals, "Moscow")
	c.Assert(results[3].Countries[0].Name, check.Equals, "Russia")

	results, err = s.gm.FitBatch(context.Background(), nil)
	c.Assert(err, check.IsNil)
	c.Assert(results, check.HasLen, 0)
}

func (s *GeoMentionsSuite) TestFitBatchCancelled(c *check.C) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := s.gm.FitBatch(ctx, []string{"Paris", "Rome"})
	c.Assert(results, check.IsNil)
	c.Assert(errors.Is(err, context.Canceled), check.Equals, true)
}

func (s *GeoMentionsSuite) TestCountryName(c *check.C) {
	c.Assert(s.gm.CountryName("FR"), check.Equals, "France")
	c.Assert(s.gm.CountryName("fr"), check.Equals, "France")
	c.Assert(s.gm.CountryName("GB"), check.Equals, "United Kingdom")
	c.Assert(s.gm.CountryName("US"), check.Equals, "United States")
	c.Assert(s.gm.CountryName("ZZ"), check.Equals, "")
	c.Assert(s.gm.CountryName(""), check.Equals, "")
	c.Assert(s.gm.NumCountries() >= minCountries, check.Equals, true)
}

func (s *GeoMentionsSuite) TestDefault(c *check.C) {
	a, err := Default()
	c.Assert(err, check.IsNil)
	b, err := Default()
	c.Assert(err, check.IsNil)
	c.Assert(a == b, check.Equals, true)
}

func (s *GeoMentionsSuite) TestValidate(c *check.C) {
	c.Assert(s.gm.Validate(), check.IsNil)

	small, err := New(WithGazetteers(testCities(), testCountries()))
	c.Assert(err, check.IsNil)
	c.Assert(small.Validate(), check.ErrorMatches, "city keys too low.*")
}

func BenchmarkNew(b *testing.B) {
	for n := 0; n < b.N; n++ {
		if _, err := New(WithLogger(zap.NewNop())); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFit(b *testing.B) {
	gm, err := New(WithLogger(zap.NewNop()))
	if err != nil {
		b.Fatal(err)
	}
	text := "She moved from New York to Berlin, Germany, then spent a summer in São Paulo before settling in Tokyo's suburbs."
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		gm.Fit(text)
	}
}

func BenchmarkFitBatch(b *testing.B) {
	gm, err := New(WithLogger(zap.NewNop()))
	if err != nil {
		b.Fatal(err)
	}
	texts := make([]string, 256)
	for i := range texts {
		texts[i] = "Paris, London, Berlin and Rome are all in Europe; Mumbai is in India."
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := gm.FitBatch(context.Background(), texts); err != nil {
			b.Fatal(err)
		}
	}
}
