// Package geomentions finds mentions of cities and countries in free text.
//
// Text is normalized into word tokens, looked up bigram-first against two
// Geonames-derived gazetteers (cities and countries), and the hits are
// aggregated into ranked counts:
//
//	gm, err := geomentions.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res := gm.Fit("I love Paris and France. Paris is beautiful.")
//	fmt.Println(res.Cities[0].Name, res.Cities[0].Count) // Paris 2
//	fmt.Println(res.CountryRollup()["FR"].TotalCount)   // 3
//
// A GeoMentions instance is immutable after New returns and safe for
// concurrent use.
package geomentions

import (
	"context"
	"embed"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed geomentions-data
var indexData embed.FS

// Index file names, looked up inside the data directory.
const (
	CityIndexFile    = "city_index.json.gz"
	CountryIndexFile = "country_index.json.gz"
)

// embeddedDataDir is both the default on-disk data directory and the
// directory name inside the embedded filesystem.
const embeddedDataDir = "geomentions-data"

// Config contains configuration options for GeoMentions initialization.
type Config struct {
	DataDir          string // Directory searched for index files (default: "./geomentions-data")
	CityIndexPath    string // Explicit city index file; disables the embedded fallback
	CountryIndexPath string // Explicit country index file; disables the embedded fallback
	StandardizeNames bool   // Group mentions by canonical name (default: true)
	FoldKeys         bool   // Case-insensitive lookups
	Workers          int    // FitBatch concurrency (default: GOMAXPROCS)
	Logger           *zap.Logger

	cities    *Gazetteer
	countries *Gazetteer
}

// Option is a functional option for configuring GeoMentions.
type Option func(*Config)

// WithDataDir sets the directory searched for index files before falling
// back to the embedded copies.
func WithDataDir(dir string) Option {
	return func(c *Config) {
		c.DataDir = dir
	}
}

// WithCityIndex loads the city gazetteer from path, with no fallback.
func WithCityIndex(path string) Option {
	return func(c *Config) {
		c.CityIndexPath = path
	}
}

// WithCountryIndex loads the country gazetteer from path, with no fallback.
func WithCountryIndex(path string) Option {
	return func(c *Config) {
		c.CountryIndexPath = path
	}
}

// WithStandardizeNames chooses between grouping mentions by canonical place
// name (true) or by the literal matched text (false).
func WithStandardizeNames(standardize bool) Option {
	return func(c *Config) {
		c.StandardizeNames = standardize
	}
}

// WithFoldedKeys makes both gazetteers case-insensitive. Use it with index
// files whose keys were lowercased at build time.
func WithFoldedKeys() Option {
	return func(c *Config) {
		c.FoldKeys = true
	}
}

// WithGazetteers uses already-built gazetteers instead of loading files.
func WithGazetteers(cities, countries *Gazetteer) Option {
	return func(c *Config) {
		c.cities = cities
		c.countries = countries
	}
}

// WithWorkers bounds the number of texts FitBatch processes at once.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithLogger sets the logger. Defaults to zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	return &Config{
		DataDir:          "./" + embeddedDataDir,
		StandardizeNames: true,
		Workers:          runtime.GOMAXPROCS(0),
	}
}

// GeoMentions extracts place mentions from text using preloaded city and
// country gazetteers. Safe for concurrent use after initialization.
type GeoMentions struct {
	cities    *Gazetteer
	countries *Gazetteer
	config    *Config
	log       *zap.Logger

	countryNamesOnce sync.Once
	countryNames     map[string]string
}

// Singleton pattern for the default instance.
var (
	defaultMentions     *GeoMentions
	defaultMentionsOnce sync.Once
	defaultMentionsErr  error
)

// Default returns a shared GeoMentions instance with the default
// configuration, initializing it on first call.
func Default() (*GeoMentions, error) {
	defaultMentionsOnce.Do(func() {
		defaultMentions, defaultMentionsErr = New()
	})
	return defaultMentions, defaultMentionsErr
}

// New creates a GeoMentions instance with both gazetteers loaded into memory.
// Loading is eager; a missing or malformed index aborts construction with a
// *DataLoadError.
//
//	gm, err := New(WithDataDir("/srv/geonames"), WithStandardizeNames(false))
func New(opts ...Option) (*GeoMentions, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}

	g := &GeoMentions{
		cities:    cfg.cities,
		countries: cfg.countries,
		config:    cfg,
		log:       logger.With(zap.String("component", "geomentions")),
	}

	var err error
	if g.cities == nil {
		if g.cities, err = g.loadIndex(cfg.CityIndexPath, CityIndexFile); err != nil {
			return nil, err
		}
	}
	if g.countries == nil {
		if g.countries, err = g.loadIndex(cfg.CountryIndexPath, CountryIndexFile); err != nil {
			return nil, err
		}
	}

	g.log.Info("gazetteers ready",
		zap.Int("city_keys", g.cities.Len()),
		zap.Int("country_keys", g.countries.Len()),
		zap.Bool("standardize_names", cfg.StandardizeNames),
	)
	return g, nil
}

// loadIndex resolves and decodes one index file. An explicit path is used
// as-is; otherwise the data directory wins over the embedded copy so fresh
// files can override what was compiled in.
func (g *GeoMentions) loadIndex(explicitPath, name string) (*Gazetteer, error) {
	var gopts []GazetteerOption
	if g.config.FoldKeys {
		gopts = append(gopts, FoldKeys())
	}

	fh, source, err := g.openIndex(explicitPath, name)
	if err != nil {
		return nil, &DataLoadError{Source: source, Err: err}
	}
	defer fh.Close()

	gz, err := ReadGazetteer(fh, source, gopts...)
	if err != nil {
		return nil, err
	}
	g.log.Info("loaded gazetteer", zap.String("source", source), zap.Int("keys", gz.Len()))
	return gz, nil
}

func (g *GeoMentions) openIndex(explicitPath, name string) (io.ReadCloser, string, error) {
	if explicitPath != "" {
		fh, err := os.Open(explicitPath)
		if err != nil {
			return nil, explicitPath, eris.Wrap(err, "open index")
		}
		return fh, explicitPath, nil
	}

	onDisk := filepath.Join(g.config.DataDir, name)
	if fh, err := os.Open(onDisk); err == nil {
		return fh, onDisk, nil
	}

	embedded := path.Join(embeddedDataDir, name)
	fh, err := indexData.Open(embedded)
	if err != nil {
		return nil, "embedded:" + embedded, eris.Wrap(err, "open embedded index")
	}
	return fh, "embedded:" + embedded, nil
}

// Cities returns the city gazetteer.
func (g *GeoMentions) Cities() *Gazetteer {
	return g.cities
}

// Countries returns the country gazetteer.
func (g *GeoMentions) Countries() *Gazetteer {
	return g.countries
}

// Fit extracts and aggregates the city and country mentions in text.
// It never fails: text without any known place yields an empty Result.
func (g *GeoMentions) Fit(text string) *Result {
	tokens := Normalize(text)
	cityMatches := FindMentions(tokens, g.cities)
	countryMatches := FindMentions(tokens, g.countries)

	res := &Result{
		Cities:    Aggregate(cityMatches, g.config.StandardizeNames),
		Countries: Aggregate(countryMatches, g.config.StandardizeNames),
	}
	g.log.Debug("fit",
		zap.Int("tokens", len(tokens)),
		zap.Int("city_matches", len(cityMatches)),
		zap.Int("country_matches", len(countryMatches)),
	)
	return res
}

// FitBatch runs Fit over texts concurrently, at most Workers at a time.
// Results are returned in input order. The only possible error is the
// context's, when it is cancelled before every text was processed.
func (g *GeoMentions) FitBatch(ctx context.Context, texts []string) ([]*Result, error) {
	results := make([]*Result, len(texts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.Workers)
	for i, text := range texts {
		i, text := i, text
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = g.Fit(text)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
