// Package config loads the geomentions CLI configuration and sets up logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full CLI configuration.
type Config struct {
	Data  DataConfig  `yaml:"data" mapstructure:"data"`
	Match MatchConfig `yaml:"match" mapstructure:"match"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the gazetteer index files.
type DataConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	CityIndex    string `yaml:"city_index" mapstructure:"city_index"`
	CountryIndex string `yaml:"country_index" mapstructure:"country_index"`
}

// MatchConfig tunes matching and aggregation.
type MatchConfig struct {
	StandardizeNames bool `yaml:"standardize_names" mapstructure:"standardize_names"`
	FoldKeys         bool `yaml:"fold_keys" mapstructure:"fold_keys"`
	Workers          int  `yaml:"workers" mapstructure:"workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path looks
// for geomentions.yaml in the working directory; a missing file is not an
// error. Environment variables use the GEOMENTIONS_ prefix, with dots in
// keys replaced by underscores (GEOMENTIONS_DATA_DIR).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("geomentions")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("GEOMENTIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data.dir", "./geomentions-data")
	v.SetDefault("data.city_index", "")
	v.SetDefault("data.country_index", "")
	v.SetDefault("match.standardize_names", true)
	v.SetDefault("match.fold_keys", false)
	v.SetDefault("match.workers", 0)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger. Logs go to stderr so they
// never mix with JSON written to stdout.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)
	zapCfg.OutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
