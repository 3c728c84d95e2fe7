// Command geomentions prints the city and country mentions found in text.
//
// Usage:
//
//	geomentions fit article.txt other.txt
//	echo "I love Paris and France" | geomentions fit --rollup
//	geomentions validate
//
// Configuration is read from ./geomentions.yaml (or --config) and
// GEOMENTIONS_* environment variables. Without any data configured the
// gazetteers embedded in the binary are used.
package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andreiashu/geomentions"
	"github.com/andreiashu/geomentions/internal/config"
)

var (
	cfg        *config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "geomentions",
	Short:         "Find city and country mentions in text",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./geomentions.yaml)")
	rootCmd.AddCommand(fitCmd, validateCmd)
}

// pipelineOptions maps the loaded config onto library options.
func pipelineOptions(c *config.Config) []geomentions.Option {
	opts := []geomentions.Option{
		geomentions.WithDataDir(c.Data.Dir),
		geomentions.WithStandardizeNames(c.Match.StandardizeNames),
		geomentions.WithWorkers(c.Match.Workers),
	}
	if c.Data.CityIndex != "" {
		opts = append(opts, geomentions.WithCityIndex(c.Data.CityIndex))
	}
	if c.Data.CountryIndex != "" {
		opts = append(opts, geomentions.WithCountryIndex(c.Data.CountryIndex))
	}
	if c.Match.FoldKeys {
		opts = append(opts, geomentions.WithFoldedKeys())
	}
	return opts
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the gazetteers and check them against known sample texts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := geomentions.ValidateData(pipelineOptions(cfg)...); err != nil {
			return eris.Wrap(err, "validation failed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Gazetteers OK.")
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
