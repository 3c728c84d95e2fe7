package main

import (
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/andreiashu/geomentions"
)

var (
	fitRawNames      bool
	fitRollup        bool
	fitMinPopulation int64
	fitMaxPopulation int64
	fitCountry       string
)

// fitOutput is the JSON document written per input text.
type fitOutput struct {
	Source        string                              `json:"source"`
	Cities        []geomentions.Mention               `json:"city_mentions"`
	Countries     []geomentions.Mention               `json:"country_mentions"`
	CountryRollup map[string]geomentions.CountryCount `json:"country_rollup,omitempty"`
}

var fitCmd = &cobra.Command{
	Use:   "fit [file...]",
	Short: "Extract place mentions from files, or stdin when no file is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := pipelineOptions(cfg)
		if fitRawNames {
			opts = append(opts, geomentions.WithStandardizeNames(false))
		}
		gm, err := geomentions.New(opts...)
		if err != nil {
			return err
		}

		sources, texts, err := readInputs(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		results, err := gm.FitBatch(cmd.Context(), texts)
		if err != nil {
			return err
		}

		filters := cityFilters(cmd)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		for i, res := range results {
			out := fitOutput{
				Source:    sources[i],
				Cities:    res.FilterCities(filters...),
				Countries: res.Countries,
			}
			if fitRollup {
				out.CountryRollup = res.CountryRollup()
			}
			if err := enc.Encode(out); err != nil {
				return eris.Wrap(err, "write output")
			}
		}
		return nil
	},
}

func init() {
	f := fitCmd.Flags()
	f.BoolVar(&fitRawNames, "raw-names", false, "group mentions by matched text instead of canonical name")
	f.BoolVar(&fitRollup, "rollup", false, "include per-country implicit/explicit counts")
	f.Int64Var(&fitMinPopulation, "min-population", 0, "only report cities with at least this population")
	f.Int64Var(&fitMaxPopulation, "max-population", 0, "only report cities with at most this population")
	f.StringVar(&fitCountry, "country", "", "only report cities in this country code")
}

// cityFilters turns the flags the user actually set into filter options.
func cityFilters(cmd *cobra.Command) []geomentions.FilterOption {
	var filters []geomentions.FilterOption
	if cmd.Flags().Changed("min-population") {
		filters = append(filters, geomentions.MinPopulation(fitMinPopulation))
	}
	if cmd.Flags().Changed("max-population") {
		filters = append(filters, geomentions.MaxPopulation(fitMaxPopulation))
	}
	if fitCountry != "" {
		filters = append(filters, geomentions.InCountry(fitCountry))
	}
	return filters
}

// readInputs reads every file named in args, or stdin when args is empty.
func readInputs(stdin io.Reader, args []string) ([]string, []string, error) {
	if len(args) == 0 {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, nil, eris.Wrap(err, "read stdin")
		}
		return []string{"-"}, []string{string(b)}, nil
	}

	texts := make([]string, 0, len(args))
	for _, name := range args {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "read %s", name)
		}
		texts = append(texts, string(b))
	}
	return args, texts, nil
}
