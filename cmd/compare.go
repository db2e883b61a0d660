package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/som-monitor/internal/stats"
	"github.com/sells-group/som-monitor/internal/storage"
)

var compareFile string

type compareOutput struct {
	Comparison stats.BrandComparison `json:"comparison"`
	ANOVA      stats.ANOVAResult     `json:"anova"`
}

var compareCmd = &cobra.Command{
	Use:   "compare <brand1> <brand2>",
	Short: "Statistically compare two brands' mention rates",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		brand1, brand2 := args[0], args[1]
		if !trackedBrand(brand1) {
			return eris.Errorf("compare: unknown brand %q", brand1)
		}
		if !trackedBrand(brand2) {
			return eris.Errorf("compare: unknown brand %q", brand2)
		}

		files, err := storage.NewFiles(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		results, err := files.LoadResults(compareFile)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return eris.New("compare: no results to compare")
		}

		calc := stats.NewCalculator(cfg.Stats.ConfidenceLevel)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(compareOutput{
			Comparison: calc.CompareBrands(results, brand1, brand2),
			ANOVA:      calc.AnalyzeVariance(results, cfg.Brands),
		})
	},
}

func trackedBrand(brand string) bool {
	for _, b := range cfg.Brands {
		if b == brand {
			return true
		}
	}
	return false
}

func init() {
	compareCmd.Flags().StringVar(&compareFile, "file", "", "result file to compare on (default: latest)")
	rootCmd.AddCommand(compareCmd)
}
