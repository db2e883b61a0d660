package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/som-monitor/internal/storage"
	"github.com/sells-group/som-monitor/internal/themes"
)

var (
	themesFile  string
	themesBrand string
)

type themesOutput struct {
	Themes     map[string]map[string]themes.ThemeInsight `json:"themes"`
	Narratives []themes.NarrativeAnalysis                `json:"narratives"`
	Matrix     map[string]map[string]float64             `json:"matrix"`
	Insights   []string                                  `json:"insights,omitempty"`
	Quotes     []themes.CompetitiveQuote                 `json:"quotes,omitempty"`
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Extract brand themes and narrative ownership from survey results",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := storage.NewFiles(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		results, err := files.LoadResults(themesFile)
		if err != nil {
			return err
		}

		analyzer := themes.NewAnalyzer(cfg.Brands)
		insights := analyzer.ExtractThemes(results)
		narratives := analyzer.AnalyzeNarratives(insights)

		out := themesOutput{
			Themes:     insights,
			Narratives: narratives,
			Matrix:     themes.NarrativeMatrix(narratives),
		}
		if themesBrand != "" {
			out.Insights = analyzer.InsightsText(narratives, themesBrand)
			out.Quotes = themes.CompetitiveQuotes(results, themesBrand, 10)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	themesCmd.Flags().StringVar(&themesFile, "file", "", "result file to analyze (default: latest)")
	themesCmd.Flags().StringVar(&themesBrand, "brand", "", "brand perspective for positioning insights and quotes")
	rootCmd.AddCommand(themesCmd)
}
