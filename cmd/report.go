package main

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sells-group/som-monitor/internal/model"
	"github.com/sells-group/som-monitor/internal/som"
	"github.com/sells-group/som-monitor/internal/stats"
	"github.com/sells-group/som-monitor/internal/storage"
)

var reportFile string

// brandReport pairs a brand's metrics with the Wilson interval on its
// mention rate.
type brandReport struct {
	model.SOMMetrics
	Confidence stats.ConfidenceMetrics `json:"confidence"`
}

type reportOutput struct {
	Report  *model.SOMReport  `json:"report"`
	Brands  []brandReport     `json:"brands"`
	Quality stats.DataQuality `json:"quality"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a Share of Model report from saved survey results",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		files, err := storage.NewFiles(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		results, err := files.LoadResults(reportFile)
		if err != nil {
			return err
		}

		report, err := som.BuildReport(results, cfg.Brands)
		if err != nil {
			return err
		}

		calc := stats.NewCalculator(cfg.Stats.ConfidenceLevel)
		brands := make([]brandReport, 0, len(report.Metrics))
		for _, m := range report.Metrics {
			brands = append(brands, brandReport{
				SOMMetrics: m,
				Confidence: calc.ProportionConfidence(m.TotalMentions, m.TotalQueries),
			})
		}
		sort.Slice(brands, func(i, j int) bool {
			if brands[i].MentionRate != brands[j].MentionRate {
				return brands[i].MentionRate > brands[j].MentionRate
			}
			return brands[i].Brand < brands[j].Brand
		})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reportOutput{
			Report:  report,
			Brands:  brands,
			Quality: stats.EvaluateDataQuality(report.TotalQueries),
		})
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFile, "file", "", "result file to report on (default: latest)")
	rootCmd.AddCommand(reportCmd)
}
