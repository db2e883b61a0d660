package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/som-monitor/internal/stats"
	"github.com/sells-group/som-monitor/internal/storage"
)

var trendsBrand string

type trendOutput struct {
	Brand    string                `json:"brand"`
	Series   []float64             `json:"series"`
	Velocity stats.VelocityResult  `json:"velocity"`
	Trend    stats.Trend           `json:"trend"`
	Change   stats.ChangeIndicator `json:"change"`
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Analyze a brand's mention rate trajectory from the history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		history, err := storage.NewHistory(cfg.Storage.HistoryDB)
		if err != nil {
			return err
		}
		defer history.Close()

		if err := history.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate history")
		}

		series, err := history.MentionRateSeries(ctx, trendsBrand)
		if err != nil {
			return err
		}
		if len(series) == 0 {
			return eris.Errorf("trends: no history for brand %q", trendsBrand)
		}

		out := trendOutput{
			Brand:    trendsBrand,
			Series:   series,
			Velocity: stats.Velocity(series),
			Trend:    stats.DetectTrend(series, cfg.Stats.ConfidenceLevel),
		}
		if len(series) >= 2 {
			out.Change = stats.Change(series[len(series)-1], series[len(series)-2])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	trendsCmd.Flags().StringVar(&trendsBrand, "brand", "", "brand to analyze (required)")
	_ = trendsCmd.MarkFlagRequired("brand")
	rootCmd.AddCommand(trendsCmd)
}
