package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/som-monitor/internal/som"
	"github.com/sells-group/som-monitor/internal/storage"
	"github.com/sells-group/som-monitor/internal/survey"
)

var (
	surveyProvider   string
	surveyModels     []string
	surveyCategories []string
	surveyBrands     []string
	surveyRuns       int
	surveyOutput     string
	surveyMerge      bool
	surveyNoHistory  bool
)

var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Run the brand mention survey against an LLM provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Flag overrides apply to this run only. Validation targets the
		// provider actually being surveyed.
		runCfg := *cfg
		runCfg.Survey.Providers = []string{surveyProvider}
		if len(surveyBrands) > 0 {
			runCfg.Brands = surveyBrands
		}

		if err := runCfg.Validate("survey"); err != nil {
			return err
		}

		client, err := survey.NewClient(surveyProvider, &runCfg)
		if err != nil {
			return err
		}

		runner := survey.NewRunner(&runCfg)
		results, err := runner.Run(ctx, client, survey.Options{
			Models:     surveyModels,
			Categories: surveyCategories,
			Runs:       surveyRuns,
		})
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return eris.New("survey: every query failed, nothing to save")
		}

		files, err := storage.NewFiles(runCfg.Storage.DataDir)
		if err != nil {
			return err
		}

		if !surveyNoHistory {
			history, err := storage.NewHistory(runCfg.Storage.HistoryDB)
			if err != nil {
				return err
			}
			defer history.Close()

			if err := history.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate history")
			}
			if err := history.RecordResults(ctx, results); err != nil {
				return err
			}
		}

		if surveyMerge {
			previous, err := files.LoadResults("")
			if err != nil {
				return err
			}
			results = append(previous, results...)
		}

		path, err := files.SaveResults(results, surveyOutput)
		if err != nil {
			return err
		}
		zap.L().Info("results saved", zap.String("path", path), zap.Int("results", len(results)))

		report, err := som.BuildReport(results, runCfg.Brands)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	surveyCmd.Flags().StringVar(&surveyProvider, "provider", "openai", "LLM provider to survey")
	surveyCmd.Flags().StringSliceVar(&surveyModels, "models", nil, "models to query (default: provider's configured models)")
	surveyCmd.Flags().StringSliceVar(&surveyCategories, "categories", nil, "categories to survey (default: all enabled)")
	surveyCmd.Flags().StringSliceVar(&surveyBrands, "brands", nil, "brands to track (default: config)")
	surveyCmd.Flags().IntVar(&surveyRuns, "runs", 0, "runs per query (default: config)")
	surveyCmd.Flags().StringVar(&surveyOutput, "output", "", "result filename (default: timestamped)")
	surveyCmd.Flags().BoolVar(&surveyMerge, "merge-previous", false, "append to the latest saved results instead of starting fresh")
	surveyCmd.Flags().BoolVar(&surveyNoHistory, "no-history", false, "skip recording results in the history database")
	rootCmd.AddCommand(surveyCmd)
}
