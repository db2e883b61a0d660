package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/som-monitor/internal/storage"
	"github.com/sells-group/som-monitor/internal/synth"
)

var (
	seedMonths  int
	seedQueries int
	seedSeed    uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the history database with synthetic survey data",
	Long:  "Generates reproducible historical mention data from per-brand growth profiles, seasonal patterns, and campaign events, so trend analysis has a baseline before real surveys accumulate.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if seedMonths < 1 {
			return eris.New("seed: months must be at least 1")
		}

		history, err := storage.NewHistory(cfg.Storage.HistoryDB)
		if err != nil {
			return err
		}
		defer history.Close()

		if err := history.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate history")
		}

		files, err := storage.NewFiles(cfg.Storage.DataDir)
		if err != nil {
			return err
		}

		gen := synth.NewGenerator(cfg.Brands, cfg.EnabledCategories(), seedSeed)
		months := gen.GenerateHistory(time.Now().UTC(), seedMonths, seedQueries)

		// One result file per month plus history rows. SQLite serializes
		// writers, so a small group is enough to keep file writes and
		// record batches overlapping without piling up busy waits.
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(2)
		for _, month := range months {
			g.Go(func() error {
				name := "som_results_" + month.Date.Format("20060102_150405") + ".json"
				if _, err := files.SaveResults(month.Results, name); err != nil {
					return err
				}
				if err := history.RecordResults(gctx, month.Results); err != nil {
					return eris.Wrapf(err, "record month %s", month.Date.Format("2006-01"))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("history seeded",
			zap.Int("months", len(months)),
			zap.Int("results_per_month", len(months[0].Results)),
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedMonths, "months", 6, "months of history to generate")
	seedCmd.Flags().IntVar(&seedQueries, "queries", 30, "queries per month across categories")
	seedCmd.Flags().Uint64Var(&seedSeed, "seed", 42, "random seed for reproducible data")
	rootCmd.AddCommand(seedCmd)
}
