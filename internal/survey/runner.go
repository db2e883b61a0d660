package survey

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/som-monitor/internal/analyzer"
	"github.com/sells-group/som-monitor/internal/config"
	"github.com/sells-group/som-monitor/internal/model"
	"github.com/sells-group/som-monitor/internal/resilience"
)

// Options narrows a survey run. Zero values fall back to the config.
type Options struct {
	Models     []string
	Categories []string
	Runs       int
}

// Runner executes the survey loop: for each enabled category, each
// query template, each run, each model, issue the prompt and extract
// mentions. Queries are sequential with deliberate rate limiting.
type Runner struct {
	cfg       *config.Config
	extractor *analyzer.Extractor
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
}

// NewRunner creates a Runner for the given config.
func NewRunner(cfg *config.Config) *Runner {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Survey.RateLimitDelaySecs > 0 {
		delay := time.Duration(cfg.Survey.RateLimitDelaySecs) * time.Second
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	return &Runner{
		cfg:       cfg,
		extractor: analyzer.NewExtractor(cfg.Brands),
		limiter:   limiter,
		retry:     resilience.DefaultRetryConfig(),
	}
}

// Run executes the survey against client and returns the collected
// results. A failed query is logged and skipped: aggregation proceeds
// over however many records exist. Context cancellation aborts the run
// and returns the results collected so far alongside the error.
func (r *Runner) Run(ctx context.Context, client Client, opts Options) ([]model.QueryResult, error) {
	categories, err := r.categories(opts.Categories)
	if err != nil {
		return nil, err
	}

	models := opts.Models
	if len(models) == 0 {
		models = r.defaultModels(client.Provider())
	}
	if len(models) == 0 {
		return nil, eris.Errorf("survey: no models configured for provider %q", client.Provider())
	}

	runs := opts.Runs
	if runs < 1 {
		runs = r.cfg.Survey.RunsPerQuery
	}

	// One timestamp for the whole survey so every result of a run
	// shares a snapshot identity.
	timestamp := time.Now().UTC().Format(time.RFC3339)

	var totalQueries int
	for _, category := range categories {
		totalQueries += len(r.cfg.Templates[category]) * runs * len(models)
	}

	log := zap.L().With(
		zap.String("provider", client.Provider()),
		zap.Int("total_queries", totalQueries),
	)
	log.Info("survey started",
		zap.Strings("categories", categories),
		zap.Strings("models", models),
		zap.Int("runs_per_query", runs),
	)

	var results []model.QueryResult
	current := 0

	for _, category := range categories {
		for _, query := range r.cfg.Templates[category] {
			for run := 0; run < runs; run++ {
				for _, modelName := range models {
					current++

					if err := r.limiter.Wait(ctx); err != nil {
						return results, eris.Wrap(err, "survey: rate limit wait")
					}

					retryCfg := r.retry
					retryCfg.OnRetry = resilience.RetryLogger(client.Provider(), modelName)

					response, err := resilience.Do(ctx, retryCfg, func(ctx context.Context) (string, error) {
						return client.Query(ctx, query, modelName,
							r.cfg.Survey.Temperature, r.cfg.Survey.MaxTokens)
					})
					if err != nil {
						if ctx.Err() != nil {
							return results, eris.Wrap(err, "survey: aborted")
						}
						log.Warn("query failed",
							zap.String("category", category),
							zap.String("model", modelName),
							zap.Int("run", run),
							zap.Error(err),
						)
						continue
					}

					mentions, order, total := r.extractor.Analyze(response)
					results = append(results, model.QueryResult{
						Timestamp:      timestamp,
						Category:       category,
						Query:          query,
						Run:            run,
						Model:          modelName,
						Provider:       client.Provider(),
						Response:       response,
						Mentions:       mentions,
						MentionOrder:   order,
						TotalMentioned: total,
					})

					log.Debug("query completed",
						zap.Int("progress", current),
						zap.String("category", category),
						zap.Int("mentioned", total),
					)
				}
			}
		}
	}

	log.Info("survey complete", zap.Int("results", len(results)))
	return results, nil
}

// categories resolves the requested categories against the enabled set.
func (r *Runner) categories(requested []string) ([]string, error) {
	if len(requested) == 0 {
		enabled := r.cfg.EnabledCategories()
		if len(enabled) == 0 {
			return nil, eris.New("survey: no enabled categories")
		}
		return enabled, nil
	}

	var categories []string
	for _, category := range requested {
		if r.cfg.Categories[category] && len(r.cfg.Templates[category]) > 0 {
			categories = append(categories, category)
		}
	}
	if len(categories) == 0 {
		return nil, eris.New("survey: no enabled categories")
	}
	return categories, nil
}

func (r *Runner) defaultModels(provider string) []string {
	switch provider {
	case "openai":
		return r.cfg.OpenAI.Models
	case "anthropic":
		return r.cfg.Anthropic.Models
	default:
		return nil
	}
}
