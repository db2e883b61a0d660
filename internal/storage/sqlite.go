package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/som-monitor/internal/model"
)

// History stores one row per (result, brand) so per-brand mention rates
// can be rebuilt for any date range. Backed by modernc.org/sqlite.
type History struct {
	db *sql.DB
}

// NewHistory opens the history database at the given path and configures
// WAL mode.
func NewHistory(dsn string) (*History, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &History{db: db}, nil
}

const historyMigration = `
CREATE TABLE IF NOT EXISTS mention_history (
	id             TEXT PRIMARY KEY,
	timestamp      TEXT NOT NULL,
	date           TEXT NOT NULL,
	provider       TEXT NOT NULL,
	model          TEXT NOT NULL,
	category       TEXT NOT NULL,
	query          TEXT NOT NULL,
	run            INTEGER NOT NULL,
	brand          TEXT NOT NULL,
	mentioned      INTEGER NOT NULL,
	first_position INTEGER,
	count          INTEGER NOT NULL,
	mention_rank   INTEGER
);

CREATE INDEX IF NOT EXISTS idx_mention_history_brand_date ON mention_history(brand, date);
CREATE INDEX IF NOT EXISTS idx_mention_history_date ON mention_history(date);
`

// Migrate creates the history schema.
func (h *History) Migrate(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx, historyMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// RecordResults appends one row per tracked brand per result, in a
// single transaction.
func (h *History) RecordResults(ctx context.Context, results []model.QueryResult) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mention_history
			(id, timestamp, date, provider, model, category, query, run,
			 brand, mentioned, first_position, count, mention_rank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	for _, r := range results {
		date := dateOf(r.Timestamp)
		for brand, mention := range r.Mentions {
			var firstPos, rank any
			if mention.FirstPosition != nil {
				firstPos = *mention.FirstPosition
			}
			if mr := r.MentionRank(brand); mr > 0 {
				rank = mr
			}

			_, err := stmt.ExecContext(ctx,
				uuid.New().String(), r.Timestamp, date, r.Provider, r.Model,
				r.Category, r.Query, r.Run,
				brand, boolToInt(mention.Mentioned), firstPos, mention.Count, rank,
			)
			if err != nil {
				return eris.Wrap(err, "sqlite: insert mention row")
			}
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// MentionRateSeries returns the per-date mention rate for brand, ordered
// by date ascending. This is the time series the trend layer consumes.
func (h *History) MentionRateSeries(ctx context.Context, brand string) ([]float64, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT AVG(mentioned)
		FROM mention_history
		WHERE brand = ?
		GROUP BY date
		ORDER BY date`, brand)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: mention rate series %s", brand)
	}
	defer rows.Close()

	var series []float64
	for rows.Next() {
		var rate float64
		if err := rows.Scan(&rate); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rate")
		}
		series = append(series, rate)
	}
	return series, eris.Wrap(rows.Err(), "sqlite: iterate rates")
}

// Dates returns the distinct observation dates, ascending.
func (h *History) Dates(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT DISTINCT date FROM mention_history ORDER BY date`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: dates")
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan date")
		}
		dates = append(dates, d)
	}
	return dates, eris.Wrap(rows.Err(), "sqlite: iterate dates")
}

// Brands returns the distinct brands present in the history, sorted.
func (h *History) Brands(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT DISTINCT brand FROM mention_history ORDER BY brand`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: brands")
	}
	defer rows.Close()

	var brands []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan brand")
		}
		brands = append(brands, b)
	}
	return brands, eris.Wrap(rows.Err(), "sqlite: iterate brands")
}

// dateOf truncates an RFC 3339 timestamp to its date part.
func dateOf(timestamp string) string {
	if i := strings.IndexByte(timestamp, 'T'); i > 0 {
		return timestamp[:i]
	}
	return timestamp
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
