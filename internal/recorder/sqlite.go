package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"OptionSentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{
		db:  db,
		log: logger.With().Str("component", "recorder").Logger(),
		now: time.Now,
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decisions (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp            INTEGER NOT NULL,
			evaluated_at         INTEGER NOT NULL,
			symbol               TEXT NOT NULL,
			family               TEXT NOT NULL,
			outcome              TEXT NOT NULL,
			reason               TEXT,
			source               TEXT,
			strategy_id          TEXT,
			kind                 TEXT,
			direction            TEXT,
			spot_price           REAL,
			max_risk             REAL,
			max_profit           REAL,
			max_profit_unbounded INTEGER,
			confidence           REAL,
			strategy_json        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_symbol_ts ON decisions(symbol, evaluated_at)`,

		`CREATE TABLE IF NOT EXISTS deliveries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			strategy_id TEXT NOT NULL,
			target      TEXT NOT NULL,
			status      TEXT NOT NULL,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_strategy ON deliveries(strategy_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordDecision(ctx context.Context, rec *DecisionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		id, kind, direction      sql.NullString
		spot, risk, profit, conf sql.NullFloat64
		unbounded                sql.NullInt64
		payload                  sql.NullString
	)
	if s := rec.Strategy; s != nil {
		raw, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshal strategy: %w", err)
		}
		id = sql.NullString{String: s.ID, Valid: true}
		kind = sql.NullString{String: string(s.Kind), Valid: true}
		direction = sql.NullString{String: string(s.Direction), Valid: true}
		spot = sql.NullFloat64{Float64: s.SpotPrice, Valid: true}
		risk = sql.NullFloat64{Float64: s.MaxRisk, Valid: true}
		profit = sql.NullFloat64{Float64: s.MaxProfit, Valid: true}
		conf = sql.NullFloat64{Float64: s.Confidence, Valid: true}
		unbounded = sql.NullInt64{Int64: boolInt(s.MaxProfitUnbounded), Valid: true}
		payload = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO decisions
		(timestamp, evaluated_at, symbol, family, outcome, reason, source,
		 strategy_id, kind, direction, spot_price, max_risk, max_profit,
		 max_profit_unbounded, confidence, strategy_json)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), rec.EvaluatedAt.UnixMilli(), rec.Symbol, string(rec.Family), rec.Outcome, rec.Reason, rec.Source,
		id, kind, direction, spot, risk, profit,
		unbounded, conf, payload,
	)
	return err
}

func (r *SQLiteRecorder) RecordDelivery(ctx context.Context, evt *DeliveryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, msg := "OK", ""
	if evt.Err != nil {
		status, msg = "FAILED", evt.Err.Error()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO deliveries
		(timestamp, strategy_id, target, status, error)
		VALUES (?,?,?,?,?)`,
		r.now().Unix(), evt.StrategyID, evt.Target, status, msg,
	)
	return err
}

// RecentDecisions returns the latest decisions, newest first. An empty symbol
// matches every symbol.
func (r *SQLiteRecorder) RecentDecisions(ctx context.Context, symbol string, limit int) ([]DecisionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT evaluated_at, symbol, family, outcome, reason, source, strategy_json
		FROM decisions
		WHERE (? = '' OR symbol = ?)
		ORDER BY evaluated_at DESC, id DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var (
			evaluatedAt    int64
			rec            DecisionRecord
			family         string
			reason, source sql.NullString
			payload        sql.NullString
		)
		if err := rows.Scan(&evaluatedAt, &rec.Symbol, &family, &rec.Outcome, &reason, &source, &payload); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		rec.EvaluatedAt = time.UnixMilli(evaluatedAt).UTC()
		rec.Family = model.Family(family)
		rec.Reason = reason.String
		rec.Source = source.String
		if payload.Valid && payload.String != "" {
			var s model.OptionsStrategy
			if err := json.Unmarshal([]byte(payload.String), &s); err != nil {
				return nil, fmt.Errorf("decode strategy: %w", err)
			}
			rec.Strategy = &s
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
