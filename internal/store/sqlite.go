package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"xtb/pkg/core"
)

// CandleStore persists normalized chart candles in SQLite.
// Prices are stored as decimal text so they read back exactly.
type CandleStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens or creates the database at path and ensures the schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*CandleStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases shared across queries
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		logger.Warn().Err(err).Msg("failed to set WAL mode")
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		logger.Warn().Err(err).Msg("failed to set synchronous mode")
	}

	s := &CandleStore{db: db, logger: logger}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *CandleStore) createTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS candles (
			symbol TEXT NOT NULL,
			period INTEGER NOT NULL,
			ctm INTEGER NOT NULL,
			ctm_string TEXT,
			open TEXT NOT NULL,
			high TEXT NOT NULL,
			low TEXT NOT NULL,
			close TEXT NOT NULL,
			vol TEXT NOT NULL,
			PRIMARY KEY (symbol, period, ctm)
		);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create candles: %w", err)
	}
	return nil
}

// SaveCandles upserts candles for symbol and period in one transaction.
func (s *CandleStore) SaveCandles(ctx context.Context, symbol string, period core.Period, rates []core.RateInfo) error {
	if len(rates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (symbol, period, ctm, ctm_string, open, high, low, close, vol)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, period, ctm) DO UPDATE SET
			ctm_string = excluded.ctm_string,
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			vol = excluded.vol
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rates {
		_, err := stmt.ExecContext(ctx, symbol, int(period), r.Ctm.UnixMilli(), r.CtmString,
			r.Open.Text('f'), r.High.Text('f'), r.Low.Text('f'), r.Close.Text('f'), r.Vol.Text('f'))
		if err != nil {
			return fmt.Errorf("save candle %s: %w", r.Ctm, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug().Str("symbol", symbol).Stringer("period", period).Int("count", len(rates)).Msg("saved candles")
	return nil
}

// Candles returns stored candles with from <= ctm < to, oldest first.
// A zero to means no upper bound.
func (s *CandleStore) Candles(ctx context.Context, symbol string, period core.Period, from, to time.Time) ([]core.RateInfo, error) {
	upper := int64(1<<63 - 1)
	if !to.IsZero() {
		upper = to.UnixMilli()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ctm, ctm_string, open, high, low, close, vol
		FROM candles
		WHERE symbol = ? AND period = ? AND ctm >= ? AND ctm < ?
		ORDER BY ctm
	`, symbol, int(period), from.UnixMilli(), upper)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []core.RateInfo
	for rows.Next() {
		var (
			ctm                          int64
			ctmString                    sql.NullString
			open, high, low, closeP, vol string
		)
		if err := rows.Scan(&ctm, &ctmString, &open, &high, &low, &closeP, &vol); err != nil {
			return nil, err
		}
		r := core.RateInfo{Ctm: core.UnixMilli(ctm), CtmString: ctmString.String}
		for _, f := range []struct {
			dst *core.Decimal
			src string
		}{{&r.Open, open}, {&r.High, high}, {&r.Low, low}, {&r.Close, closeP}, {&r.Vol, vol}} {
			d, err := core.ParseDecimal(f.src)
			if err != nil {
				return nil, err
			}
			*f.dst = d
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// Close closes the database.
func (s *CandleStore) Close() error {
	return s.db.Close()
}
