package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pendlescope/internal/domain/models"
	drepo "pendlescope/internal/domain/repository"
	pkgch "pendlescope/pkg/clickhouse"
	applogger "pendlescope/pkg/logger"
	"pendlescope/pkg/util"
)

const historyTable = "pendlescope.yield_history"

// CHHistoryStore implements HistoryStore backed by ClickHouse. One row per
// (chain_id, address, day); ReplacingMergeTree keeps the freshest write
// for a day so re-upserting a merged window is idempotent.
type CHHistoryStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client, l *applogger.Logger) *CHHistoryStore {
	return &CHHistoryStore{client: ch, db: ch.DB(), l: l}
}

func (s *CHHistoryStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS pendlescope",
		`CREATE TABLE IF NOT EXISTS ` + historyTable + ` (
			chain_id Int32,
			address String,
			day Date,
			implied_apy Float64,
			underlying_apy Float64,
			inserted_at DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(inserted_at)
		ORDER BY (chain_id, address, day)`,
	})
}

// UpsertPoints inserts daily points in one multi-row statement. The
// replacing engine deduplicates re-written days on merge, so callers may
// hand the whole merged window back without tracking which days are new.
func (s *CHHistoryStore) UpsertPoints(ctx context.Context, chainID int, address string, points models.YieldSeries) error {
	if len(points) == 0 {
		return nil
	}
	address = strings.ToLower(address)
	values := make([]string, 0, len(points))
	args := make([]interface{}, 0, len(points)*5)
	for _, p := range points {
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, chainID, address, models.DayUTC(p.Date), p.ImpliedAPY, p.UnderlyingAPY)
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (chain_id, address, day, implied_apy, underlying_apy) VALUES %s",
		historyTable, strings.Join(values, ","),
	)
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse upsert_points error",
				applogger.Int("chain", chainID),
				applogger.String("address", address),
				applogger.Int("points", len(points)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("upsert points: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse upsert_points ok",
			applogger.Int("chain", chainID),
			applogger.String("address", address),
			applogger.Int("points", len(points)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Range reads stored points for one market between two days, ascending.
// FINAL collapses replaced rows so a day upserted twice reads once.
func (s *CHHistoryStore) Range(ctx context.Context, chainID int, address string, from, to time.Time) (models.YieldSeries, error) {
	address = strings.ToLower(address)
	from, to = util.DayBounds(from, to)
	const q = `
        SELECT day, implied_apy, underlying_apy
        FROM ` + historyTable + ` FINAL
        WHERE chain_id = ? AND address = ? AND day >= ? AND day <= ?
        ORDER BY day ASC
    `
	rows, err := s.db.QueryContext(ctx, q, chainID, address, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse range query error",
				applogger.Int("chain", chainID),
				applogger.String("address", address),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("range: %w", err)
	}
	defer rows.Close()

	out := make(models.YieldSeries, 0, 180)
	for rows.Next() {
		var p models.YieldPoint
		if err := rows.Scan(&p.Date, &p.ImpliedAPY, &p.UnderlyingAPY); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHHistoryStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHHistoryStore) Close() error {
	return s.client.Close()
}

var _ drepo.HistoryStore = (*CHHistoryStore)(nil)
