package pg

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var _ application.RateRepo = (*RateRepo)(nil)

// RateRepo keeps every fetched snapshot so the converter can fall back to
// the last known rates when the provider is down.
type RateRepo struct {
	db  *DB
	uow *UnitOfWork
}

func NewRateRepo(db *DB) *RateRepo {
	return &RateRepo{db: db, uow: &UnitOfWork{Pool: db.Pool}}
}

func (r *RateRepo) Save(ctx context.Context, snap domain.RateSnapshot) error {
	if snap.Empty() {
		return errors.New("save rates: empty snapshot")
	}
	return r.uow.Do(ctx, func(ctx context.Context) error {
		ex := execFor(ctx, r.db.Pool)

		query, args, err := psql.Insert("rate_snapshots").
			Columns("base", "source", "fetched_at").
			Values(string(snap.Base), snap.Source, snap.FetchedAt.UTC()).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build snapshot insert: %w", err)
		}
		var id int64
		if err := ex.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}

		codes := make([]string, 0, len(snap.Rates))
		for c := range snap.Rates {
			codes = append(codes, string(c))
		}
		sort.Strings(codes)
		ins := psql.Insert("rate_snapshot_rates").Columns("snapshot_id", "currency", "rate")
		for _, c := range codes {
			ins = ins.Values(id, c, snap.Rates[domain.Currency(c)])
		}
		query, args, err = ins.ToSql()
		if err != nil {
			return fmt.Errorf("build rates insert: %w", err)
		}
		if _, err := ex.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert rates: %w", err)
		}
		return nil
	})
}

func (r *RateRepo) GetLatest(ctx context.Context) (domain.RateSnapshot, error) {
	ex := execFor(ctx, r.db.Pool)

	query, args, err := psql.Select("id", "base", "source", "fetched_at").
		From("rate_snapshots").
		OrderBy("fetched_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("build latest select: %w", err)
	}
	var (
		id   int64
		base string
		snap domain.RateSnapshot
	)
	err = ex.QueryRow(ctx, query, args...).Scan(&id, &base, &snap.Source, &snap.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RateSnapshot{}, application.ErrNotFound
	}
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("select latest snapshot: %w", err)
	}
	snap.Base = domain.Currency(base)
	snap.FetchedAt = snap.FetchedAt.UTC()

	query, args, err = psql.Select("currency", "rate::float8").
		From("rate_snapshot_rates").
		Where(sq.Eq{"snapshot_id": id}).
		ToSql()
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("build rates select: %w", err)
	}
	rows, err := ex.Query(ctx, query, args...)
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("select rates: %w", err)
	}
	defer rows.Close()

	snap.Rates = map[domain.Currency]float64{}
	for rows.Next() {
		var (
			code string
			rate float64
		)
		if err := rows.Scan(&code, &rate); err != nil {
			return domain.RateSnapshot{}, fmt.Errorf("scan rate: %w", err)
		}
		snap.Rates[domain.Currency(code)] = rate
	}
	if err := rows.Err(); err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("iterate rates: %w", err)
	}
	return snap, nil
}
