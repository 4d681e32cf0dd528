package cashbook

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-salon/velora-salon/internal/platform/db"
)

type Repository interface {
	Append(ctx context.Context, e Entry) (Entry, error)
	ListByDay(ctx context.Context, branchID int64, day time.Time) ([]Entry, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Append(ctx context.Context, e Entry) (Entry, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	err := ex.QueryRow(ctx, `INSERT INTO cash_ledger (branch_id, user_id, type, amount, reference, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		e.BranchID, e.UserID, e.Type, e.Amount, e.Reference, e.Note, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (r *repository) ListByDay(ctx context.Context, branchID int64, day time.Time) ([]Entry, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)
	rows, err := ex.Query(ctx, `SELECT id, branch_id, user_id, type, amount, reference, note, created_at
FROM cash_ledger WHERE branch_id = $1 AND created_at >= $2 AND created_at < $3 ORDER BY created_at, id`, branchID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.BranchID, &e.UserID, &e.Type, &e.Amount, &e.Reference, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
