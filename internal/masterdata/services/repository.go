package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-salon/velora-salon/internal/masterdata/shared"
	"github.com/velora-salon/velora-salon/internal/platform/db"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Service, int, error)
	Get(ctx context.Context, id int64) (Service, error)
	Create(ctx context.Context, svc Service) (Service, error)
	Update(ctx context.Context, id int64, svc Service) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const serviceColumns = `id, branch_id, name, type, duration_min, price, commission_rate, commission_fixed, created_at, updated_at`

func scanService(row pgx.Row) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.BranchID, &s.Name, &s.Type, &s.DurationMin, &s.Price, &s.CommissionRate, &s.CommissionFixed, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Service, int, error) {
	ex := db.ExecutorFrom(ctx, r.pool)

	query := `SELECT ` + serviceColumns + ` FROM services WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM services WHERE 1=1`
	args := []any{}

	if filters.BranchID != nil {
		args = append(args, *filters.BranchID)
		cond := ` AND branch_id = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND name ILIKE $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}

	var total int
	if err := ex.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name`
	limit := filters.Limit
	if limit <= 0 {
		limit = shared.DefaultLimit
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := ex.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Service, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	s, err := scanService(ex.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Service{}, apperr.Ef(apperr.KindNotFound, "service %d not found", id)
	}
	return s, err
}

func (r *repository) Create(ctx context.Context, svc Service) (Service, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	now := time.Now()
	err := ex.QueryRow(ctx, `INSERT INTO services (branch_id, name, type, duration_min, price, commission_rate, commission_fixed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`,
		svc.BranchID, svc.Name, svc.Type, svc.DurationMin, svc.Price, svc.CommissionRate, svc.CommissionFixed, now).Scan(&svc.ID)
	if err != nil {
		return Service{}, err
	}
	svc.CreatedAt = now
	svc.UpdatedAt = now
	return svc, nil
}

func (r *repository) Update(ctx context.Context, id int64, svc Service) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `UPDATE services SET branch_id=$2, name=$3, type=$4, duration_min=$5, price=$6, commission_rate=$7, commission_fixed=$8, updated_at=$9 WHERE id=$1`,
		id, svc.BranchID, svc.Name, svc.Type, svc.DurationMin, svc.Price, svc.CommissionRate, svc.CommissionFixed, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindNotFound, "service %d not found", id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `DELETE FROM services WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindNotFound, "service %d not found", id)
	}
	return nil
}
