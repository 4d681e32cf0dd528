package customers

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
	List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, id int64, c Customer) error
	// AddCredit adjusts the customer's credit balance by delta. Negative
	// deltas spend credit and must not take the balance below zero.
	AddCredit(ctx context.Context, id int64, delta float64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `id, name, phone, discount_rate, credit_balance, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.DiscountRate, &c.CreditBalance, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	ex := db.ExecutorFrom(ctx, r.pool)

	query := `SELECT ` + customerColumns + ` FROM customers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM customers WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR phone ILIKE $` + strconv.Itoa(len(args)) + `)`
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

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	c, err := scanCustomer(ex.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, apperr.Ef(apperr.KindNotFound, "customer %d not found", id)
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, c Customer) (Customer, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	now := time.Now()
	err := ex.QueryRow(ctx, `INSERT INTO customers (name, phone, discount_rate, credit_balance, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`, c.Name, c.Phone, c.DiscountRate, c.CreditBalance, now).Scan(&c.ID)
	if err != nil {
		return Customer{}, err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *repository) Update(ctx context.Context, id int64, c Customer) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `UPDATE customers SET name=$2, phone=$3, discount_rate=$4, updated_at=$5 WHERE id=$1`,
		id, c.Name, c.Phone, c.DiscountRate, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindNotFound, "customer %d not found", id)
	}
	return nil
}

func (r *repository) AddCredit(ctx context.Context, id int64, delta float64) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `UPDATE customers SET credit_balance = credit_balance + $2, updated_at = $3
WHERE id = $1 AND credit_balance + $2 >= 0`, id, delta, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindConflict, "credit adjustment rejected for customer %d", id)
	}
	return nil
}
