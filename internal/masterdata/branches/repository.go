package branches

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
	List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error)
	Get(ctx context.Context, id int64) (Branch, error)
	Children(ctx context.Context, parentID int64) ([]Branch, error)
	Create(ctx context.Context, branch Branch) (Branch, error)
	Update(ctx context.Context, id int64, branch Branch) error
	Delete(ctx context.Context, id int64) error
	Hours(ctx context.Context, branchID int64) ([]DayHours, error)
	SetHours(ctx context.Context, branchID int64, hours []DayHours) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error) {
	ex := db.ExecutorFrom(ctx, r.pool)

	query := `SELECT id, name, parent_id, phone, address, created_at, updated_at FROM branches WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM branches WHERE 1=1`
	args := []any{}

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

	var out []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.ParentID, &b.Phone, &b.Address, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Branch, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	var b Branch
	err := ex.QueryRow(ctx, `SELECT id, name, parent_id, phone, address, created_at, updated_at FROM branches WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.ParentID, &b.Phone, &b.Address, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Branch{}, apperr.Ef(apperr.KindNotFound, "branch %d not found", id)
	}
	return b, err
}

func (r *repository) Children(ctx context.Context, parentID int64) ([]Branch, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	rows, err := ex.Query(ctx, `SELECT id, name, parent_id, phone, address, created_at, updated_at FROM branches WHERE parent_id = $1 ORDER BY name`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.ParentID, &b.Phone, &b.Address, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, branch Branch) (Branch, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	now := time.Now()
	err := ex.QueryRow(ctx, `INSERT INTO branches (name, parent_id, phone, address, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`, branch.Name, branch.ParentID, branch.Phone, branch.Address, now).Scan(&branch.ID)
	if err != nil {
		return Branch{}, err
	}
	branch.CreatedAt = now
	branch.UpdatedAt = now
	return branch, nil
}

func (r *repository) Update(ctx context.Context, id int64, branch Branch) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `UPDATE branches SET name=$2, parent_id=$3, phone=$4, address=$5, updated_at=$6 WHERE id=$1`,
		id, branch.Name, branch.ParentID, branch.Phone, branch.Address, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindNotFound, "branch %d not found", id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `DELETE FROM branches WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindNotFound, "branch %d not found", id)
	}
	return nil
}

func (r *repository) Hours(ctx context.Context, branchID int64) ([]DayHours, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	rows, err := ex.Query(ctx, `SELECT weekday, open_minutes, close_minutes FROM branch_hours WHERE branch_id = $1 ORDER BY weekday`, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayHours
	for rows.Next() {
		var h DayHours
		var weekday int
		if err := rows.Scan(&weekday, &h.OpenMinutes, &h.CloseMinutes); err != nil {
			return nil, err
		}
		h.Weekday = time.Weekday(weekday)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *repository) SetHours(ctx context.Context, branchID int64, hours []DayHours) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		ex := db.ExecutorFrom(ctx, r.pool)
		if _, err := ex.Exec(ctx, `DELETE FROM branch_hours WHERE branch_id = $1`, branchID); err != nil {
			return err
		}
		for _, h := range hours {
			if _, err := ex.Exec(ctx, `INSERT INTO branch_hours (branch_id, weekday, open_minutes, close_minutes) VALUES ($1, $2, $3, $4)`,
				branchID, int(h.Weekday), h.OpenMinutes, h.CloseMinutes); err != nil {
				return err
			}
		}
		return nil
	})
}
