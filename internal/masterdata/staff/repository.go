package staff

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
	List(ctx context.Context, filters shared.ListFilters) ([]Member, int, error)
	Get(ctx context.Context, id int64) (Member, error)
	Create(ctx context.Context, m Member) (Member, error)
	Update(ctx context.Context, id int64, m Member) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const memberColumns = `id, name, role, branch_id, phone, created_at, updated_at`

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.Name, &m.Role, &m.BranchID, &m.Phone, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Member, int, error) {
	ex := db.ExecutorFrom(ctx, r.pool)

	query := `SELECT ` + memberColumns + ` FROM staff WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM staff WHERE 1=1`
	args := []any{}

	if filters.BranchID != nil {
		args = append(args, *filters.BranchID)
		cond := ` AND branch_id = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filters.Role != "" {
		args = append(args, filters.Role)
		cond := ` AND role = $` + strconv.Itoa(len(args))
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

	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Member, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	m, err := scanMember(ex.QueryRow(ctx, `SELECT `+memberColumns+` FROM staff WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, apperr.Ef(apperr.KindNotFound, "staff %d not found", id)
	}
	return m, err
}

func (r *repository) Create(ctx context.Context, m Member) (Member, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	now := time.Now()
	err := ex.QueryRow(ctx, `INSERT INTO staff (name, role, branch_id, phone, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`, m.Name, m.Role, m.BranchID, m.Phone, now).Scan(&m.ID)
	if err != nil {
		return Member{}, err
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	return m, nil
}

func (r *repository) Update(ctx context.Context, id int64, m Member) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `UPDATE staff SET name=$2, role=$3, branch_id=$4, phone=$5, updated_at=$6 WHERE id=$1`,
		id, m.Name, m.Role, m.BranchID, m.Phone, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindNotFound, "staff %d not found", id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `DELETE FROM staff WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindNotFound, "staff %d not found", id)
	}
	return nil
}
