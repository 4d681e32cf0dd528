package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-salon/velora-salon/internal/platform/db"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

// Repository defines persistence operations for login accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
	Create(ctx context.Context, a Account) (Account, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) FindByEmail(ctx context.Context, email string) (Account, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	var a Account
	err := ex.QueryRow(ctx, `SELECT id, staff_id, email, password_hash, is_active, created_at, updated_at
FROM user_accounts WHERE email = $1`, email).
		Scan(&a.ID, &a.StaffID, &a.Email, &a.PasswordHash, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, apperr.E(apperr.KindNotFound, "account not found")
	}
	return a, err
}

func (r *repository) Create(ctx context.Context, a Account) (Account, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	now := time.Now()
	err := ex.QueryRow(ctx, `INSERT INTO user_accounts (staff_id, email, password_hash, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		a.StaffID, a.Email, a.PasswordHash, a.IsActive, now).Scan(&a.ID)
	if err != nil {
		if db.IsUniqueViolation(err, "user_accounts_email_key") {
			return Account{}, apperr.Wrap(apperr.KindConflict, "email already registered", err)
		}
		return Account{}, err
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return a, nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `UPDATE user_accounts SET is_active=$2, updated_at=$3 WHERE id=$1`, id, active, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindNotFound, "account %d not found", id)
	}
	return nil
}
