package sessionledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-salon/velora-salon/internal/platform/db"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

type Repository interface {
	// FindByAppointment returns nil when no usage record exists.
	FindByAppointment(ctx context.Context, appointmentID int64) (*UsageRecord, error)
	Insert(ctx context.Context, rec UsageRecord) (UsageRecord, error)
	// DeleteByAppointment reports whether a record was actually removed.
	DeleteByAppointment(ctx context.Context, appointmentID int64) (bool, error)
	ListByCustomerPackage(ctx context.Context, customerPackageID int64) ([]UsageRecord, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) FindByAppointment(ctx context.Context, appointmentID int64) (*UsageRecord, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	var rec UsageRecord
	err := ex.QueryRow(ctx, `SELECT id, appointment_id, customer_package_id, service_id, used_at FROM package_usage_history WHERE appointment_id = $1`, appointmentID).
		Scan(&rec.ID, &rec.AppointmentID, &rec.CustomerPackageID, &rec.ServiceID, &rec.UsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) Insert(ctx context.Context, rec UsageRecord) (UsageRecord, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	if rec.UsedAt.IsZero() {
		rec.UsedAt = time.Now()
	}
	err := ex.QueryRow(ctx, `INSERT INTO package_usage_history (appointment_id, customer_package_id, service_id, used_at)
VALUES ($1, $2, $3, $4) RETURNING id`, rec.AppointmentID, rec.CustomerPackageID, rec.ServiceID, rec.UsedAt).Scan(&rec.ID)
	if err != nil {
		if db.IsUniqueViolation(err, "package_usage_history_appointment_id_key") {
			return UsageRecord{}, apperr.Wrap(apperr.KindAlreadyDebited, "session already debited for this appointment", err)
		}
		return UsageRecord{}, err
	}
	return rec, nil
}

func (r *repository) DeleteByAppointment(ctx context.Context, appointmentID int64) (bool, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `DELETE FROM package_usage_history WHERE appointment_id = $1`, appointmentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) ListByCustomerPackage(ctx context.Context, customerPackageID int64) ([]UsageRecord, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	rows, err := ex.Query(ctx, `SELECT id, appointment_id, customer_package_id, service_id, used_at FROM package_usage_history WHERE customer_package_id = $1 ORDER BY used_at`, customerPackageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UsageRecord
	for rows.Next() {
		var rec UsageRecord
		if err := rows.Scan(&rec.ID, &rec.AppointmentID, &rec.CustomerPackageID, &rec.ServiceID, &rec.UsedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
