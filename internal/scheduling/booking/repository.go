package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-salon/velora-salon/internal/platform/db"
	"github.com/velora-salon/velora-salon/internal/scheduling/availability"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

// staffLockClass namespaces the per-staff advisory locks that serialize
// overlap check and insert.
const staffLockClass int32 = 1

type Repository interface {
	Create(ctx context.Context, appt Appointment) (Appointment, error)
	Get(ctx context.Context, id int64) (Appointment, error)
	GetForUpdate(ctx context.Context, id int64) (Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	ListByStaffDay(ctx context.Context, staffID int64, day time.Time) ([]Appointment, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Appointment, error)

	// LockStaff serializes all bookings against one staff calendar for the
	// remainder of the transaction.
	LockStaff(ctx context.Context, staffID int64) error
	// CountOverlapping counts blocking appointments intersecting
	// [start, end), excluding excludeID when positive.
	CountOverlapping(ctx context.Context, staffID int64, start, end time.Time, excludeID int64) (int, error)
	// CountActivePackageUses counts not-yet-completed appointments already
	// reserving a session of the given service from the customer package.
	CountActivePackageUses(ctx context.Context, customerPackageID, serviceID int64) (int, error)
	BusyIntervals(ctx context.Context, staffID int64, from, to time.Time) ([]availability.Interval, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const apptColumns = `id, customer_id, staff_id, service_id, branch_id, customer_package_id, start_time, end_time, status, notes, created_by, created_at, updated_at`

func scanAppointment(row pgx.Row) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.CustomerID, &a.StaffID, &a.ServiceID, &a.BranchID, &a.CustomerPackageID,
		&a.StartTime, &a.EndTime, &a.Status, &a.Notes, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) Create(ctx context.Context, appt Appointment) (Appointment, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	now := time.Now()
	err := ex.QueryRow(ctx, `INSERT INTO appointments (customer_id, staff_id, service_id, branch_id, customer_package_id, start_time, end_time, status, notes, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11) RETURNING id`,
		appt.CustomerID, appt.StaffID, appt.ServiceID, appt.BranchID, appt.CustomerPackageID,
		appt.StartTime, appt.EndTime, appt.Status, appt.Notes, appt.CreatedBy, now).Scan(&appt.ID)
	if err != nil {
		return Appointment{}, err
	}
	appt.CreatedAt = now
	appt.UpdatedAt = now
	return appt, nil
}

func (r *repository) get(ctx context.Context, id int64, forUpdate bool) (Appointment, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	appt, err := scanAppointment(ex.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, apperr.Ef(apperr.KindNotFound, "appointment %d not found", id)
	}
	return appt, err
}

func (r *repository) Get(ctx context.Context, id int64) (Appointment, error) {
	return r.get(ctx, id, false)
}

func (r *repository) GetForUpdate(ctx context.Context, id int64) (Appointment, error) {
	return r.get(ctx, id, true)
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `UPDATE appointments SET status=$2, updated_at=$3 WHERE id=$1`, id, status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindNotFound, "appointment %d not found", id)
	}
	return nil
}

func (r *repository) listQuery(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	rows, err := ex.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) ListByStaffDay(ctx context.Context, staffID int64, day time.Time) ([]Appointment, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return r.listQuery(ctx, `SELECT `+apptColumns+` FROM appointments
WHERE staff_id = $1 AND start_time >= $2 AND start_time < $3 ORDER BY start_time`,
		staffID, dayStart, dayStart.AddDate(0, 0, 1))
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64) ([]Appointment, error) {
	return r.listQuery(ctx, `SELECT `+apptColumns+` FROM appointments
WHERE customer_id = $1 ORDER BY start_time DESC`, customerID)
}

func (r *repository) LockStaff(ctx context.Context, staffID int64) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	return db.AdvisoryXactLock(ctx, ex, staffLockClass, staffID)
}

func (r *repository) CountOverlapping(ctx context.Context, staffID int64, start, end time.Time, excludeID int64) (int, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	var n int
	err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM appointments
WHERE staff_id = $1 AND status IN ('SCHEDULED','ARRIVED','COMPLETED')
AND start_time < $3 AND $2 < end_time AND id <> $4`,
		staffID, start, end, excludeID).Scan(&n)
	return n, err
}

func (r *repository) CountActivePackageUses(ctx context.Context, customerPackageID, serviceID int64) (int, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	var n int
	err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM appointments
WHERE customer_package_id = $1 AND service_id = $2 AND status IN ('SCHEDULED','ARRIVED')`,
		customerPackageID, serviceID).Scan(&n)
	return n, err
}

func (r *repository) BusyIntervals(ctx context.Context, staffID int64, from, to time.Time) ([]availability.Interval, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	rows, err := ex.Query(ctx, `SELECT start_time, end_time FROM appointments
WHERE staff_id = $1 AND status IN ('SCHEDULED','ARRIVED','COMPLETED')
AND start_time < $3 AND $2 < end_time ORDER BY start_time`,
		staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}
