package billing

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
	CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	GetInvoiceForUpdate(ctx context.Context, id int64) (Invoice, error)
	// FindInvoiceByAppointment returns nil when the appointment has no invoice.
	FindInvoiceByAppointment(ctx context.Context, appointmentID int64) (*Invoice, error)
	UpdateInvoiceTotals(ctx context.Context, id int64, amountPaid float64, status InvoiceStatus) error
	MarkInvoiceReversed(ctx context.Context, id int64, at time.Time) error

	CreatePayment(ctx context.Context, p Payment) (Payment, error)
	ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error)
	SumPayments(ctx context.Context, invoiceID int64) (float64, error)

	CreateCommission(ctx context.Context, c Commission) (Commission, error)
	// FindCommissionByInvoice returns nil when no commission exists yet.
	FindCommissionByInvoice(ctx context.Context, invoiceID int64) (*Commission, error)
	SetCommissionReversed(ctx context.Context, invoiceID int64, reversed bool) error
	ListCommissionsByStaff(ctx context.Context, staffID int64, from, to time.Time) ([]Commission, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, number, customer_id, staff_id, branch_id, appointment_id, customer_package_id, total_amount, amount_paid, status, commission_due, reversed_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.StaffID, &inv.BranchID,
		&inv.AppointmentID, &inv.CustomerPackageID, &inv.TotalAmount, &inv.AmountPaid,
		&inv.Status, &inv.CommissionDue, &inv.ReversedAt, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (r *repository) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	now := time.Now()
	err := ex.QueryRow(ctx, `INSERT INTO invoices (number, customer_id, staff_id, branch_id, appointment_id, customer_package_id, total_amount, amount_paid, status, commission_due, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11) RETURNING id`,
		inv.Number, inv.CustomerID, inv.StaffID, inv.BranchID, inv.AppointmentID, inv.CustomerPackageID,
		inv.TotalAmount, inv.AmountPaid, inv.Status, inv.CommissionDue, now).Scan(&inv.ID)
	if err != nil {
		if db.IsUniqueViolation(err, "invoices_appointment_id_key") {
			return Invoice{}, apperr.Wrap(apperr.KindConflict, "appointment already invoiced", err)
		}
		return Invoice{}, err
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now
	return inv, nil
}

func (r *repository) getInvoice(ctx context.Context, id int64, forUpdate bool) (Invoice, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	inv, err := scanInvoice(ex.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, apperr.Ef(apperr.KindNotFound, "invoice %d not found", id)
	}
	return inv, err
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	return r.getInvoice(ctx, id, false)
}

func (r *repository) GetInvoiceForUpdate(ctx context.Context, id int64) (Invoice, error) {
	return r.getInvoice(ctx, id, true)
}

func (r *repository) FindInvoiceByAppointment(ctx context.Context, appointmentID int64) (*Invoice, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	inv, err := scanInvoice(ex.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE appointment_id = $1`, appointmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) UpdateInvoiceTotals(ctx context.Context, id int64, amountPaid float64, status InvoiceStatus) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `UPDATE invoices SET amount_paid=$2, status=$3, updated_at=$4 WHERE id=$1`,
		id, amountPaid, status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindNotFound, "invoice %d not found", id)
	}
	return nil
}

func (r *repository) MarkInvoiceReversed(ctx context.Context, id int64, at time.Time) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `UPDATE invoices SET reversed_at=$2, updated_at=$2 WHERE id=$1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Ef(apperr.KindNotFound, "invoice %d not found", id)
	}
	return nil
}

func (r *repository) CreatePayment(ctx context.Context, p Payment) (Payment, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	err := ex.QueryRow(ctx, `INSERT INTO payments (number, invoice_id, amount, method, cash_entry_id, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		p.Number, p.InvoiceID, p.Amount, p.Method, p.CashEntryID, p.CreatedBy, p.CreatedAt).Scan(&p.ID)
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *repository) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	rows, err := ex.Query(ctx, `SELECT id, number, invoice_id, amount, method, cash_entry_id, created_by, created_at
FROM payments WHERE invoice_id = $1 ORDER BY created_at, id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Number, &p.InvoiceID, &p.Amount, &p.Method, &p.CashEntryID, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) SumPayments(ctx context.Context, invoiceID int64) (float64, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	var sum float64
	err := ex.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&sum)
	return sum, err
}

func (r *repository) CreateCommission(ctx context.Context, c Commission) (Commission, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	now := time.Now()
	err := ex.QueryRow(ctx, `INSERT INTO commissions (invoice_id, staff_id, amount, is_reversed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`, c.InvoiceID, c.StaffID, c.Amount, c.IsReversed, now).Scan(&c.ID)
	if err != nil {
		if db.IsUniqueViolation(err, "commissions_invoice_id_key") {
			return Commission{}, apperr.Wrap(apperr.KindCommissionExists, "commission already committed for invoice", err)
		}
		return Commission{}, err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *repository) FindCommissionByInvoice(ctx context.Context, invoiceID int64) (*Commission, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	var c Commission
	err := ex.QueryRow(ctx, `SELECT id, invoice_id, staff_id, amount, is_reversed, created_at, updated_at FROM commissions WHERE invoice_id = $1`, invoiceID).
		Scan(&c.ID, &c.InvoiceID, &c.StaffID, &c.Amount, &c.IsReversed, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) SetCommissionReversed(ctx context.Context, invoiceID int64, reversed bool) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	_, err := ex.Exec(ctx, `UPDATE commissions SET is_reversed=$2, updated_at=$3 WHERE invoice_id=$1`,
		invoiceID, reversed, time.Now())
	return err
}

func (r *repository) ListCommissionsByStaff(ctx context.Context, staffID int64, from, to time.Time) ([]Commission, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	rows, err := ex.Query(ctx, `SELECT id, invoice_id, staff_id, amount, is_reversed, created_at, updated_at
FROM commissions WHERE staff_id = $1 AND created_at >= $2 AND created_at < $3 ORDER BY created_at`, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Commission
	for rows.Next() {
		var c Commission
		if err := rows.Scan(&c.ID, &c.InvoiceID, &c.StaffID, &c.Amount, &c.IsReversed, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
