package packages

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
	GetPackage(ctx context.Context, id int64) (Package, error)
	ListPackages(ctx context.Context) ([]Package, error)
	CreatePackage(ctx context.Context, p Package) (Package, error)

	GetCustomerPackage(ctx context.Context, id int64) (CustomerPackage, error)
	// GetCustomerPackageForUpdate row-locks the customer package, serializing
	// all balance mutations and in-flight counting per package.
	GetCustomerPackageForUpdate(ctx context.Context, id int64) (CustomerPackage, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]CustomerPackage, error)
	CreateCustomerPackage(ctx context.Context, cp CustomerPackage) (CustomerPackage, error)
	// AdjustRemaining shifts remaining[serviceID] by delta, flooring at zero.
	// Fails when serviceID is not part of the package's items.
	AdjustRemaining(ctx context.Context, customerPackageID, serviceID int64, delta int) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetPackage(ctx context.Context, id int64) (Package, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	var p Package
	err := ex.QueryRow(ctx, `SELECT id, name, price, validity_days, commission_rate, commission_fixed, created_at, updated_at FROM packages WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.ValidityDays, &p.CommissionRate, &p.CommissionFixed, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Package{}, apperr.Ef(apperr.KindNotFound, "package %d not found", id)
	}
	if err != nil {
		return Package{}, err
	}
	items, err := r.packageItems(ctx, id)
	if err != nil {
		return Package{}, err
	}
	p.Items = items
	return p, nil
}

func (r *repository) packageItems(ctx context.Context, packageID int64) ([]PackageItem, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	rows, err := ex.Query(ctx, `SELECT service_id, quantity FROM package_items WHERE package_id = $1 ORDER BY service_id`, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PackageItem
	for rows.Next() {
		var it PackageItem
		if err := rows.Scan(&it.ServiceID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) ListPackages(ctx context.Context) ([]Package, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	rows, err := ex.Query(ctx, `SELECT id, name, price, validity_days, commission_rate, commission_fixed, created_at, updated_at FROM packages ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.ValidityDays, &p.CommissionRate, &p.CommissionFixed, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.packageItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *repository) CreatePackage(ctx context.Context, p Package) (Package, error) {
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		ex := db.ExecutorFrom(ctx, r.pool)
		now := time.Now()
		if err := ex.QueryRow(ctx, `INSERT INTO packages (name, price, validity_days, commission_rate, commission_fixed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`, p.Name, p.Price, p.ValidityDays, p.CommissionRate, p.CommissionFixed, now).Scan(&p.ID); err != nil {
			return err
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		for _, it := range p.Items {
			if _, err := ex.Exec(ctx, `INSERT INTO package_items (package_id, service_id, quantity) VALUES ($1, $2, $3)`,
				p.ID, it.ServiceID, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Package{}, err
	}
	return p, nil
}

const customerPackageColumns = `id, customer_id, package_id, purchase_date, expiry_date, created_at, updated_at`

func (r *repository) getCustomerPackage(ctx context.Context, id int64, forUpdate bool) (CustomerPackage, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	query := `SELECT ` + customerPackageColumns + ` FROM customer_packages WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var cp CustomerPackage
	err := ex.QueryRow(ctx, query, id).
		Scan(&cp.ID, &cp.CustomerID, &cp.PackageID, &cp.PurchaseDate, &cp.ExpiryDate, &cp.CreatedAt, &cp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CustomerPackage{}, apperr.Ef(apperr.KindNotFound, "customer package %d not found", id)
	}
	if err != nil {
		return CustomerPackage{}, err
	}
	cp.Remaining, err = r.remaining(ctx, id)
	return cp, err
}

func (r *repository) remaining(ctx context.Context, customerPackageID int64) (Remaining, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	rows, err := ex.Query(ctx, `SELECT service_id, remaining FROM customer_package_sessions WHERE customer_package_id = $1`, customerPackageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	remaining := Remaining{}
	for rows.Next() {
		var serviceID int64
		var n int
		if err := rows.Scan(&serviceID, &n); err != nil {
			return nil, err
		}
		remaining[serviceID] = n
	}
	return remaining, rows.Err()
}

func (r *repository) GetCustomerPackage(ctx context.Context, id int64) (CustomerPackage, error) {
	return r.getCustomerPackage(ctx, id, false)
}

func (r *repository) GetCustomerPackageForUpdate(ctx context.Context, id int64) (CustomerPackage, error) {
	return r.getCustomerPackage(ctx, id, true)
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64) ([]CustomerPackage, error) {
	ex := db.ExecutorFrom(ctx, r.pool)
	rows, err := ex.Query(ctx, `SELECT `+customerPackageColumns+` FROM customer_packages WHERE customer_id = $1 ORDER BY purchase_date DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomerPackage
	for rows.Next() {
		var cp CustomerPackage
		if err := rows.Scan(&cp.ID, &cp.CustomerID, &cp.PackageID, &cp.PurchaseDate, &cp.ExpiryDate, &cp.CreatedAt, &cp.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		remaining, err := r.remaining(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Remaining = remaining
	}
	return out, nil
}

func (r *repository) CreateCustomerPackage(ctx context.Context, cp CustomerPackage) (CustomerPackage, error) {
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		ex := db.ExecutorFrom(ctx, r.pool)
		now := time.Now()
		if err := ex.QueryRow(ctx, `INSERT INTO customer_packages (customer_id, package_id, purchase_date, expiry_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`, cp.CustomerID, cp.PackageID, cp.PurchaseDate, cp.ExpiryDate, now).Scan(&cp.ID); err != nil {
			return err
		}
		cp.CreatedAt = now
		cp.UpdatedAt = now
		for serviceID, n := range cp.Remaining {
			if _, err := ex.Exec(ctx, `INSERT INTO customer_package_sessions (customer_package_id, service_id, remaining) VALUES ($1, $2, $3)`,
				cp.ID, serviceID, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CustomerPackage{}, err
	}
	return cp, nil
}

func (r *repository) AdjustRemaining(ctx context.Context, customerPackageID, serviceID int64, delta int) error {
	ex := db.ExecutorFrom(ctx, r.pool)
	tag, err := ex.Exec(ctx, `UPDATE customer_package_sessions SET remaining = remaining + $3
WHERE customer_package_id = $1 AND service_id = $2 AND remaining + $3 >= 0`, customerPackageID, serviceID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the service is not part of the package or the balance would
		// go negative; distinguish for the caller.
		var exists bool
		if err := ex.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customer_package_sessions WHERE customer_package_id = $1 AND service_id = $2)`,
			customerPackageID, serviceID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperr.Ef(apperr.KindValidation, "service %d is not part of customer package %d", serviceID, customerPackageID)
		}
		return apperr.Ef(apperr.KindInsufficientSessions, "customer package %d has no remaining sessions for service %d", customerPackageID, serviceID)
	}
	return nil
}
