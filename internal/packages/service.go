package packages

import (
	"context"
	"strings"
	"time"

	"github.com/velora-salon/velora-salon/internal/platform/db"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

// Invoicer is the slice of the billing engine a package sale needs: packages
// are invoiced at sale time, so completing a package-bound appointment never
// creates a second invoice.
type Invoicer interface {
	SettlePackageSale(ctx context.Context, sale SaleInvoiceInput) (int64, error)
}

// SaleInvoiceInput carries the sale facts billing turns into an invoice.
type SaleInvoiceInput struct {
	CustomerID        int64
	CustomerPackageID int64
	SoldByStaffID     int64
	BranchID          int64
	PackagePrice      float64
	CommissionDue     float64
}

// Service manages the package catalog and customer package sales.
type Service struct {
	repo     Repository
	invoicer Invoicer
	tx       db.Runner
}

func NewService(repo Repository, invoicer Invoicer, tx db.Runner) *Service {
	return &Service{repo: repo, invoicer: invoicer, tx: tx}
}

func (s *Service) GetPackage(ctx context.Context, id int64) (Package, error) {
	if id <= 0 {
		return Package{}, apperr.E(apperr.KindValidation, "invalid package ID")
	}
	return s.repo.GetPackage(ctx, id)
}

func (s *Service) ListPackages(ctx context.Context) ([]Package, error) {
	return s.repo.ListPackages(ctx)
}

func (s *Service) CreatePackage(ctx context.Context, p Package) (Package, error) {
	if strings.TrimSpace(p.Name) == "" {
		return Package{}, apperr.E(apperr.KindValidation, "package name is required")
	}
	if p.Price < 0 {
		return Package{}, apperr.E(apperr.KindValidation, "package price cannot be negative")
	}
	if p.ValidityDays <= 0 {
		return Package{}, apperr.E(apperr.KindValidation, "package validity must be positive")
	}
	if len(p.Items) == 0 {
		return Package{}, apperr.E(apperr.KindValidation, "package needs at least one service entry")
	}
	seen := map[int64]bool{}
	for _, it := range p.Items {
		if it.ServiceID <= 0 || it.Quantity <= 0 {
			return Package{}, apperr.E(apperr.KindValidation, "package entries need a service and a positive quantity")
		}
		if seen[it.ServiceID] {
			return Package{}, apperr.E(apperr.KindValidation, "duplicate service in package entries")
		}
		seen[it.ServiceID] = true
	}
	return s.repo.CreatePackage(ctx, p)
}

func (s *Service) GetCustomerPackage(ctx context.Context, id int64) (CustomerPackage, error) {
	if id <= 0 {
		return CustomerPackage{}, apperr.E(apperr.KindValidation, "invalid customer package ID")
	}
	return s.repo.GetCustomerPackage(ctx, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]CustomerPackage, error) {
	if customerID <= 0 {
		return nil, apperr.E(apperr.KindValidation, "invalid customer ID")
	}
	return s.repo.ListByCustomer(ctx, customerID)
}

// SellInput identifies a package sale.
type SellInput struct {
	CustomerID   int64
	PackageID    int64
	SoldBy       int64
	BranchID     int64
	PurchaseDate time.Time
}

// Sell creates a customer package and its sale invoice as one atomic unit.
// The remaining-sessions map is seeded from the package's item quantities,
// which is the only place it is ever initialized.
func (s *Service) Sell(ctx context.Context, in SellInput) (CustomerPackage, error) {
	if in.CustomerID <= 0 || in.PackageID <= 0 {
		return CustomerPackage{}, apperr.E(apperr.KindValidation, "customer and package are required")
	}
	if in.BranchID <= 0 {
		return CustomerPackage{}, apperr.E(apperr.KindValidation, "branch is required")
	}
	pkg, err := s.repo.GetPackage(ctx, in.PackageID)
	if err != nil {
		return CustomerPackage{}, err
	}
	purchaseDate := in.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now()
	}

	remaining := Remaining{}
	for _, it := range pkg.Items {
		remaining[it.ServiceID] = it.Quantity
	}

	cp := CustomerPackage{
		CustomerID:   in.CustomerID,
		PackageID:    in.PackageID,
		PurchaseDate: purchaseDate,
		ExpiryDate:   purchaseDate.AddDate(0, 0, pkg.ValidityDays),
		Remaining:    remaining,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		created, err := s.repo.CreateCustomerPackage(ctx, cp)
		if err != nil {
			return err
		}
		cp = created
		_, err = s.invoicer.SettlePackageSale(ctx, SaleInvoiceInput{
			CustomerID:        in.CustomerID,
			CustomerPackageID: cp.ID,
			SoldByStaffID:     in.SoldBy,
			BranchID:          in.BranchID,
			PackagePrice:      pkg.Price,
			CommissionDue:     pkg.CommissionFor(),
		})
		return err
	})
	if err != nil {
		return CustomerPackage{}, err
	}
	return cp, nil
}
