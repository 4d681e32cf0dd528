package packages

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/velora-salon/velora-salon/internal/platform/httpx"
	"github.com/velora-salon/velora-salon/internal/shared"
)

// PackageForm is the package catalog create payload.
type PackageForm struct {
	Name            string     `json:"name" validate:"required"`
	Price           float64    `json:"price" validate:"gte=0"`
	ValidityDays    int        `json:"validity_days" validate:"gt=0"`
	CommissionRate  *float64   `json:"commission_rate" validate:"omitempty,gte=0,lte=1"`
	CommissionFixed *float64   `json:"commission_fixed" validate:"omitempty,gte=0"`
	Items           []ItemForm `json:"items" validate:"required,min=1,dive"`
}

// ItemForm is one (service, quantity) package entry.
type ItemForm struct {
	ServiceID int64 `json:"service_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// SellForm sells a package to a customer.
type SellForm struct {
	CustomerID   int64  `json:"customer_id" validate:"required,gt=0"`
	PackageID    int64  `json:"package_id" validate:"required,gt=0"`
	SoldBy       int64  `json:"sold_by" validate:"required,gt=0"`
	BranchID     int64  `json:"branch_id" validate:"required,gt=0"`
	PurchaseDate string `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
}

// Handler manages package endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Post("/sell", h.sell)
	r.Get("/customer/{customerID}", h.listByCustomer)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListPackages(r.Context())
	if err != nil {
		h.logger.Error("list packages", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid ID"))
		return
	}
	pkg, err := h.service.GetPackage(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form PackageForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "malformed request body"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, shared.Wrap(shared.KindValidation, "invalid package payload", err))
		return
	}
	items := make([]PackageItem, 0, len(form.Items))
	for _, it := range form.Items {
		items = append(items, PackageItem{ServiceID: it.ServiceID, Quantity: it.Quantity})
	}
	pkg, err := h.service.CreatePackage(r.Context(), Package{
		Name:            form.Name,
		Price:           form.Price,
		ValidityDays:    form.ValidityDays,
		CommissionRate:  form.CommissionRate,
		CommissionFixed: form.CommissionFixed,
		Items:           items,
	})
	if err != nil {
		h.logger.Error("create package", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, pkg)
}

func (h *Handler) sell(w http.ResponseWriter, r *http.Request) {
	var form SellForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "malformed request body"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, shared.Wrap(shared.KindValidation, "invalid sale payload", err))
		return
	}
	var purchaseDate time.Time
	if form.PurchaseDate != "" {
		purchaseDate, _ = time.Parse("2006-01-02", form.PurchaseDate)
	}
	cp, err := h.service.Sell(r.Context(), SellInput{
		CustomerID:   form.CustomerID,
		PackageID:    form.PackageID,
		SoldBy:       form.SoldBy,
		BranchID:     form.BranchID,
		PurchaseDate: purchaseDate,
	})
	if err != nil {
		h.logger.Error("sell package", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cp)
}

func (h *Handler) listByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid customer ID"))
		return
	}
	out, err := h.service.ListByCustomer(r.Context(), customerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
