package booking

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/velora-salon/velora-salon/internal/platform/httpx"
	"github.com/velora-salon/velora-salon/internal/shared"
)

// CreateForm is the booking request payload.
type CreateForm struct {
	CustomerID        int64  `json:"customer_id" validate:"required,gt=0"`
	StaffID           int64  `json:"staff_id" validate:"required,gt=0"`
	ServiceID         int64  `json:"service_id" validate:"required,gt=0"`
	BranchID          int64  `json:"branch_id" validate:"required,gt=0"`
	CustomerPackageID *int64 `json:"customer_package_id" validate:"omitempty,gt=0"`
	StartTime         string `json:"start_time" validate:"required"`
	DurationMin       int    `json:"duration_min" validate:"omitempty,gt=0"`
	Notes             string `json:"notes"`
}

// Handler manages appointment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Get("/staff/{staffID}", h.listByStaffDay)
	r.Get("/customer/{customerID}", h.listByCustomer)
	r.Post("/{id}/arrive", h.statusAction(func(s *Service) statusFn { return s.Arrive }))
	r.Post("/{id}/cancel", h.statusAction(func(s *Service) statusFn { return s.Cancel }))
	r.Post("/{id}/no-show", h.statusAction(func(s *Service) statusFn { return s.MarkNoShow }))
	r.Post("/{id}/complete", h.statusAction(func(s *Service) statusFn { return s.Complete }))
	r.Post("/{id}/revert", h.statusAction(func(s *Service) statusFn { return s.Revert }))
}

func pathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, "invalid ID")
	}
	return id, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form CreateForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "malformed request body"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, shared.Wrap(shared.KindValidation, "invalid booking payload", err))
		return
	}
	start, err := time.Parse(time.RFC3339, form.StartTime)
	if err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "start_time must be RFC 3339"))
		return
	}

	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.E(shared.KindForbidden, "authentication required"))
		return
	}
	if !shared.CanAccessBranch(p, form.BranchID) {
		httpx.RespondError(w, shared.E(shared.KindForbidden, "branch not accessible"))
		return
	}

	appt, err := h.service.Create(r.Context(), CreateInput{
		CustomerID:        form.CustomerID,
		StaffID:           form.StaffID,
		ServiceID:         form.ServiceID,
		BranchID:          form.BranchID,
		CustomerPackageID: form.CustomerPackageID,
		StartTime:         start,
		DurationMin:       form.DurationMin,
		Notes:             form.Notes,
		CreatedBy:         p.UserID,
	})
	if err != nil {
		// Kinded rejections are expected outcomes, not failures.
		if kind := shared.KindOf(err); kind != "" {
			h.logger.Info("booking rejected", slog.String("kind", string(kind)))
		} else {
			h.logger.Error("create appointment", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, appt)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	appt, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, appt)
}

func (h *Handler) listByStaffDay(w http.ResponseWriter, r *http.Request) {
	staffID, err := pathID(r, "staffID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "date must be YYYY-MM-DD"))
		return
	}
	out, err := h.service.ListByStaffDay(r.Context(), staffID, day)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := pathID(r, "customerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.ListByCustomer(r.Context(), customerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

type statusFn func(ctx context.Context, id int64) (Appointment, error)

func (h *Handler) statusAction(pick func(*Service) statusFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		appt, err := pick(h.service)(r.Context(), id)
		if err != nil {
			if kind := shared.KindOf(err); kind != "" {
				h.logger.Info("transition rejected", slog.Int64("id", id), slog.String("kind", string(kind)))
			} else {
				h.logger.Error("appointment transition", slog.Int64("id", id), slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, appt)
	}
}
