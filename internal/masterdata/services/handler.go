package services

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	mdshared "github.com/velora-salon/velora-salon/internal/masterdata/shared"
	"github.com/velora-salon/velora-salon/internal/platform/httpx"
	"github.com/velora-salon/velora-salon/internal/shared"
)

// ServiceForm is the create/update request payload.
type ServiceForm struct {
	BranchID        int64    `json:"branch_id" validate:"required,gt=0"`
	Name            string   `json:"name" validate:"required"`
	Type            string   `json:"type" validate:"required,oneof=TIME_BASED UNIT_BASED"`
	DurationMin     int      `json:"duration_min" validate:"gte=0"`
	Price           float64  `json:"price" validate:"gte=0"`
	CommissionRate  *float64 `json:"commission_rate" validate:"omitempty,gte=0,lte=1"`
	CommissionFixed *float64 `json:"commission_fixed" validate:"omitempty,gte=0"`
}

// Handler manages service catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	catalog  *Catalog
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, catalog *Catalog) *Handler {
	return &Handler{logger: logger, catalog: catalog, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	filters := mdshared.ListFilters{Page: page, Limit: limit, Search: q.Get("search")}
	if raw := q.Get("branch_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.BranchID = &id
		}
	}
	items, total, err := h.catalog.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list services", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid ID"))
		return
	}
	svc, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, svc)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	svc, err := h.decode(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.catalog.Create(r.Context(), svc)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid ID"))
		return
	}
	svc, derr := h.decode(r)
	if derr != nil {
		httpx.RespondError(w, derr)
		return
	}
	if err := h.catalog.Update(r.Context(), id, svc); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid ID"))
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(r *http.Request) (Service, error) {
	var form ServiceForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		return Service{}, shared.E(shared.KindValidation, "malformed request body")
	}
	if err := h.validate.Struct(form); err != nil {
		return Service{}, shared.Wrap(shared.KindValidation, "invalid service payload", err)
	}
	return Service{
		BranchID:        form.BranchID,
		Name:            form.Name,
		Type:            ServiceType(form.Type),
		DurationMin:     form.DurationMin,
		Price:           form.Price,
		CommissionRate:  form.CommissionRate,
		CommissionFixed: form.CommissionFixed,
	}, nil
}
