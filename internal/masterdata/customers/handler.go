package customers

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

// CustomerForm is the customer create/update payload.
type CustomerForm struct {
	Name         string  `json:"name" validate:"required"`
	Phone        string  `json:"phone"`
	DiscountRate float64 `json:"discount_rate" validate:"gte=0,lt=1"`
}

// CreditForm tops up a customer's credit balance.
type CreditForm struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// Handler manages customer endpoints.
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
	r.Put("/{id}", h.update)
	r.Post("/{id}/credit", h.credit)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	items, total, err := h.service.List(r.Context(), mdshared.ListFilters{
		Page:   page,
		Limit:  limit,
		Search: q.Get("search"),
	})
	if err != nil {
		h.logger.Error("list customers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, err := h.decode(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), Customer{
		Name:         form.Name,
		Phone:        form.Phone,
		DiscountRate: form.DiscountRate,
	})
	if err != nil {
		h.logger.Error("create customer", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	form, err := h.decode(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Update(r.Context(), id, Customer{
		Name:         form.Name,
		Phone:        form.Phone,
		DiscountRate: form.DiscountRate,
	}); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) credit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form CreditForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "malformed request body"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, shared.Wrap(shared.KindValidation, "invalid credit payload", err))
		return
	}
	if err := h.service.Credit(r.Context(), id, form.Amount); err != nil {
		h.logger.Error("credit customer", slog.Int64("customer_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(r *http.Request) (CustomerForm, error) {
	var form CustomerForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		return form, shared.E(shared.KindValidation, "malformed request body")
	}
	if err := h.validate.Struct(form); err != nil {
		return form, shared.Wrap(shared.KindValidation, "invalid customer payload", err)
	}
	return form, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, "invalid ID")
	}
	return id, nil
}
