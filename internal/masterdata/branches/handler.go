package branches

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	mdshared "github.com/velora-salon/velora-salon/internal/masterdata/shared"
	"github.com/velora-salon/velora-salon/internal/platform/httpx"
	"github.com/velora-salon/velora-salon/internal/shared"
)

// Handler manages branch endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers branch routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/children", h.children)
	r.Get("/{id}/hours", h.hours)
	r.Put("/{id}/hours", h.setHours)
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
		h.logger.Error("list branches", slog.Any("error", err))
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
	if !authorized(r, id) {
		httpx.RespondError(w, shared.E(shared.KindForbidden, "branch not visible to caller"))
		return
	}
	branch, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, branch)
}

func (h *Handler) children(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Children(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form BranchForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "malformed request body"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, shared.Wrap(shared.KindValidation, "invalid branch payload", err))
		return
	}
	branch, err := h.service.Create(r.Context(), Branch{
		Name:     form.Name,
		ParentID: form.ParentID,
		Phone:    form.Phone,
		Address:  form.Address,
	})
	if err != nil {
		h.logger.Error("create branch", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, branch)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form BranchForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "malformed request body"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, shared.Wrap(shared.KindValidation, "invalid branch payload", err))
		return
	}
	if err := h.service.Update(r.Context(), id, Branch{
		Name:     form.Name,
		ParentID: form.ParentID,
		Phone:    form.Phone,
		Address:  form.Address,
	}); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) hours(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	hours, err := h.service.Hours(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, hours)
}

func (h *Handler) setHours(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form HoursForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "malformed request body"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, shared.Wrap(shared.KindValidation, "invalid hours payload", err))
		return
	}
	hours := make([]DayHours, 0, len(form.Hours))
	for _, dh := range form.Hours {
		hours = append(hours, DayHours{
			Weekday:      time.Weekday(dh.Weekday),
			OpenMinutes:  dh.OpenMinutes,
			CloseMinutes: dh.CloseMinutes,
		})
	}
	if err := h.service.SetHours(r.Context(), id, hours); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, "invalid ID")
	}
	return id, nil
}

func authorized(r *http.Request, branchID int64) bool {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		return false
	}
	return shared.CanAccessBranch(p, branchID)
}
