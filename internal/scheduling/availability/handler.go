package availability

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/velora-salon/velora-salon/internal/platform/httpx"
	"github.com/velora-salon/velora-salon/internal/shared"
)

// Handler serves the slot lookup endpoint.
type Handler struct {
	logger *slog.Logger
	cache  *SlotCache
}

func NewHandler(logger *slog.Logger, cache *SlotCache) *Handler {
	return &Handler{logger: logger, cache: cache}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/slots", h.slots)
}

func (h *Handler) slots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	staffID, err := strconv.ParseInt(q.Get("staff_id"), 10, 64)
	if err != nil || staffID <= 0 {
		httpx.RespondError(w, shared.E(shared.KindValidation, "staff_id is required"))
		return
	}
	serviceID, err := strconv.ParseInt(q.Get("service_id"), 10, 64)
	if err != nil || serviceID <= 0 {
		httpx.RespondError(w, shared.E(shared.KindValidation, "service_id is required"))
		return
	}
	branchID, err := strconv.ParseInt(q.Get("branch_id"), 10, 64)
	if err != nil || branchID <= 0 {
		httpx.RespondError(w, shared.E(shared.KindValidation, "branch_id is required"))
		return
	}
	date, err := time.Parse("2006-01-02", q.Get("date"))
	if err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "date must be YYYY-MM-DD"))
		return
	}

	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.E(shared.KindForbidden, "authentication required"))
		return
	}
	if !shared.CanAccessBranch(p, branchID) {
		httpx.RespondError(w, shared.E(shared.KindForbidden, "branch not accessible"))
		return
	}

	slots, err := h.cache.Slots(r.Context(), staffID, serviceID, date, branchID)
	if err != nil {
		h.logger.Error("compute slots", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format(time.RFC3339))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"slots": out})
}
