package cashbook

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

// EntryForm records one till movement.
type EntryForm struct {
	BranchID int64   `json:"branch_id" validate:"required,gt=0"`
	Type     string  `json:"type" validate:"required"`
	Amount   float64 `json:"amount" validate:"gte=0"`
	Note     string  `json:"note"`
}

// Handler manages cash ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/entries", h.record)
	r.Get("/branch/{branchID}/summary", h.summary)
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var form EntryForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "malformed request body"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, shared.Wrap(shared.KindValidation, "invalid cash entry payload", err))
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

	entry, err := h.service.Record(r.Context(), Entry{
		BranchID: form.BranchID,
		UserID:   p.UserID,
		Type:     EntryType(form.Type),
		Amount:   form.Amount,
		Note:     form.Note,
	})
	if err != nil {
		h.logger.Error("record cash entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	branchID, err := strconv.ParseInt(chi.URLParam(r, "branchID"), 10, 64)
	if err != nil || branchID <= 0 {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid branch ID"))
		return
	}
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
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

	summary, err := h.service.DailySummary(r.Context(), branchID, day)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
