package billing

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

// PaymentForm applies an amount against an invoice.
type PaymentForm struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required"`
}

// InvoicePDF renders a printable invoice. Optional; a nil renderer disables
// the PDF endpoint.
type InvoicePDF interface {
	RenderInvoice(ctx context.Context, inv Invoice, payments []Payment) ([]byte, error)
}

// Handler manages invoice, payment and commission endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	pdf      InvoicePDF
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, pdf InvoicePDF) *Handler {
	return &Handler{logger: logger, service: service, pdf: pdf, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices/{id}", h.showInvoice)
	r.Get("/invoices/{id}/pdf", h.invoicePDF)
	r.Get("/invoices/{id}/payments", h.listPayments)
	r.Post("/invoices/{id}/payments", h.applyPayment)
	r.Post("/invoices/{id}/reverse", h.reverseInvoice)
	r.Get("/commissions/staff/{staffID}", h.listCommissions)
}

func pathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.E(shared.KindValidation, "invalid ID")
	}
	return id, nil
}

func (h *Handler) showInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payments, err := h.service.Payments(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.pdf.RenderInvoice(r.Context(), inv, payments)
	if err != nil {
		h.logger.Error("render invoice pdf", slog.Int64("invoice_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=invoice.pdf")
	_, _ = w.Write(pdf)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Payments(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) applyPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form PaymentForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "malformed request body"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, shared.Wrap(shared.KindValidation, "invalid payment payload", err))
		return
	}

	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.E(shared.KindForbidden, "authentication required"))
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !shared.CanAccessBranch(p, inv.BranchID) {
		httpx.RespondError(w, shared.E(shared.KindForbidden, "branch not accessible"))
		return
	}

	payment, err := h.service.ApplyPayment(r.Context(), id, form.Amount, PaymentMethod(form.Method), p.UserID)
	if err != nil {
		h.logger.Error("apply payment", slog.Int64("invoice_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) reverseInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok || (p.Role != shared.RoleAdmin && p.Role != shared.RoleSuperBranchManager) {
		httpx.RespondError(w, shared.E(shared.KindForbidden, "invoice reversal is restricted"))
		return
	}
	if err := h.service.ReverseInvoice(r.Context(), id); err != nil {
		h.logger.Error("reverse invoice", slog.Int64("invoice_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCommissions(w http.ResponseWriter, r *http.Request) {
	staffID, err := pathID(r, "staffID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "from must be YYYY-MM-DD"))
		return
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "to must be YYYY-MM-DD"))
		return
	}
	out, err := h.service.StaffCommissions(r.Context(), staffID, from, to.AddDate(0, 0, 1))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
