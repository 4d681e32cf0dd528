package billing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/velora-salon/velora-salon/internal/shared"
)

func paymentRequest(invoiceID int64, role shared.Role, homeBranch int64) *http.Request {
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/invoices/%d/payments", invoiceID),
		strings.NewReader(`{"amount":40,"method":"CASH"}`))
	p := shared.Principal{UserID: 9, Role: role, BranchID: &homeBranch}
	return req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
}

func newBillingRouter(f *fixture) chi.Router {
	r := chi.NewRouter()
	NewHandler(slog.Default(), f.service, nil).MountRoutes(r)
	return r
}

func TestApplyPaymentHandlerDeniesForeignBranch(t *testing.T) {
	f := newFixture(0)
	inv, err := f.service.SettleAppointment(context.Background(), settlement())
	require.NoError(t, err)
	router := newBillingRouter(f)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, paymentRequest(inv.ID, shared.RoleReception, 2))

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, f.cash.entries)

	inv, err = f.service.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, Unpaid, inv.Status)
}

func TestApplyPaymentHandlerRequiresPrincipal(t *testing.T) {
	f := newFixture(0)
	inv, err := f.service.SettleAppointment(context.Background(), settlement())
	require.NoError(t, err)
	router := newBillingRouter(f)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/invoices/%d/payments", inv.ID),
		strings.NewReader(`{"amount":40,"method":"CASH"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestApplyPaymentHandlerHomeBranchAllowed(t *testing.T) {
	f := newFixture(0)
	inv, err := f.service.SettleAppointment(context.Background(), settlement())
	require.NoError(t, err)
	router := newBillingRouter(f)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, paymentRequest(inv.ID, shared.RoleReception, 1))

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, f.cash.entries, 1)

	payments, err := f.service.Payments(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, int64(9), payments[0].CreatedBy)
}
