package availability

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/velora-salon/velora-salon/internal/shared"
)

func slotsRequest(branchID string, role shared.Role, homeBranch int64) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/slots?staff_id=5&service_id=10&branch_id="+branchID+"&date=2026-09-01", nil)
	p := shared.Principal{UserID: 9, Role: role, BranchID: &homeBranch}
	return req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
}

func newSlotsRouter(t *testing.T, busy *countingBusySource) chi.Router {
	t.Helper()
	cache, _ := newTestSlotCache(t, busy)
	r := chi.NewRouter()
	NewHandler(slog.Default(), cache).MountRoutes(r)
	return r
}

func TestSlotsHandlerDeniesForeignBranch(t *testing.T) {
	busy := &countingBusySource{}
	router := newSlotsRouter(t, busy)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, slotsRequest("2", shared.RoleReception, 1))

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, 0, busy.calls)
}

func TestSlotsHandlerRequiresPrincipal(t *testing.T) {
	busy := &countingBusySource{}
	router := newSlotsRouter(t, busy)

	req := httptest.NewRequest(http.MethodGet, "/slots?staff_id=5&service_id=10&branch_id=1&date=2026-09-01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSlotsHandlerHomeBranchAllowed(t *testing.T) {
	busy := &countingBusySource{}
	router := newSlotsRouter(t, busy)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, slotsRequest("1", shared.RoleReception, 1))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, busy.calls)
}
