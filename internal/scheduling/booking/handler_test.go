package booking

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/velora-salon/velora-salon/internal/shared"
)

func newBookingRouter(f *fixture) chi.Router {
	h := NewHandler(slog.Default(), f.service)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func withPrincipal(r *http.Request, role shared.Role, branchID int64) *http.Request {
	p := shared.Principal{UserID: 9, Role: role, BranchID: &branchID}
	return r.WithContext(shared.ContextWithPrincipal(r.Context(), p))
}

func createBody(branchID int64) string {
	return fmt.Sprintf(`{"customer_id":2,"staff_id":5,"service_id":10,"branch_id":%d,"start_time":%q}`,
		branchID, bookingStart.Format(time.RFC3339))
}

func TestCreateHandlerDeniesForeignBranch(t *testing.T) {
	f := newFixture(t, nil)
	router := newBookingRouter(f)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(createBody(2)))
	req = withPrincipal(req, shared.RoleReception, 1)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, f.reminders.appts)
}

func TestCreateHandlerRequiresPrincipal(t *testing.T) {
	f := newFixture(t, nil)
	router := newBookingRouter(f)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(createBody(1)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateHandlerHomeBranchAllowed(t *testing.T) {
	f := newFixture(t, nil)
	router := newBookingRouter(f)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(createBody(1)))
	req = withPrincipal(req, shared.RoleReception, 1)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, f.reminders.appts, 1)

	appt, err := f.repo.Get(req.Context(), f.reminders.appts[0])
	require.NoError(t, err)
	require.Equal(t, int64(9), appt.CreatedBy)
}

func TestCreateHandlerLogsRejectionsAtInfo(t *testing.T) {
	f := newFixture(t, nil)
	var buf bytes.Buffer
	h := NewHandler(slog.New(slog.NewTextHandler(&buf, nil)), f.service)
	router := chi.NewRouter()
	h.MountRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(createBody(1)))
	req = withPrincipal(req, shared.RoleReception, 1)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(createBody(1)))
	req = withPrincipal(req, shared.RoleReception, 1)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusConflict, w.Code)

	require.Contains(t, buf.String(), "booking rejected")
	require.NotContains(t, buf.String(), "level=ERROR")
}

func TestCreateHandlerAdminCrossesBranches(t *testing.T) {
	f := newFixture(t, nil)
	router := newBookingRouter(f)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(createBody(1)))
	req = withPrincipal(req, shared.RoleAdmin, 99)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
}
