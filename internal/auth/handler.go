package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/velora-salon/velora-salon/internal/platform/httpx"
	"github.com/velora-salon/velora-salon/internal/shared"
)

// LoginForm carries login credentials.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterForm creates a login account for a staff member.
type RegisterForm struct {
	StaffID  int64  `json:"staff_id" validate:"required,gt=0"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Post("/register", h.register)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var form LoginForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "malformed request body"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, shared.Wrap(shared.KindValidation, "invalid login payload", err))
		return
	}
	sess, err := h.service.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), BearerToken(r)); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok || p.Role != shared.RoleAdmin {
		httpx.RespondError(w, shared.E(shared.KindForbidden, "only admins can register accounts"))
		return
	}
	var form RegisterForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "malformed request body"))
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, shared.Wrap(shared.KindValidation, "invalid register payload", err))
		return
	}
	account, err := h.service.Register(r.Context(), form.StaffID, form.Email, form.Password)
	if err != nil {
		h.logger.Error("register account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// Middleware resolves the bearer token and stores the principal on the
// request context. Requests without a valid session proceed anonymously;
// handlers enforce their own access rules.
func Middleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := BearerToken(r); token != "" {
				if p, err := service.Resolve(r.Context(), token); err == nil {
					r = r.WithContext(shared.ContextWithPrincipal(r.Context(), p))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests that carry no authenticated principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.PrincipalFromContext(r.Context()); !ok {
			httpx.RespondError(w, shared.E(shared.KindForbidden, "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
