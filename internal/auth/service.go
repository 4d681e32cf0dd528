package auth

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/velora-salon/velora-salon/internal/masterdata/staff"
	"github.com/velora-salon/velora-salon/internal/shared"
)

// StaffSource resolves the staff member an account belongs to.
type StaffSource interface {
	Get(ctx context.Context, id int64) (staff.Member, error)
}

// Service wraps authentication rules and the Redis session store.
type Service struct {
	repo     Repository
	staff    StaffSource
	sessions *redis.Client
	ttl      time.Duration
}

func NewService(repo Repository, staffSource StaffSource, sessions *redis.Client, ttl time.Duration) *Service {
	return &Service{repo: repo, staff: staffSource, sessions: sessions, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Register creates a login account for a staff member.
func (s *Service) Register(ctx context.Context, staffID int64, email, password string) (Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if staffID <= 0 || email == "" {
		return Account{}, shared.E(shared.KindValidation, "staff and email are required")
	}
	if len(password) < 8 {
		return Account{}, shared.E(shared.KindValidation, "password must be at least 8 characters")
	}
	if _, err := s.staff.Get(ctx, staffID); err != nil {
		return Account{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}
	return s.repo.Create(ctx, Account{
		StaffID:      staffID,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	})
}

// Login verifies credentials and opens a session. Lookup failures and bad
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil || !account.IsActive {
		return Session{}, shared.E(shared.KindForbidden, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Session{}, shared.E(shared.KindForbidden, "invalid credentials")
	}

	member, err := s.staff.Get(ctx, account.StaffID)
	if err != nil {
		return Session{}, err
	}

	now := time.Now()
	sess := Session{
		Token:     uuid.NewString(),
		Principal: member.Principal(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.Set(ctx, sessionKey(sess.Token), payload, s.ttl).Err(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Resolve maps a bearer token back to its principal.
func (s *Service) Resolve(ctx context.Context, token string) (shared.Principal, error) {
	if token == "" {
		return shared.Principal{}, shared.E(shared.KindForbidden, "missing session token")
	}
	raw, err := s.sessions.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return shared.Principal{}, shared.E(shared.KindForbidden, "session expired")
	}
	if err != nil {
		return shared.Principal{}, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return shared.Principal{}, err
	}
	return sess.Principal, nil
}

// Logout discards the session. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Del(ctx, sessionKey(token)).Err()
}
