package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/velora-salon/velora-salon/internal/masterdata/staff"
	"github.com/velora-salon/velora-salon/internal/shared"
)

type memoryRepo struct {
	nextID   int64
	accounts map[int64]Account
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: map[int64]Account{}}
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (Account, error) {
	for _, a := range r.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return Account{}, shared.Ef(shared.KindNotFound, "account %s not found", email)
}

func (r *memoryRepo) Create(ctx context.Context, account Account) (Account, error) {
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return Account{}, shared.E(shared.KindConflict, "email already registered")
		}
	}
	r.nextID++
	account.ID = r.nextID
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.accounts[account.ID] = account
	return account, nil
}

func (r *memoryRepo) SetActive(ctx context.Context, id int64, active bool) error {
	a, ok := r.accounts[id]
	if !ok {
		return shared.Ef(shared.KindNotFound, "account %d not found", id)
	}
	a.IsActive = active
	r.accounts[id] = a
	return nil
}

type stubStaff struct {
	members map[int64]staff.Member
}

func (s stubStaff) Get(ctx context.Context, id int64) (staff.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return staff.Member{}, shared.Ef(shared.KindNotFound, "staff member %d not found", id)
	}
	return m, nil
}

func newAuthFixture(t *testing.T) (*Service, *memoryRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	branchID := int64(1)
	repo := newMemoryRepo()
	staffSource := stubStaff{members: map[int64]staff.Member{
		5: {ID: 5, Name: "Dana", Role: shared.RoleReception, BranchID: &branchID},
	}}
	return NewService(repo, staffSource, client, time.Hour), repo, mr
}

func register(t *testing.T, svc *Service) Account {
	t.Helper()
	account, err := svc.Register(context.Background(), 5, "Dana@Example.com", "letmein-123")
	require.NoError(t, err)
	return account
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	account := register(t, svc)
	require.Equal(t, "dana@example.com", account.Email)
	require.True(t, account.IsActive)
	require.NotEqual(t, "letmein-123", account.PasswordHash)
}

func TestRegisterShortPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), 5, "dana@example.com", "short")
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestRegisterUnknownStaff(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), 99, "ghost@example.com", "letmein-123")
	require.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), 5, "dana@example.com", "letmein-123")
	require.True(t, shared.IsKind(err, shared.KindConflict))
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	register(t, svc)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "dana@example.com", "letmein-123")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.Equal(t, int64(5), sess.Principal.UserID)
	require.Equal(t, shared.RoleReception, sess.Principal.Role)

	p, err := svc.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, sess.Principal, p)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	register(t, svc)

	_, err := svc.Login(context.Background(), "dana@example.com", "not-the-password")
	require.True(t, shared.IsKind(err, shared.KindForbidden))
	require.Equal(t, "invalid credentials", shared.UserSafeMessage(err))
}

func TestLoginUnknownEmailLooksTheSame(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "nobody@example.com", "letmein-123")
	require.True(t, shared.IsKind(err, shared.KindForbidden))
	require.Equal(t, "invalid credentials", shared.UserSafeMessage(err))
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	account := register(t, svc)
	require.NoError(t, repo.SetActive(context.Background(), account.ID, false))

	_, err := svc.Login(context.Background(), "dana@example.com", "letmein-123")
	require.True(t, shared.IsKind(err, shared.KindForbidden))
}

func TestResolveExpiredSession(t *testing.T) {
	svc, _, mr := newAuthFixture(t)
	register(t, svc)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "dana@example.com", "letmein-123")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = svc.Resolve(ctx, sess.Token)
	require.True(t, shared.IsKind(err, shared.KindForbidden))
}

func TestLogout(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	register(t, svc)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "dana@example.com", "letmein-123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.Token))
	_, err = svc.Resolve(ctx, sess.Token)
	require.True(t, shared.IsKind(err, shared.KindForbidden))

	// Unknown tokens are a no-op.
	require.NoError(t, svc.Logout(ctx, "no-such-token"))
	require.NoError(t, svc.Logout(ctx, ""))
}
