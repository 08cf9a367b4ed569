package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/gameday/domain"
	"github.com/fastygo/gameday/internal/testutil"
	redisRepo "github.com/fastygo/gameday/repository/redis"
	"github.com/fastygo/gameday/usecase/auth"
	"github.com/fastygo/gameday/usecase/reconcile"
)

var loginAt = time.Date(2025, 12, 25, 13, 0, 0, 0, time.UTC)

type fakeSwitcher struct {
	enabled  bool
	userID   string
	loginErr error
	logouts  int
	result   reconcile.Result
}

func (s *fakeSwitcher) RemoteEnabled() bool { return s.enabled }

func (s *fakeSwitcher) Login(_ context.Context, userID string) (reconcile.Result, error) {
	if s.loginErr != nil {
		return reconcile.Result{}, s.loginErr
	}
	s.userID = userID
	return s.result, nil
}

func (s *fakeSwitcher) Logout(context.Context) {
	s.logouts++
	s.userID = ""
}

func (s *fakeSwitcher) UserID() string { return s.userID }

func (s *fakeSwitcher) Reconciled() reconcile.Result { return s.result }

func newUseCase(t *testing.T, switcher *fakeSwitcher) (*auth.UseCase, *testutil.UserRepository, *miniredis.Miniredis) {
	t.Helper()
	uc, users, mr, _ := newUseCaseWithClock(t, switcher)
	return uc, users, mr
}

func newUseCaseWithClock(t *testing.T, switcher *fakeSwitcher) (*auth.UseCase, *testutil.UserRepository, *miniredis.Miniredis, *testutil.Clock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := testutil.NewUserRepository()
	clock := testutil.NewClock(loginAt)
	uc := auth.New(users, redisRepo.NewSessionRepository(client, time.Hour), switcher, clock.Now, nil)
	return uc, users, mr, clock
}

func TestLogin(t *testing.T) {
	switcher := &fakeSwitcher{enabled: true, result: reconcile.Result{Outcome: reconcile.OutcomePushedLocal, Pushed: 3}}
	uc, users, _ := newUseCase(t, switcher)
	ctx := context.Background()

	res, err := uc.Login(ctx, auth.Identity{UserID: "u-88", Email: "wr@example.com", DisplayName: "Wide Receiver"}, 2*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "u-88", res.Session.UserID)
	assert.Equal(t, loginAt.Add(2*time.Hour), res.Session.ExpiresAt)
	assert.Equal(t, reconcile.OutcomePushedLocal, res.Reconcile.Outcome)
	assert.Equal(t, "u-88", switcher.userID)

	user, err := users.GetByID(ctx, "u-88")
	require.NoError(t, err)
	assert.Equal(t, "wr@example.com", user.Email)
	require.NotNil(t, user.LastLoginAt)
	assert.Equal(t, loginAt, *user.LastLoginAt)

	session, err := uc.GetSession(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "u-88", session.UserID)

	me, err := uc.Me(ctx)
	require.NoError(t, err)
	assert.True(t, me.Authenticated)
	assert.Equal(t, "u-88", me.User.ID)
	assert.Equal(t, 3, me.Reconcile.Pushed)
}

func TestLoginRemoteDisabled(t *testing.T) {
	uc := auth.New(nil, nil, &fakeSwitcher{}, nil, nil)

	_, err := uc.Login(context.Background(), auth.Identity{UserID: "u"}, time.Hour)
	assert.ErrorIs(t, err, domain.ErrRemoteDisabled)

	_, err = uc.RefreshSession(context.Background(), "s", time.Hour)
	assert.ErrorIs(t, err, domain.ErrRemoteDisabled)

	me, err := uc.Me(context.Background())
	require.NoError(t, err)
	assert.False(t, me.Authenticated)
}

func TestLoginSwitchFailure(t *testing.T) {
	switcher := &fakeSwitcher{enabled: true, loginErr: domain.Unavailable("load remote reminders", errors.New("refused"))}
	uc, _, mr := newUseCase(t, switcher)

	_, err := uc.Login(context.Background(), auth.Identity{UserID: "u-1"}, time.Hour)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
	assert.Empty(t, mr.Keys())
}

func TestLoginProfileFailure(t *testing.T) {
	switcher := &fakeSwitcher{enabled: true}
	uc, users, _ := newUseCase(t, switcher)
	users.UpsertErr = errors.New("pg down")

	_, err := uc.Login(context.Background(), auth.Identity{UserID: "u-1"}, time.Hour)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
	assert.Empty(t, switcher.userID)
}

func TestLogoutRevokesSession(t *testing.T) {
	switcher := &fakeSwitcher{enabled: true}
	uc, _, _ := newUseCase(t, switcher)
	ctx := context.Background()

	res, err := uc.Login(ctx, auth.Identity{UserID: "u-2"}, time.Hour)
	require.NoError(t, err)

	require.NoError(t, uc.Logout(ctx, res.Session.ID))
	assert.Equal(t, 1, switcher.logouts)
	assert.Empty(t, switcher.userID)

	_, err = uc.GetSession(ctx, res.Session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRefreshSession(t *testing.T) {
	uc, _, mr := newUseCase(t, &fakeSwitcher{enabled: true})
	ctx := context.Background()

	res, err := uc.Login(ctx, auth.Identity{UserID: "u-3"}, time.Minute)
	require.NoError(t, err)

	refreshed, err := uc.RefreshSession(ctx, res.Session.ID, 3*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, loginAt.Add(3*time.Hour), refreshed.ExpiresAt)
	assert.Equal(t, 3*time.Hour, mr.TTL("gameday:session:"+res.Session.ID))
}

func TestLogoutRevokesEverySessionOfTheIdentity(t *testing.T) {
	switcher := &fakeSwitcher{enabled: true}
	uc, _, mr := newUseCase(t, switcher)
	ctx := context.Background()

	first, err := uc.Login(ctx, auth.Identity{UserID: "u-4"}, time.Hour)
	require.NoError(t, err)
	second, err := uc.Login(ctx, auth.Identity{UserID: "u-4"}, time.Hour)
	require.NoError(t, err)

	require.NoError(t, uc.Logout(ctx, ""))
	assert.False(t, mr.Exists("gameday:session:"+first.Session.ID))
	assert.False(t, mr.Exists("gameday:session:"+second.Session.ID))
}

func TestLoginAsAnotherIdentityRevokesThePrevious(t *testing.T) {
	switcher := &fakeSwitcher{enabled: true}
	uc, _, mr := newUseCase(t, switcher)
	ctx := context.Background()

	old, err := uc.Login(ctx, auth.Identity{UserID: "u-5"}, time.Hour)
	require.NoError(t, err)
	current, err := uc.Login(ctx, auth.Identity{UserID: "u-6"}, time.Hour)
	require.NoError(t, err)

	assert.False(t, mr.Exists("gameday:session:"+old.Session.ID))
	assert.True(t, mr.Exists("gameday:session:"+current.Session.ID))
}

func TestAuthorize(t *testing.T) {
	switcher := &fakeSwitcher{enabled: true}
	uc, _, _, clock := newUseCaseWithClock(t, switcher)
	ctx := context.Background()

	session, err := uc.Authorize(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, session, "no login, nothing to authorize")

	res, err := uc.Login(ctx, auth.Identity{UserID: "u-7"}, time.Hour)
	require.NoError(t, err)

	session, err = uc.Authorize(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "u-7", session.UserID)

	_, err = uc.Authorize(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Authorize(ctx, "forged")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	clock.Advance(time.Hour)
	_, err = uc.Authorize(ctx, res.Session.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthorizeRejectsRevokedSession(t *testing.T) {
	switcher := &fakeSwitcher{enabled: true}
	uc, _, mr := newUseCase(t, switcher)
	ctx := context.Background()

	old, err := uc.Login(ctx, auth.Identity{UserID: "u-8"}, time.Hour)
	require.NoError(t, err)
	current, err := uc.Login(ctx, auth.Identity{UserID: "u-9"}, time.Hour)
	require.NoError(t, err)

	_, err = uc.Authorize(ctx, old.Session.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	mr.Del("gameday:session:" + current.Session.ID)
	_, err = uc.Authorize(ctx, current.Session.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthorizeRejectsSessionOfAnotherIdentity(t *testing.T) {
	switcher := &fakeSwitcher{enabled: true}
	uc, _, _ := newUseCase(t, switcher)
	ctx := context.Background()

	res, err := uc.Login(ctx, auth.Identity{UserID: "u-10"}, time.Hour)
	require.NoError(t, err)
	// The backend moved on without going through Login, e.g. a direct switch.
	switcher.userID = "u-11"

	_, err = uc.Authorize(ctx, res.Session.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefreshedSessionOutlivesItsFirstExpiry(t *testing.T) {
	uc, _, _, clock := newUseCaseWithClock(t, &fakeSwitcher{enabled: true})
	ctx := context.Background()

	res, err := uc.Login(ctx, auth.Identity{UserID: "u-12"}, time.Minute)
	require.NoError(t, err)
	_, err = uc.RefreshSession(ctx, res.Session.ID, time.Hour)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	session, err := uc.Authorize(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, loginAt.Add(time.Hour), session.ExpiresAt)
}

func TestEnforceExpiry(t *testing.T) {
	switcher := &fakeSwitcher{enabled: true}
	uc, _, mr, clock := newUseCaseWithClock(t, switcher)
	ctx := context.Background()

	ended, err := uc.EnforceExpiry(ctx)
	require.NoError(t, err)
	assert.False(t, ended)

	short, err := uc.Login(ctx, auth.Identity{UserID: "u-13"}, 10*time.Minute)
	require.NoError(t, err)
	long, err := uc.Login(ctx, auth.Identity{UserID: "u-13"}, time.Hour)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	ended, err = uc.EnforceExpiry(ctx)
	require.NoError(t, err)
	assert.False(t, ended, "one session is still live")
	assert.Equal(t, "u-13", switcher.userID)

	clock.Advance(time.Hour)
	ended, err = uc.EnforceExpiry(ctx)
	require.NoError(t, err)
	assert.True(t, ended)
	assert.Empty(t, switcher.userID)
	assert.Equal(t, 1, switcher.logouts)
	assert.False(t, mr.Exists("gameday:session:"+short.Session.ID))
	assert.False(t, mr.Exists("gameday:session:"+long.Session.ID))
}

func TestEnforceExpiryWhenRedisDroppedEverySession(t *testing.T) {
	switcher := &fakeSwitcher{enabled: true}
	uc, _, mr := newUseCase(t, switcher)
	ctx := context.Background()

	res, err := uc.Login(ctx, auth.Identity{UserID: "u-14"}, time.Hour)
	require.NoError(t, err)
	mr.Del("gameday:session:" + res.Session.ID)

	ended, err := uc.EnforceExpiry(ctx)
	require.NoError(t, err)
	assert.True(t, ended)
	assert.Empty(t, switcher.userID)
}
