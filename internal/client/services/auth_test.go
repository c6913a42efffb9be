package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/bdocctl/internal/client/api"
	"github.com/dmitrijs2005/bdocctl/internal/client/models"
	"github.com/dmitrijs2005/bdocctl/internal/client/repositories/session"
	"github.com/dmitrijs2005/bdocctl/internal/logging"
)

// ---- helpers ----

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupStore(t *testing.T) session.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE session (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return session.NewSQLiteStore(db)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	s, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

// ---- fake client ----

// fakeAuthClient implements api.Client for AuthController tests. The
// generation methods are never reached here.
type fakeAuthClient struct {
	ExchangeRet   *api.AuthPayload
	ExchangeErr   error
	ExchangeDelay time.Duration

	StatusRet   *api.AuthPayload
	StatusErr   error
	StatusDelay time.Duration

	LogoutErr error

	exchangeCalls atomic.Int32
	statusCalls   atomic.Int32
	logoutCalls   atomic.Int32

	LastCode  string
	LastState string

	cookie string
}

func (f *fakeAuthClient) ExchangeCallback(ctx context.Context, code, state string) (*api.AuthPayload, error) {
	f.exchangeCalls.Add(1)
	f.LastCode, f.LastState = code, state
	time.Sleep(f.ExchangeDelay)
	return f.ExchangeRet, f.ExchangeErr
}

func (f *fakeAuthClient) Status(ctx context.Context) (*api.AuthPayload, error) {
	f.statusCalls.Add(1)
	time.Sleep(f.StatusDelay)
	return f.StatusRet, f.StatusErr
}

func (f *fakeAuthClient) Logout(ctx context.Context) error {
	f.logoutCalls.Add(1)
	return f.LogoutErr
}

func (f *fakeAuthClient) Generate(ctx context.Context, req models.GenerationRequest) (*api.GenerateResponse, error) {
	panic("not used")
}

func (f *fakeAuthClient) TaskStatus(ctx context.Context, taskID string) (*api.TaskStatusResponse, error) {
	panic("not used")
}

func (f *fakeAuthClient) Domains(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeAuthClient) LoginURL(provider string) (string, error) {
	if provider != "google" && provider != "github" && provider != "outlook" {
		return "", api.ErrUnknownProvider
	}
	return "http://auth.local/login/" + provider, nil
}

func (f *fakeAuthClient) SessionCookie() string { return f.cookie }

func (f *fakeAuthClient) SetSessionCookie(v string) { f.cookie = v }

func (f *fakeAuthClient) Close() error { return nil }

func alicePayload() *api.AuthPayload {
	return &api.AuthPayload{Name: "Alice", Email: "alice@example.com"}
}

// ---- TESTS ----

func TestLogin_IdempotentAndPersistsLatest(t *testing.T) {
	store := setupStore(t)
	fc := &fakeAuthClient{cookie: "tok"}
	ac := NewAuthController(fc, store, discardLogger())
	ctx := context.Background()

	first := ac.Login(ctx, alicePayload())
	second := ac.Login(ctx, alicePayload())

	require.Equal(t, first, second)
	require.True(t, ac.IsAuthenticated())
	require.Equal(t, "alice@example.com", ac.Identity().ID) // id defaulted to email
	require.Equal(t, "oauth", ac.Identity().Provider)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, first, snap.Identity)
	require.Equal(t, "tok", snap.Cookie)
}

func TestLogin_PartialPayloadIsRejected(t *testing.T) {
	store := setupStore(t)
	ac := NewAuthController(&fakeAuthClient{}, store, discardLogger())
	ctx := context.Background()

	require.Nil(t, ac.Login(ctx, &api.AuthPayload{Name: "Alice"}))
	require.False(t, ac.IsAuthenticated())

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestInit_Probe401IsAuthoritative(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// Last run left an authenticated snapshot behind.
	identity := models.NewIdentity("", "Alice", "alice@example.com", "google")
	require.NoError(t, store.Save(ctx, &session.Snapshot{Identity: identity, Cookie: signedToken(t, time.Now().Add(time.Hour))}))

	fc := &fakeAuthClient{StatusErr: api.ErrUnauthorized}
	ac := NewAuthController(fc, store, discardLogger())

	ac.Init(ctx, "")

	require.False(t, ac.IsAuthenticated())
	require.False(t, ac.Loading())

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestInit_ProbeNetworkFailureKeepsHydratedIdentity(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	identity := models.NewIdentity("", "Alice", "alice@example.com", "google")
	require.NoError(t, store.Save(ctx, &session.Snapshot{Identity: identity, Cookie: signedToken(t, time.Now().Add(time.Hour))}))

	fc := &fakeAuthClient{StatusErr: api.ErrUnavailable}
	ac := NewAuthController(fc, store, discardLogger())

	ac.Init(ctx, "")

	require.True(t, ac.IsAuthenticated())
	require.Equal(t, identity, ac.Identity())
	require.False(t, ac.Loading())
	// The seeded cookie reached the client for the probe attempt.
	require.NotEmpty(t, fc.cookie)
}

func TestInit_PartialProbeReplyChangesNothing(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	identity := models.NewIdentity("", "Alice", "alice@example.com", "google")
	require.NoError(t, store.Save(ctx, &session.Snapshot{Identity: identity, Cookie: signedToken(t, time.Now().Add(time.Hour))}))

	fc := &fakeAuthClient{StatusRet: &api.AuthPayload{Email: "alice@example.com"}} // no name
	ac := NewAuthController(fc, store, discardLogger())

	ac.Init(ctx, "")

	require.True(t, ac.IsAuthenticated())
	require.Equal(t, identity, ac.Identity())
}

func TestInit_ExpiredSnapshotTokenSkipsOptimisticIdentity(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	identity := models.NewIdentity("", "Alice", "alice@example.com", "google")
	require.NoError(t, store.Save(ctx, &session.Snapshot{Identity: identity, Cookie: signedToken(t, time.Now().Add(-time.Hour))}))

	// Probe fails with a network error, so only hydration could have set
	// the identity, and the expired token suppressed it.
	fc := &fakeAuthClient{StatusErr: api.ErrUnavailable}
	ac := NewAuthController(fc, store, discardLogger())

	ac.Init(ctx, "")

	require.False(t, ac.IsAuthenticated())
}

func TestInit_CallbackExchangeLogsInAndStripsParams(t *testing.T) {
	store := setupStore(t)
	fc := &fakeAuthClient{
		ExchangeRet: alicePayload(),
		StatusErr:   api.ErrUnavailable, // probe inconclusive, exchange decides
	}
	ac := NewAuthController(fc, store, discardLogger())

	clean := ac.Init(context.Background(), "https://app.example.com/dash?code=c-1&state=s-1&tab=reports")

	require.Equal(t, "c-1", fc.LastCode)
	require.Equal(t, "s-1", fc.LastState)
	require.True(t, ac.IsAuthenticated())
	require.Equal(t, "https://app.example.com/dash?tab=reports", clean)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.Identity)
}

func TestInit_NoCodeSkipsExchange(t *testing.T) {
	fc := &fakeAuthClient{StatusErr: api.ErrUnavailable}
	ac := NewAuthController(fc, setupStore(t), discardLogger())

	ac.Init(context.Background(), "https://app.example.com/?tab=reports")

	require.Equal(t, int32(0), fc.exchangeCalls.Load())
	require.Equal(t, int32(1), fc.statusCalls.Load())
}

func TestInit_ExchangeFailureIsNonFatal(t *testing.T) {
	fc := &fakeAuthClient{
		ExchangeErr: errors.New("code already redeemed"),
		StatusErr:   api.ErrUnavailable,
	}
	ac := NewAuthController(fc, setupStore(t), discardLogger())

	ac.Init(context.Background(), "https://app.example.com/?code=c-1")

	require.False(t, ac.IsAuthenticated())
	require.False(t, ac.Loading())
}

func TestInit_LastSettlingCallWins(t *testing.T) {
	// The exchange succeeds instantly, then the probe answers 401 off a
	// stale cookie. The probe settles last, so the user ends up logged out.
	store := setupStore(t)
	fc := &fakeAuthClient{
		ExchangeRet: alicePayload(),
		StatusErr:   api.ErrUnauthorized,
		StatusDelay: 50 * time.Millisecond,
	}
	ac := NewAuthController(fc, store, discardLogger())

	ac.Init(context.Background(), "https://app.example.com/?code=c-1")

	require.False(t, ac.IsAuthenticated())
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestLogout_BackendFailureStillClearsLocally(t *testing.T) {
	store := setupStore(t)
	fc := &fakeAuthClient{LogoutErr: errors.New("connection reset")}
	ac := NewAuthController(fc, store, discardLogger())
	ctx := context.Background()

	ac.Login(ctx, alicePayload())
	ac.Logout(ctx)

	require.False(t, ac.IsAuthenticated())
	snap, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, snap)
	require.Equal(t, int32(1), fc.logoutCalls.Load())
}

func TestBeginSSOLogin_ReturnsURLWithoutStateChange(t *testing.T) {
	store := setupStore(t)
	ac := NewAuthController(&fakeAuthClient{}, store, discardLogger())

	u, err := ac.BeginSSOLogin("google")
	require.NoError(t, err)
	require.Equal(t, "http://auth.local/login/google", u)
	require.False(t, ac.IsAuthenticated())

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap)

	_, err = ac.BeginSSOLogin("myspace")
	require.ErrorIs(t, err, api.ErrUnknownProvider)
}

func TestStripCallbackParams(t *testing.T) {
	require.Equal(t, "https://a.example.com/?tab=x",
		stripCallbackParams("https://a.example.com/?code=1&state=2&tab=x"))
	require.Equal(t, "", stripCallbackParams(""))
}

func TestSessionTokenExpired(t *testing.T) {
	now := time.Now()
	require.True(t, sessionTokenExpired(signedToken(t, now.Add(-time.Minute)), now))
	require.False(t, sessionTokenExpired(signedToken(t, now.Add(time.Minute)), now))
	// Unreadable tokens are left for the probe to judge.
	require.False(t, sessionTokenExpired("garbage", now))
}
