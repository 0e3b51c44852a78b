package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLoginDashboardLogout tests the complete flow:
// 1. Adopt a token pair from the OAuth callback
// 2. Call an authenticated endpoint with the bearer attached
// 3. Log out and verify the session is cleared
func TestLoginDashboardLogout(t *testing.T) {
	fake, srv := newFakeLigaAPI(t)
	application := setupApp(t, srv.URL, stateFilePath(t))

	access := mintToken(t, time.Now().Add(time.Hour))
	refreshToken := "rt-initial"
	fake.issue(access, refreshToken)

	var flips []bool
	application.Session.Subscribe(func(authenticated bool) {
		flips = append(flips, authenticated)
	})

	application.Login(context.Background(), access, refreshToken)

	require.True(t, application.Session.IsAuthenticated())
	require.Equal(t, "ana@example.com", application.Session.UserEmail())
	require.Equal(t, []bool{true}, flips)

	deadline, armed := application.Scheduler.PendingDeadline()
	require.True(t, armed, "login should arm the proactive refresh")
	require.WithinDuration(t, time.Now().Add(55*time.Minute), deadline, time.Minute)

	users, err := application.API.UserDashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Ana Torres", users[0].FullName)

	t.Logf("Dashboard call succeeded for %s", users[0].Email)

	application.Logout(context.Background())

	require.False(t, application.Session.IsAuthenticated())
	require.Empty(t, application.Session.AccessToken())
	require.Equal(t, []bool{true, false}, flips)

	_, armed = application.Scheduler.PendingDeadline()
	require.False(t, armed, "logout should cancel the pending refresh")
}

// TestStaleTokenRefreshAndReplay verifies that a 401 from an authenticated
// endpoint triggers exactly one refresh exchange and one replay, and the
// caller sees the replayed success.
func TestStaleTokenRefreshAndReplay(t *testing.T) {
	fake, srv := newFakeLigaAPI(t)
	application := setupApp(t, srv.URL, stateFilePath(t))

	// The client holds a token the service no longer accepts, but the
	// refresh token is still good.
	staleAccess := mintToken(t, time.Now().Add(time.Hour))
	refreshToken := "rt-still-good"
	fake.issue(mintToken(t, time.Now().Add(time.Hour)), refreshToken)

	application.Login(context.Background(), staleAccess, refreshToken)
	require.True(t, application.Session.IsAuthenticated())

	users, err := application.API.UserDashboard(context.Background())
	require.NoError(t, err, "caller should see the replayed success, not the 401")
	require.Len(t, users, 1)

	dashboardHits, refreshHits := fake.counts()
	require.Equal(t, 2, dashboardHits, "original request plus one replay")
	require.Equal(t, 1, refreshHits)

	// The session adopted the rotated pair.
	currentAccess, currentRefresh := fake.currentPair()
	require.Equal(t, currentAccess, application.Session.AccessToken())
	require.Equal(t, currentRefresh, application.Session.RefreshToken())
	require.NotEqual(t, staleAccess, application.Session.AccessToken())

	t.Logf("Refresh-and-replay succeeded, tokens rotated")
}

// TestRefreshFailureSurfacesOriginal401 verifies that when the refresh
// exchange itself is rejected, the caller sees the original 401 and the
// session keeps its tokens for the caller to deal with.
func TestRefreshFailureSurfacesOriginal401(t *testing.T) {
	fake, srv := newFakeLigaAPI(t)
	application := setupApp(t, srv.URL, stateFilePath(t))

	authRequired := false
	application.OnAuthRequired = func() { authRequired = true }

	staleAccess := mintToken(t, time.Now().Add(time.Hour))
	fake.issue(mintToken(t, time.Now().Add(time.Hour)), "rt-server-side")

	// The client's refresh token does not match the server's.
	application.Login(context.Background(), staleAccess, "rt-revoked")

	_, err := application.API.UserDashboard(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
	require.True(t, authRequired, "a failed refresh should signal re-authentication")

	dashboardHits, refreshHits := fake.counts()
	require.Equal(t, 1, dashboardHits, "no replay after a failed refresh")
	require.Equal(t, 1, refreshHits)
}

// TestProactiveRefreshRotatesPair drives the scheduler's exchange directly
// and verifies both tokens rotate and persist.
func TestProactiveRefreshRotatesPair(t *testing.T) {
	fake, srv := newFakeLigaAPI(t)
	stateFile := stateFilePath(t)
	application := setupApp(t, srv.URL, stateFile)

	oldAccess := mintToken(t, time.Now().Add(time.Hour))
	oldRefresh := "rt-original"
	fake.issue(oldAccess, oldRefresh)

	application.Login(context.Background(), oldAccess, oldRefresh)

	var rotated bool
	application.OnTokensRefreshed = func(access, refresh string) { rotated = true }

	require.NoError(t, application.Scheduler.Refresh(context.Background()))

	require.NotEqual(t, oldAccess, application.Session.AccessToken(), "access token should be rotated")
	require.NotEqual(t, oldRefresh, application.Session.RefreshToken(), "refresh token should be rotated")
	require.True(t, rotated)
	require.True(t, application.Session.IsAuthenticated())

	t.Logf("Proactive refresh rotated the pair")
}

// TestSessionSurvivesRestart logs in, tears the application down, and
// verifies a fresh process rehydrates the session from the token database.
func TestSessionSurvivesRestart(t *testing.T) {
	fake, srv := newFakeLigaAPI(t)
	stateFile := stateFilePath(t)

	access := mintToken(t, time.Now().Add(time.Hour))
	fake.issue(access, "rt-persisted")

	first := setupApp(t, srv.URL, stateFile)
	first.Login(context.Background(), access, "rt-persisted")
	require.True(t, first.Session.IsAuthenticated())
	require.NoError(t, first.Close())

	second := setupApp(t, srv.URL, stateFile)
	second.Initialize(context.Background())

	require.True(t, second.Session.IsAuthenticated(), "restart should rehydrate the session")
	require.Equal(t, access, second.Session.AccessToken())
	require.Equal(t, "rt-persisted", second.Session.RefreshToken())

	_, armed := second.Scheduler.PendingDeadline()
	require.True(t, armed, "rehydration should arm the proactive refresh")

	t.Logf("Session survived restart")
}

// TestRevokedTokenRejectedOnRestart verifies that a stored token the
// service no longer accepts is not adopted on rehydration.
func TestRevokedTokenRejectedOnRestart(t *testing.T) {
	fake, srv := newFakeLigaAPI(t)
	stateFile := stateFilePath(t)

	access := mintToken(t, time.Now().Add(time.Hour))
	fake.issue(access, "rt-doomed")

	first := setupApp(t, srv.URL, stateFile)
	first.Login(context.Background(), access, "rt-doomed")
	require.NoError(t, first.Close())

	// The service stopped accepting the stored token while the process
	// was down.
	fake.issue(mintToken(t, time.Now().Add(time.Hour)), "rt-other")

	second := setupApp(t, srv.URL, stateFile)
	second.Initialize(context.Background())

	require.False(t, second.Session.IsAuthenticated(), "a rejected stored token must not authenticate")
}
