package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/bluewater-portal/apierr"
	"github.com/jrsteele09/bluewater-portal/client"
	"github.com/jrsteele09/bluewater-portal/internal/config"
	apperrors "github.com/jrsteele09/bluewater-portal/internal/errors"
	"github.com/jrsteele09/bluewater-portal/internal/fakebackend"
	"github.com/jrsteele09/bluewater-portal/session"
	tokenfakerepo "github.com/jrsteele09/bluewater-portal/token/repofake"
	"github.com/jrsteele09/bluewater-portal/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type clientFixture struct {
	backend *fakebackend.Backend
	server  *httptest.Server
	store   *tokenfakerepo.FakeStore
	manager *session.Manager
	client  *client.Client

	lock         sync.Mutex
	requests     []*http.Request
	refreshGate  chan struct{}
	refreshStart chan struct{}
}

func newClientFixture(t *testing.T) *clientFixture {
	t.Helper()
	backend, err := fakebackend.New(config.FakeBackend{
		JWTSecret:          "test-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
	}, fakebackend.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	_, err = backend.SeedUser("admin@bluewater.test", "admin-pw", "Ada", "Admin", true)
	require.NoError(t, err)
	_, err = backend.SeedUser("member@bluewater.test", "member-pw", "Max", "Member", false)
	require.NoError(t, err)

	f := &clientFixture{backend: backend, store: tokenfakerepo.NewFakeStore()}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lock.Lock()
		f.requests = append(f.requests, r.Clone(context.Background()))
		gate, start := f.refreshGate, f.refreshStart
		f.lock.Unlock()
		if gate != nil && r.URL.Path == "/auth/refresh" {
			select {
			case start <- struct{}{}:
			default:
			}
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		backend.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)

	f.manager, err = session.NewManager(f.server.URL, f.store, session.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	f.client, err = client.New(f.server.URL, f.manager, client.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return f
}

func (f *clientFixture) login(t *testing.T, email, password string) {
	t.Helper()
	_, err := f.manager.Login(context.Background(), email, password)
	require.NoError(t, err)
	f.lock.Lock()
	f.requests = nil
	f.lock.Unlock()
}

// gateRefresh holds /auth/refresh until the returned func is called. The
// returned channel receives when a refresh arrives.
func (f *clientFixture) gateRefresh(t *testing.T) (<-chan struct{}, func()) {
	t.Helper()
	gate, start := make(chan struct{}), make(chan struct{}, 1)
	f.lock.Lock()
	f.refreshGate, f.refreshStart = gate, start
	f.lock.Unlock()
	var once sync.Once
	open := func() { once.Do(func() { close(gate) }) }
	t.Cleanup(open)
	return start, open
}

// requestsTo returns the recorded requests for path.
func (f *clientFixture) requestsTo(path string) []*http.Request {
	f.lock.Lock()
	defer f.lock.Unlock()
	var out []*http.Request
	for _, r := range f.requests {
		if r.URL.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *clientFixture) seedTasks(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.backend.Seed("tasks", fakebackend.Record{"title": "task", "status": "not_started"})
		require.NoError(t, err)
	}
}

func TestList_Pagination(t *testing.T) {
	f := newClientFixture(t)
	f.seedTasks(t, 25)
	f.login(t, "member@bluewater.test", "member-pw")

	res, err := f.client.List(context.Background(), "tasks", client.ListParams{Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, res.Items, 10)
	require.Equal(t, 25, res.Total)
	require.EqualValues(t, 11, res.Items[0]["id"])

	reqs := f.requestsTo("/tasks")
	require.Len(t, reqs, 1)
	require.Equal(t, "2", reqs[0].URL.Query().Get("page"))
	require.Equal(t, "10", reqs[0].URL.Query().Get("page_size"))
	require.NotEmpty(t, reqs[0].Header.Get("X-Request-Id"))
}

func TestList_TotalFallsBackToItemCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"), "no token, no header")
		_, _ = w.Write([]byte(`[{"id":1},{"id":2}]`))
	}))
	defer server.Close()

	c, err := client.New(server.URL, nil, client.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	res, err := c.List(context.Background(), "rooms", client.ListParams{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
}

func TestListParams_Query(t *testing.T) {
	q := client.ListParams{
		Page:     3,
		PageSize: 5,
		Sort:     []client.SortKey{{Field: "due_date", Order: client.Desc}, {Field: "title"}},
		Filters: map[string]any{
			"status":    []string{"assigned", "in_progress"},
			"is_public": true,
			"tags":      []int{1, 2},
		},
	}.Query()

	require.Equal(t, url.Values{
		"page":      {"3"},
		"page_size": {"5"},
		"sort_by":   {"due_date"},
		"order":     {"desc"},
		"status":    {"assigned", "in_progress"},
		"is_public": {"true"},
		"tags":      {"1", "2"},
	}, q)

	require.Equal(t, url.Values{"sort_by": {"name"}, "order": {"asc"}},
		client.ListParams{Sort: []client.SortKey{{Field: "name"}}}.Query())
}

func TestCRUD(t *testing.T) {
	f := newClientFixture(t)
	f.login(t, "member@bluewater.test", "member-pw")
	ctx := context.Background()

	created, err := f.client.Create(ctx, "rooms", map[string]any{"name": "Loft", "max_people": 4})
	require.NoError(t, err)
	id := created["id"]
	require.EqualValues(t, 1, id)

	got, err := f.client.GetOne(ctx, "rooms", 1)
	require.NoError(t, err)
	require.Equal(t, "Loft", got["name"])

	updated, err := f.client.Update(ctx, "rooms", 1, map[string]any{"floor": 2})
	require.NoError(t, err)
	require.EqualValues(t, 2, updated["floor"])
	require.Equal(t, "Loft", updated["name"])

	deleted, err := f.client.DeleteOne(ctx, "rooms", 1)
	require.NoError(t, err)
	require.Empty(t, deleted)
	require.NotNil(t, deleted)

	_, err = f.client.GetOne(ctx, "rooms", 1)
	var httpErr *apierr.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	require.Equal(t, "Not Found", httpErr.Detail)
}

func TestRetryAfterRefresh(t *testing.T) {
	f := newClientFixture(t)
	_, err := f.backend.Seed("tasks", fakebackend.Record{"id": 7, "title": "Fix the dock"})
	require.NoError(t, err)
	f.login(t, "member@bluewater.test", "member-pw")
	f.backend.ExpireAccessTokens()

	rec, err := f.client.GetOne(context.Background(), "tasks", 7)
	require.NoError(t, err)
	require.Equal(t, "Fix the dock", rec["title"])

	require.Equal(t, 1, f.backend.RefreshCalls())
	reqs := f.requestsTo("/tasks/7")
	require.Len(t, reqs, 2, "the original request is retried once")
	require.NotEqual(t, reqs[0].Header.Get("Authorization"), reqs[1].Header.Get("Authorization"))
}

func TestRetryReplaysBody(t *testing.T) {
	f := newClientFixture(t)
	f.login(t, "member@bluewater.test", "member-pw")
	f.backend.ExpireAccessTokens()

	rec, err := f.client.Create(context.Background(), "tags", map[string]any{"name": "outdoor"})
	require.NoError(t, err)
	require.Equal(t, "outdoor", rec["name"])
	require.Len(t, f.requestsTo("/tags"), 2)
}

func TestRefreshFails_ForcedLogout(t *testing.T) {
	f := newClientFixture(t)
	f.seedTasks(t, 7)
	f.login(t, "member@bluewater.test", "member-pw")
	f.backend.ExpireAccessTokens()
	require.NoError(t, f.backend.RevokeRefreshTokens())

	_, err := f.client.GetOne(context.Background(), "tasks", 7)
	var expired *apierr.SessionExpiredError
	require.ErrorAs(t, err, &expired)
	require.True(t, expired.Logout)
	require.Equal(t, string(session.RedirectLogin), expired.RedirectTo)

	require.Len(t, f.requestsTo("/tasks/7"), 1, "no retry after a failed refresh")
	require.Equal(t, 0, f.store.Len())
	_, ok := f.manager.Identity(context.Background())
	require.False(t, ok)
}

func TestUnauthorized_NoRefreshToken(t *testing.T) {
	f := newClientFixture(t)

	_, err := f.client.GetOne(context.Background(), "tasks", 1)
	var expired *apierr.SessionExpiredError
	require.ErrorAs(t, err, &expired)
	require.False(t, expired.Logout)
	require.True(t, apierr.IsUnauthorized(err))
	require.Equal(t, 0, f.backend.RefreshCalls())

	anonymous, err := client.New(f.server.URL, nil, client.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	_, err = anonymous.GetOne(context.Background(), "tasks", 1)
	require.False(t, apierr.IsSessionExpired(err))
	require.Equal(t, http.StatusUnauthorized, apierr.StatusCode(err))
}

func TestConcurrentRequests_SingleRefresh(t *testing.T) {
	f := newClientFixture(t)
	f.seedTasks(t, 3)
	f.login(t, "member@bluewater.test", "member-pw")
	f.backend.ExpireAccessTokens()

	const callers = 10
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.client.List(context.Background(), "tasks", client.ListParams{})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.backend.RefreshCalls())
}

func TestCustom_ToggleAdmin(t *testing.T) {
	f := newClientFixture(t)
	f.login(t, "admin@bluewater.test", "admin-pw")

	rec, err := f.client.Custom(context.Background(), client.CustomRequest{
		Method: http.MethodPatch,
		Path:   "/profiles/toggle-admin/2",
		Header: http.Header{"X-Portal-Screen": {"profiles"}},
	})
	require.NoError(t, err)
	require.Equal(t, true, rec["is_admin"])

	reqs := f.requestsTo("/profiles/toggle-admin/2")
	require.Len(t, reqs, 1)
	require.Equal(t, "profiles", reqs[0].Header.Get("X-Portal-Screen"))
	require.Contains(t, reqs[0].Header.Get("Authorization"), "Bearer ")
}

func TestDo_TypedDecoding(t *testing.T) {
	f := newClientFixture(t)
	f.login(t, "member@bluewater.test", "member-pw")

	var profile users.Profile
	_, err := f.client.Do(context.Background(), client.Request{Path: "profiles/me"}, &profile)
	require.NoError(t, err)
	require.Equal(t, "member@bluewater.test", profile.Email)
}

func TestMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/profiles/me":
			_, _ = w.Write([]byte(`{"id":0,"email":""}`))
		default:
			_, _ = w.Write([]byte(`{not json`))
		}
	}))
	defer server.Close()

	c, err := client.New(server.URL, nil, client.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	var malformed *apierr.MalformedResponseError
	_, err = c.GetOne(context.Background(), "tasks", 1)
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "/tasks/1", malformed.URL)

	var profile users.Profile
	_, err = c.Do(context.Background(), client.Request{Path: "profiles/me"}, &profile)
	require.ErrorAs(t, err, &malformed)
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	c, err := client.New(server.URL, nil, client.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	_, err = c.List(context.Background(), "tasks", client.ListParams{})
	var netErr *apierr.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, http.MethodGet, netErr.Method)
}

func TestInvalidArguments(t *testing.T) {
	_, err := client.New("::", nil)
	require.Error(t, err)

	c, err := client.New("http://backend", nil)
	require.NoError(t, err)
	_, err = c.List(context.Background(), "", client.ListParams{})
	require.ErrorIs(t, err, apperrors.ErrInvalidResource)
	_, err = c.GetOne(context.Background(), "tasks", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidID)
	_, err = c.Custom(context.Background(), client.CustomRequest{})
	require.ErrorIs(t, err, apperrors.ErrInvalidResource)
}

func TestLogout_WhileRequestRefreshes(t *testing.T) {
	f := newClientFixture(t)
	f.seedTasks(t, 7)
	f.login(t, "member@bluewater.test", "member-pw")
	f.backend.ExpireAccessTokens()
	started, release := f.gateRefresh(t)

	done := make(chan error, 1)
	go func() {
		_, err := f.client.GetOne(context.Background(), "tasks", 7)
		done <- err
	}()
	<-started

	f.manager.Logout(context.Background())
	release()

	err := <-done
	var expired *apierr.SessionExpiredError
	require.ErrorAs(t, err, &expired)
	require.True(t, expired.Logout)
	require.Len(t, f.requestsTo("/tasks/7"), 1, "nothing to retry with after logout")

	_, err = f.manager.Token()
	require.ErrorIs(t, err, apperrors.ErrNoAccessToken)
	require.Equal(t, 0, f.store.Len())
}

func TestCustom_CallerAuthorizationWins(t *testing.T) {
	f := newClientFixture(t)
	f.login(t, "admin@bluewater.test", "admin-pw")

	_, err := f.client.Custom(context.Background(), client.CustomRequest{
		Method: http.MethodGet,
		Path:   "/profiles/me",
		Header: http.Header{"Authorization": {"Bearer caller-token"}},
	})
	require.Equal(t, http.StatusUnauthorized, apierr.StatusCode(err))
	require.False(t, apierr.IsSessionExpired(err))
	require.Equal(t, 0, f.backend.RefreshCalls())

	reqs := f.requestsTo("/profiles/me")
	require.Len(t, reqs, 1)
	require.Equal(t, "Bearer caller-token", reqs[0].Header.Get("Authorization"))

	// The session is untouched.
	_, err = f.manager.Token()
	require.NoError(t, err)
}
