package fakebackend_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/bluewater-portal/apimodel"
	"github.com/jrsteele09/bluewater-portal/internal/config"
	"github.com/jrsteele09/bluewater-portal/internal/fakebackend"
	"github.com/jrsteele09/bluewater-portal/internal/utils"
	"github.com/jrsteele09/bluewater-portal/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type backendFixture struct {
	backend *fakebackend.Backend
	server  *httptest.Server
	admin   users.Profile
	member  users.Profile
}

func newBackendFixture(t *testing.T) *backendFixture {
	t.Helper()
	backend, err := fakebackend.New(config.FakeBackend{
		JWTSecret:          "test-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
	}, fakebackend.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	admin, err := backend.SeedUser("admin@bluewater.test", "admin-pw", "Ada", "Admin", true)
	require.NoError(t, err)
	member, err := backend.SeedUser("member@bluewater.test", "member-pw", "Max", "Member", false)
	require.NoError(t, err)

	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)
	return &backendFixture{backend: backend, server: server, admin: admin, member: member}
}

func (f *backendFixture) do(t *testing.T, method, path, accessToken string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *backendFixture) login(t *testing.T, email, password string) apimodel.TokenResponse {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/auth/login", "", apimodel.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tokens apimodel.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokens))
	return tokens
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestLoginAndMe(t *testing.T) {
	f := newBackendFixture(t)
	tokens := f.login(t, "member@bluewater.test", "member-pw")
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	resp := f.do(t, http.MethodGet, "/profiles/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[users.Profile](t, resp)
	require.Equal(t, f.member.ID, profile.ID)
	require.Equal(t, "Max", profile.FirstName)
}

func TestLogin_BadPassword(t *testing.T) {
	f := newBackendFixture(t)
	resp := f.do(t, http.MethodPost, "/auth/login", "", apimodel.LoginRequest{Email: "member@bluewater.test", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Incorrect email or password", decode[apimodel.ErrorResponse](t, resp).Detail)
}

func TestRequireAuth(t *testing.T) {
	f := newBackendFixture(t)

	resp := f.do(t, http.MethodGet, "/tasks", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/tasks", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExpireAndRefresh(t *testing.T) {
	f := newBackendFixture(t)
	tokens := f.login(t, "member@bluewater.test", "member-pw")

	f.backend.ExpireAccessTokens()
	resp := f.do(t, http.MethodGet, "/profiles/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/auth/refresh", "", apimodel.RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshed := decode[apimodel.RefreshResponse](t, resp)
	require.NotEqual(t, tokens.AccessToken, refreshed.AccessToken)
	require.Equal(t, 1, f.backend.RefreshCalls())

	resp = f.do(t, http.MethodGet, "/profiles/me", refreshed.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, f.backend.RevokeRefreshTokens())
	resp = f.do(t, http.MethodPost, "/auth/refresh", "", apimodel.RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 2, f.backend.RefreshCalls())
}

func TestRegister(t *testing.T) {
	f := newBackendFixture(t)

	resp := f.do(t, http.MethodPost, "/auth/register", "", apimodel.RegisterRequest{
		Email: "new@bluewater.test", Password: "pw", FirstName: "New", LastName: "Guest",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	profile := decode[users.Profile](t, resp)
	require.True(t, profile.IsAdult)
	require.False(t, profile.IsAdmin)

	resp = f.do(t, http.MethodPost, "/auth/register", "", apimodel.RegisterRequest{
		Email: "new@bluewater.test", Password: "pw", FirstName: "New", LastName: "Guest",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/auth/register", "", apimodel.RegisterRequest{Email: "not-an-email"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRegister_ExplicitFlags(t *testing.T) {
	f := newBackendFixture(t)

	resp := f.do(t, http.MethodPost, "/auth/register", "", apimodel.RegisterRequest{
		Email: "minor@bluewater.test", Password: "pw", FirstName: "Young", LastName: "Guest",
		IsAdult: utils.Ptr(false), IsAdmin: utils.Ptr(true),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	profile := decode[users.Profile](t, resp)
	require.False(t, profile.IsAdult)
	require.True(t, profile.IsAdmin)
}

func TestListPaginationSortAndFilter(t *testing.T) {
	f := newBackendFixture(t)
	tokens := f.login(t, "member@bluewater.test", "member-pw")

	for i := 1; i <= 25; i++ {
		status := "not_started"
		if i%5 == 0 {
			status = "finished"
		}
		_, err := f.backend.Seed("tasks", fakebackend.Record{"title": "task", "status": status, "priority": 30 - i})
		require.NoError(t, err)
	}

	resp := f.do(t, http.MethodGet, "/tasks?page=2&page_size=10", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "25", resp.Header.Get(fakebackend.TotalCountHeader))
	items := decode[[]fakebackend.Record](t, resp)
	require.Len(t, items, 10)
	require.EqualValues(t, 11, items[0]["id"])

	resp = f.do(t, http.MethodGet, "/tasks?sort_by=priority&order=asc&page_size=1", tokens.AccessToken, nil)
	items = decode[[]fakebackend.Record](t, resp)
	require.EqualValues(t, 25, items[0]["id"])

	resp = f.do(t, http.MethodGet, "/tasks?status=finished", tokens.AccessToken, nil)
	require.Equal(t, "5", resp.Header.Get(fakebackend.TotalCountHeader))

	resp = f.do(t, http.MethodGet, "/tasks?page=0", tokens.AccessToken, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCRUD(t *testing.T) {
	f := newBackendFixture(t)
	tokens := f.login(t, "member@bluewater.test", "member-pw")

	resp := f.do(t, http.MethodPost, "/rooms", tokens.AccessToken, map[string]any{"name": "Loft", "max_people": 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	room := decode[fakebackend.Record](t, resp)
	require.EqualValues(t, 1, room["id"])

	resp = f.do(t, http.MethodPatch, "/rooms/1", tokens.AccessToken, map[string]any{"floor": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	room = decode[fakebackend.Record](t, resp)
	require.Equal(t, "Loft", room["name"])
	require.EqualValues(t, 2, room["floor"])

	resp = f.do(t, http.MethodDelete, "/rooms/1", tokens.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/rooms/1", tokens.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFamiliesVisibility(t *testing.T) {
	f := newBackendFixture(t)
	_, err := f.backend.Seed("families",
		fakebackend.Record{"name": "Members", "members": []any{map[string]any{"profile": map[string]any{"id": f.member.ID}, "is_head": true}}},
		fakebackend.Record{"name": "Others", "members": []any{}},
	)
	require.NoError(t, err)

	member := f.login(t, "member@bluewater.test", "member-pw")
	resp := f.do(t, http.MethodGet, "/families", member.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/families/me", member.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	families := decode[[]fakebackend.Record](t, resp)
	require.Len(t, families, 1)
	require.Equal(t, "Members", families[0]["name"])

	admin := f.login(t, "admin@bluewater.test", "admin-pw")
	resp = f.do(t, http.MethodGet, "/families", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decode[[]fakebackend.Record](t, resp), 2)
}

func TestToggleAdmin(t *testing.T) {
	f := newBackendFixture(t)
	admin := f.login(t, "admin@bluewater.test", "admin-pw")
	member := f.login(t, "member@bluewater.test", "member-pw")

	resp := f.do(t, http.MethodPatch, "/profiles/toggle-admin/1", member.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPatch, "/profiles/toggle-admin/2", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, decode[users.Profile](t, resp).IsAdmin)
}

func TestUploadPicture(t *testing.T) {
	f := newBackendFixture(t)
	tokens := f.login(t, "member@bluewater.test", "member-pw")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "dock.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/pictures", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	picture := decode[fakebackend.Record](t, resp)
	require.Equal(t, "dock.jpg", picture["filename"])
	require.Equal(t, "/pictures/1/file", picture["url"])
}
