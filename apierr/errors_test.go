package apierr_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/jrsteele09/bluewater-portal/apierr"
	"github.com/stretchr/testify/require"
)

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Invalid credentials"}`, "Invalid credentials"},
		{"validation list", `{"detail":[{"loc":["body","email"],"msg":"field required"},{"msg":"too short"}]}`, "field required; too short"},
		{"missing detail", `{"error":"x"}`, ""},
		{"not json", `<html>`, ""},
		{"empty", ``, ""},
		{"numeric detail", `{"detail":42}`, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, apierr.ParseDetail([]byte(tt.body)))
		})
	}
}

func TestNewHTTPError(t *testing.T) {
	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: "/tasks/7"}}
	resp := &http.Response{StatusCode: http.StatusNotFound, Request: req}

	err := apierr.NewHTTPError(resp, []byte(`{"detail":"Task not found"}`))
	require.Equal(t, "[GET /tasks/7] 404: Task not found", err.Error())
	require.False(t, err.Unauthorized())

	err = apierr.NewHTTPError(&http.Response{StatusCode: http.StatusUnauthorized, Request: req}, nil)
	require.Equal(t, "Unauthorized", err.Detail)
	require.True(t, err.Unauthorized())
}

func TestHelpersSeeThroughWrapping(t *testing.T) {
	httpErr := &apierr.HTTPError{StatusCode: http.StatusUnauthorized, Detail: "expired"}
	expired := &apierr.SessionExpiredError{Logout: true, RedirectTo: "/login", Err: httpErr}
	wrapped := fmt.Errorf("[Client.GetOne] %w", expired)

	require.True(t, apierr.IsSessionExpired(wrapped))
	require.True(t, apierr.IsUnauthorized(wrapped))
	require.Equal(t, http.StatusUnauthorized, apierr.StatusCode(wrapped))
	require.Equal(t, 0, apierr.StatusCode(errors.New("plain")))
}

func TestUserMessage(t *testing.T) {
	require.Equal(t, "Bad password", apierr.UserMessage(&apierr.HTTPError{StatusCode: 400, Detail: "Bad password"}, apierr.DefaultLoginMessage))
	require.Equal(t, apierr.DefaultLoginMessage, apierr.UserMessage(&apierr.HTTPError{StatusCode: 400, Detail: "Bad Request"}, apierr.DefaultLoginMessage))
	require.Equal(t, "dial tcp: refused", apierr.UserMessage(&apierr.NetworkError{Err: errors.New("dial tcp: refused")}, apierr.DefaultLoginMessage))
	require.Equal(t, apierr.DefaultRegisterMessage, apierr.UserMessage(errors.New("other"), apierr.DefaultRegisterMessage))
}
