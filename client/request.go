package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/bluewater-portal/apierr"
	"github.com/jrsteele09/bluewater-portal/apimodel"
	"github.com/jrsteele09/bluewater-portal/internal/errors"
)

// Request is a single backend call.
type Request struct {
	Method string
	// Path is relative to the base URL, e.g. "tasks/7" or "/profiles/me".
	Path   string
	Query  url.Values
	Header http.Header

	// Body is encoded as JSON. RawBody, when set, is sent as is with
	// ContentType. Use a *bytes.Reader or *bytes.Buffer so a 401 retry can
	// replay it.
	Body        any
	RawBody     io.Reader
	ContentType string
}

// Do sends r and decodes a 2xx body into out, validating structs against
// their `validate` tags. An empty body leaves out untouched. The response
// headers are returned on success.
func (c *Client) Do(ctx context.Context, r Request, out any) (http.Header, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	path := req.URL.Path

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var expired *apierr.SessionExpiredError
		if errors.As(err, &expired) {
			return nil, expired
		}
		if errors.Is(err, errors.ErrBodyNotReplay) {
			return nil, errors.Wrapf(err, "[Client.Do] %s %s", req.Method, path)
		}
		return nil, &apierr.NetworkError{Method: req.Method, URL: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apierr.NetworkError{Method: req.Method, URL: path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierr.NewHTTPError(resp, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return resp.Header, nil
	}
	if err := apimodel.Decode(data, out); err != nil {
		return nil, &apierr.MalformedResponseError{Method: req.Method, URL: path, Err: err}
	}
	return resp.Header, nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	u := c.baseURL.JoinPath(strings.TrimPrefix(r.Path, "/"))
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	body := r.RawBody
	contentType := r.ContentType
	if body == nil && r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "[Client.Do] encoding body for %s", r.Path)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.Do]")
	}
	for k, vals := range r.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}
