package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/jrsteele09/bluewater-portal/internal/errors"
)

// TotalCountHeader is the response header carrying a list's total size.
const TotalCountHeader = "X-Total-Count"

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// SortKey orders a list by one field.
type SortKey struct {
	Field string
	Order SortOrder
}

// ListParams selects a page of a collection. Page is 1-based; zero values
// are omitted and left to the backend. Only the first sort key is sent.
// Slice-valued filters repeat the query key.
type ListParams struct {
	Page     int
	PageSize int
	Sort     []SortKey
	Filters  map[string]any
}

// Query renders the params as the backend's query string.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if len(p.Sort) > 0 && p.Sort[0].Field != "" {
		q.Set("sort_by", p.Sort[0].Field)
		order := p.Sort[0].Order
		if order == "" {
			order = Asc
		}
		q.Set("order", string(order))
	}
	for key, value := range p.Filters {
		for _, v := range flatten(value) {
			q.Add(key, v)
		}
	}
	return q
}

func flatten(value any) []string {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, fmt.Sprint(rv.Index(i).Interface()))
		}
		return out
	}
	return []string{fmt.Sprint(value)}
}

// ListResult is a page of records. Total comes from X-Total-Count and falls
// back to len(Items) when the header is missing, in which case it only
// counts the returned page.
type ListResult struct {
	Items []Record
	Total int
}

// CustomRequest reaches endpoints outside the CRUD shape, such as
// PATCH /profiles/toggle-admin/{id}. Header is sent as given. An
// Authorization header in it replaces the session's bearer token, and a 401
// for such a request is returned without a refresh.
type CustomRequest struct {
	Method  string
	Path    string
	Payload any
	Query   url.Values
	Header  http.Header
}

func (c *Client) List(ctx context.Context, resource string, params ListParams) (*ListResult, error) {
	path, err := resourcePath(resource, nil)
	if err != nil {
		return nil, err
	}

	var items []Record
	header, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: params.Query()}, &items)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Record{}
	}
	return &ListResult{Items: items, Total: TotalFromHeader(header, len(items))}, nil
}

// TotalFromHeader reads X-Total-Count, returning fallback when it is absent
// or malformed.
func TotalFromHeader(header http.Header, fallback int) int {
	total, err := strconv.Atoi(header.Get(TotalCountHeader))
	if err != nil || total < 0 {
		return fallback
	}
	return total
}

func (c *Client) GetOne(ctx context.Context, resource string, id any) (Record, error) {
	return c.record(ctx, http.MethodGet, resource, id, nil)
}

// Create posts values and returns the record as stored, including its id.
func (c *Client) Create(ctx context.Context, resource string, values any) (Record, error) {
	path, err := resourcePath(resource, nil)
	if err != nil {
		return nil, err
	}
	rec := Record{}
	if _, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: values}, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update sends a partial update.
func (c *Client) Update(ctx context.Context, resource string, id any, values any) (Record, error) {
	return c.record(ctx, http.MethodPatch, resource, id, values)
}

// DeleteOne returns the backend's body, which is empty for a 204.
func (c *Client) DeleteOne(ctx context.Context, resource string, id any) (Record, error) {
	return c.record(ctx, http.MethodDelete, resource, id, nil)
}

func (c *Client) Custom(ctx context.Context, r CustomRequest) (Record, error) {
	if strings.TrimSpace(r.Path) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidResource, "[Client.Custom] empty path")
	}
	rec := Record{}
	_, err := c.Do(ctx, Request{Method: r.Method, Path: r.Path, Query: r.Query, Header: r.Header, Body: r.Payload}, &rec)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *Client) record(ctx context.Context, method, resource string, id, body any) (Record, error) {
	path, err := resourcePath(resource, id)
	if err != nil {
		return nil, err
	}
	rec := Record{}
	if _, err := c.Do(ctx, Request{Method: method, Path: path, Body: body}, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// resourcePath builds "resource" or "resource/id". Resource names may contain
// sub-paths such as "families/me"; ids are escaped.
func resourcePath(resource string, id any) (string, error) {
	resource = strings.Trim(resource, "/")
	if resource == "" || strings.ContainsAny(resource, "?#") {
		return "", errors.Wrapf(errors.ErrInvalidResource, "[client] %q", resource)
	}
	if id == nil {
		return resource, nil
	}
	idStr := fmt.Sprint(id)
	if idStr == "" {
		return "", errors.Wrapf(errors.ErrInvalidID, "[client] %s", resource)
	}
	return resource + "/" + url.PathEscape(idStr), nil
}
