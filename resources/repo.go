// Package resources gives the portal's collections typed schemas. Every
// record read from the backend is validated; a record that does not match
// its schema is reported as *apierr.MalformedResponseError.
package resources

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jrsteele09/bluewater-portal/client"
)

// Repo is typed access to one collection.
type Repo[T any] struct {
	client   *client.Client
	resource string
}

func NewRepo[T any](c *client.Client, resource string) *Repo[T] {
	return &Repo[T]{client: c, resource: resource}
}

// Resource returns the collection name.
func (r *Repo[T]) Resource() string {
	return r.resource
}

// List returns a page of records and the collection total.
func (r *Repo[T]) List(ctx context.Context, params client.ListParams) ([]T, int, error) {
	items := []T{}
	header, err := r.client.Do(ctx, client.Request{Method: http.MethodGet, Path: r.resource, Query: params.Query()}, &items)
	if err != nil {
		return nil, 0, err
	}
	return items, client.TotalFromHeader(header, len(items)), nil
}

func (r *Repo[T]) Get(ctx context.Context, id int) (*T, error) {
	return r.one(ctx, http.MethodGet, r.path(id), nil)
}

// Create accepts any JSON-encodable value, since the backend's create
// bodies omit server-assigned fields.
func (r *Repo[T]) Create(ctx context.Context, values any) (*T, error) {
	return r.one(ctx, http.MethodPost, r.resource, values)
}

// Update sends a partial update and returns the full record.
func (r *Repo[T]) Update(ctx context.Context, id int, values any) (*T, error) {
	return r.one(ctx, http.MethodPatch, r.path(id), values)
}

func (r *Repo[T]) Delete(ctx context.Context, id int) error {
	_, err := r.client.Do(ctx, client.Request{Method: http.MethodDelete, Path: r.path(id)}, nil)
	return err
}

func (r *Repo[T]) path(id int) string {
	return r.resource + "/" + strconv.Itoa(id)
}

func (r *Repo[T]) one(ctx context.Context, method, path string, body any) (*T, error) {
	out := new(T)
	if _, err := r.client.Do(ctx, client.Request{Method: method, Path: path, Body: body}, out); err != nil {
		return nil, err
	}
	return out, nil
}
