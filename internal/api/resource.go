package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// StatusRequest is the body of a status-only change. Reason is set only for
// explicit overrides out of a terminal state.
type StatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Resource is the uniform contract of one backend resource. R is the read shape
// (embedded objects), W the write shape (bare identifiers).
type Resource[R any, W any] struct {
	client *Client
	name   string
}

func NewResource[R any, W any](c *Client, name string) *Resource[R, W] {
	return &Resource[R, W]{client: c, name: name}
}

func (r *Resource[R, W]) Name() string { return r.name }

func (r *Resource[R, W]) collectionPath() string { return "/" + r.name + "/" }

func (r *Resource[R, W]) itemPath(id uint) string { return fmt.Sprintf("/%s/%d/", r.name, id) }

// List returns every item, optionally narrowed by query filters.
func (r *Resource[R, W]) List(ctx context.Context, query url.Values) ([]R, error) {
	var out []R
	if err := r.client.do(ctx, r.name, http.MethodGet, r.collectionPath(), query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource[R, W]) Get(ctx context.Context, id uint) (R, error) {
	var out R
	err := r.client.do(ctx, r.name, http.MethodGet, r.itemPath(id), nil, nil, &out)
	return out, err
}

func (r *Resource[R, W]) Create(ctx context.Context, payload W) (R, error) {
	var out R
	err := r.client.do(ctx, r.name, http.MethodPost, r.collectionPath(), nil, payload, &out)
	return out, err
}

// Update replaces the whole item.
func (r *Resource[R, W]) Update(ctx context.Context, id uint, payload W) (R, error) {
	var out R
	err := r.client.do(ctx, r.name, http.MethodPut, r.itemPath(id), nil, payload, &out)
	return out, err
}

func (r *Resource[R, W]) Delete(ctx context.Context, id uint) error {
	return r.client.do(ctx, r.name, http.MethodDelete, r.itemPath(id), nil, nil, nil)
}

// StatusResource is a Resource with the status-only change endpoint of
// document-bearing resources and affairs.
type StatusResource[R any, W any] struct {
	*Resource[R, W]
}

func NewStatusResource[R any, W any](c *Client, name string) *StatusResource[R, W] {
	return &StatusResource[R, W]{Resource: NewResource[R, W](c, name)}
}

// SetStatus sends PATCH /{resource}/{id}/status and returns the updated item.
func (r *StatusResource[R, W]) SetStatus(ctx context.Context, id uint, status string) (R, error) {
	return r.patchStatus(ctx, id, StatusRequest{Status: status})
}

// OverrideStatus is SetStatus with a mandatory reason for a manual correction.
func (r *StatusResource[R, W]) OverrideStatus(ctx context.Context, id uint, status, reason string) (R, error) {
	return r.patchStatus(ctx, id, StatusRequest{Status: status, Reason: reason})
}

func (r *StatusResource[R, W]) patchStatus(ctx context.Context, id uint, body StatusRequest) (R, error) {
	var out R
	path := fmt.Sprintf("/%s/%d/status", r.name, id)
	err := r.client.do(ctx, r.name, http.MethodPatch, path, nil, body, &out)
	return out, err
}
