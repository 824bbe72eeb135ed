// Package api wraps the remote SI-PEDULI endpoints in typed services. Every call goes
// through the session client, so tokens, cookies and 401 recovery are handled there.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

// Caller is the part of *session.Client the services use.
type Caller interface {
	Request(ctx context.Context, method, path string, body any, params session.Params) (*session.Response, error)
	Get(ctx context.Context, path string, params session.Params, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, params session.Params, out any) error
	Upload(ctx context.Context, method, path string, form session.Form, out any) error
}

// Services groups every resource service.
type Services struct {
	Users        *UserService
	Roles        *RoleService
	Divisions    *DivisionService
	Activities   *ActivityService
	Donations    *DonationService
	Inventory    *InventoryService
	Recruitments *RecruitmentService
	Documents    *DocumentService
}

// New builds the resource services over caller.
func New(caller Caller) *Services {
	return &Services{
		Users:        &UserService{caller: caller},
		Roles:        &RoleService{caller: caller},
		Divisions:    &DivisionService{caller: caller},
		Activities:   &ActivityService{caller: caller},
		Donations:    &DonationService{caller: caller},
		Inventory:    &InventoryService{caller: caller},
		Recruitments: &RecruitmentService{caller: caller},
		Documents:    &DocumentService{caller: caller},
	}
}

// Page is one page of a list endpoint. Meta is set by endpoints that answer with a meta
// member; Pagination by those that answer with the richer pagination block.
type Page[T any] struct {
	Items      []T                `json:"items"`
	Meta       *domain.ListMeta   `json:"meta,omitempty"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
}

// ListParams are the filters shared by most list endpoints. Zero values are not sent.
type ListParams struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
	Status string `form:"status"`
}

// Params converts p to query parameters.
func (p ListParams) Params() session.Params {
	return session.Params{
		"page":   optionalInt(p.Page),
		"limit":  optionalInt(p.Limit),
		"search": optionalString(p.Search),
		"status": optionalString(p.Status),
	}
}

// UploadResult is returned by file upload endpoints.
type UploadResult struct {
	URL string `json:"url"`
}

func list[T any](ctx context.Context, caller Caller, path string, params session.Params) (Page[T], error) {
	resp, err := caller.Request(ctx, http.MethodGet, path, nil, params)
	if err != nil {
		return Page[T]{}, err
	}

	env := resp.Envelope()
	page := Page[T]{Items: []T{}}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &page.Items); err != nil {
			return Page[T]{}, fmt.Errorf("decode %s list: %w", path, err)
		}
		if page.Items == nil {
			page.Items = []T{}
		}
	}
	if len(env.Meta) > 0 {
		var meta domain.ListMeta
		if err := json.Unmarshal(env.Meta, &meta); err == nil {
			page.Meta = &meta
		}
	}
	if len(env.Pagination) > 0 {
		var pagination domain.Pagination
		if err := json.Unmarshal(env.Pagination, &pagination); err == nil {
			page.Pagination = &pagination
		}
	}
	return page, nil
}

func resource(base, id string, rest ...string) string {
	path := base + "/" + url.PathEscape(id)
	for _, segment := range rest {
		path += "/" + segment
	}
	return path
}

func single[T any](ctx context.Context, caller Caller, path string) (*T, error) {
	var out T
	if err := caller.Get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func send[T any](ctx context.Context, call func(ctx context.Context, path string, body, out any) error, path string, body any) (*T, error) {
	var out T
	if err := call(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func optionalInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func optionalString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
