package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

const usersPath = "/users"

// UserFilter narrows the user list.
type UserFilter struct {
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
	Order      string `form:"order"`
	Sort       string `form:"sort"`
	Search     string `form:"search"`
	Status     string `form:"status"`
	DivisionID string `form:"division_id"`
	Angkatan   int    `form:"angkatan"`
	RoleID     string `form:"role_id"`
}

func (f UserFilter) params() session.Params {
	return session.Params{
		"page":        optionalInt(f.Page),
		"limit":       optionalInt(f.Limit),
		"order":       optionalString(f.Order),
		"sort":        optionalString(f.Sort),
		"search":      optionalString(f.Search),
		"status":      optionalString(f.Status),
		"division_id": optionalString(f.DivisionID),
		"angkatan":    optionalInt(f.Angkatan),
		"role_id":     optionalString(f.RoleID),
	}
}

// CreateUserInput is the payload of POST /users.
type CreateUserInput struct {
	Nama         string            `json:"nama" binding:"required"`
	Username     string            `json:"username" binding:"required"`
	Email        string            `json:"email" binding:"required"`
	Password     string            `json:"password" binding:"required"`
	NomorTelepon string            `json:"nomor_telepon,omitempty"`
	Alamat       string            `json:"alamat,omitempty"`
	Angkatan     int               `json:"angkatan,omitempty"`
	Status       domain.UserStatus `json:"status"`
	DivisionID   string            `json:"division_id,omitempty"`
	RoleIDs      []string          `json:"role_ids,omitempty"`
}

// UpdateUserInput is the payload of PUT /users/:id. Nil fields are left untouched.
type UpdateUserInput struct {
	Nama         *string            `json:"nama,omitempty"`
	Username     *string            `json:"username,omitempty"`
	Email        *string            `json:"email,omitempty"`
	NomorTelepon *string            `json:"nomor_telepon,omitempty"`
	Alamat       *string            `json:"alamat,omitempty"`
	Angkatan     *int               `json:"angkatan,omitempty"`
	Status       *domain.UserStatus `json:"status,omitempty"`
	DivisionID   *string            `json:"division_id,omitempty"`
}

// UserService calls the /users endpoints.
type UserService struct {
	caller Caller
}

// List returns a page of users. The endpoint nests the rows and the pagination inside data.
func (s *UserService) List(ctx context.Context, filter UserFilter) (Page[domain.User], error) {
	resp, err := s.caller.Request(ctx, http.MethodGet, usersPath, nil, filter.params())
	if err != nil {
		return Page[domain.User]{}, err
	}

	var payload struct {
		Users      []domain.User      `json:"users"`
		Pagination *domain.Pagination `json:"pagination"`
	}
	if data := resp.Envelope().Data; len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return Page[domain.User]{}, fmt.Errorf("decode user list: %w", err)
		}
	}
	if payload.Users == nil {
		payload.Users = []domain.User{}
	}
	return Page[domain.User]{Items: payload.Users, Pagination: payload.Pagination}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return single[domain.User](ctx, s.caller, resource(usersPath, id))
}

func (s *UserService) Statistics(ctx context.Context) (*domain.UserStatistics, error) {
	return single[domain.UserStatistics](ctx, s.caller, usersPath+"/statistics")
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	return send[domain.User](ctx, s.caller.Post, usersPath, input)
}

func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error) {
	return send[domain.User](ctx, s.caller.Put, resource(usersPath, id), input)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.caller.Delete(ctx, resource(usersPath, id), nil, nil)
}

func (s *UserService) Activate(ctx context.Context, id string) error {
	return s.caller.Patch(ctx, resource(usersPath, id, "activate"), nil, nil)
}

func (s *UserService) Deactivate(ctx context.Context, id string) error {
	return s.caller.Patch(ctx, resource(usersPath, id, "deactivate"), nil, nil)
}

func (s *UserService) MarkAlumni(ctx context.Context, id string) error {
	return s.caller.Patch(ctx, resource(usersPath, id, "mark-alumni"), nil, nil)
}

// BulkStatus sets status on every user in ids.
func (s *UserService) BulkStatus(ctx context.Context, ids []string, status domain.UserStatus) error {
	return s.caller.Post(ctx, usersPath+"/bulk/status", map[string]any{
		"user_ids": ids,
		"status":   status,
	}, nil)
}

func (s *UserService) Roles(ctx context.Context, id string) ([]domain.RoleRef, error) {
	var roles []domain.RoleRef
	if err := s.caller.Get(ctx, resource(usersPath, id, "roles"), nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *UserService) AssignRoles(ctx context.Context, id string, roleIDs []string) error {
	return s.caller.Post(ctx, resource(usersPath, id, "roles", "assign"), roleIDsBody(roleIDs), nil)
}

// RemoveRoles detaches roleIDs; the endpoint expects them comma separated in the query.
func (s *UserService) RemoveRoles(ctx context.Context, id string, roleIDs []string) error {
	return s.caller.Delete(ctx, resource(usersPath, id, "roles", "remove"), session.Params{
		"role_ids": strings.Join(roleIDs, ","),
	}, nil)
}

// ReplaceRoles sets the roles of id to exactly roleIDs.
func (s *UserService) ReplaceRoles(ctx context.Context, id string, roleIDs []string) error {
	return s.caller.Put(ctx, resource(usersPath, id, "roles"), roleIDsBody(roleIDs), nil)
}

func (s *UserService) AssignDivision(ctx context.Context, id, divisionID string) error {
	return s.caller.Post(ctx, resource(usersPath, id, "division", "assign"), map[string]string{
		"division_id": divisionID,
	}, nil)
}

func roleIDsBody(ids []string) map[string][]string {
	if ids == nil {
		ids = []string{}
	}
	return map[string][]string{"role_ids": ids}
}
