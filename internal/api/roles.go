package api

import (
	"context"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

const rolesPath = "/roles"

// RoleInput is the payload of role create and update.
type RoleInput struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// RoleStatistics summarises role usage.
type RoleStatistics struct {
	TotalRoles  int            `json:"total_roles"`
	UsersByRole map[string]int `json:"users_by_role,omitempty"`
}

// RoleService calls the /roles endpoints.
type RoleService struct {
	caller Caller
}

func (s *RoleService) List(ctx context.Context, params ListParams) (Page[domain.RoleRecord], error) {
	return list[domain.RoleRecord](ctx, s.caller, rolesPath, params.Params())
}

func (s *RoleService) Get(ctx context.Context, id string) (*domain.RoleRecord, error) {
	return single[domain.RoleRecord](ctx, s.caller, resource(rolesPath, id))
}

func (s *RoleService) Statistics(ctx context.Context) (*RoleStatistics, error) {
	return single[RoleStatistics](ctx, s.caller, rolesPath+"/statistics")
}

func (s *RoleService) Create(ctx context.Context, input RoleInput) (*domain.RoleRecord, error) {
	return send[domain.RoleRecord](ctx, s.caller.Post, rolesPath, input)
}

func (s *RoleService) Update(ctx context.Context, id string, input RoleInput) (*domain.RoleRecord, error) {
	return send[domain.RoleRecord](ctx, s.caller.Put, resource(rolesPath, id), input)
}

func (s *RoleService) Delete(ctx context.Context, id string) error {
	return s.caller.Delete(ctx, resource(rolesPath, id), nil, nil)
}
