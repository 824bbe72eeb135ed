package api

import (
	"context"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

const divisionsPath = "/divisions"

// DivisionInput is the payload of division create and update.
type DivisionInput struct {
	NamaDivisi string `json:"nama_divisi" binding:"required"`
	Deskripsi  string `json:"deskripsi,omitempty"`
}

// DivisionStatistics summarises all divisions.
type DivisionStatistics struct {
	TotalDivisions int                    `json:"total_divisions"`
	Divisions      []domain.DivisionStats `json:"divisions,omitempty"`
}

// DivisionService calls the /divisions endpoints.
type DivisionService struct {
	caller Caller
}

func (s *DivisionService) List(ctx context.Context, params ListParams) (Page[domain.Division], error) {
	return list[domain.Division](ctx, s.caller, divisionsPath, params.Params())
}

func (s *DivisionService) Get(ctx context.Context, id string) (*domain.Division, error) {
	return single[domain.Division](ctx, s.caller, resource(divisionsPath, id))
}

func (s *DivisionService) Statistics(ctx context.Context) (*DivisionStatistics, error) {
	return single[DivisionStatistics](ctx, s.caller, divisionsPath+"/statistics")
}

// MemberStats returns membership counts of one division.
func (s *DivisionService) MemberStats(ctx context.Context, id string) (*domain.DivisionStats, error) {
	return single[domain.DivisionStats](ctx, s.caller, resource(divisionsPath, id, "member-stats"))
}

func (s *DivisionService) Create(ctx context.Context, input DivisionInput) (*domain.Division, error) {
	return send[domain.Division](ctx, s.caller.Post, divisionsPath, input)
}

func (s *DivisionService) Update(ctx context.Context, id string, input DivisionInput) (*domain.Division, error) {
	return send[domain.Division](ctx, s.caller.Put, resource(divisionsPath, id), input)
}

func (s *DivisionService) Delete(ctx context.Context, id string) error {
	return s.caller.Delete(ctx, resource(divisionsPath, id), nil, nil)
}
