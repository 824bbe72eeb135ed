package api

import (
	"context"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

const recruitmentsPath = "/recruitments"

// RecruitmentInput is the payload of recruitment create and update.
type RecruitmentInput struct {
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Status       string   `json:"status,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
}

// RecruitmentService calls the /recruitments endpoints.
type RecruitmentService struct {
	caller Caller
}

func (s *RecruitmentService) List(ctx context.Context, params ListParams) (Page[domain.Recruitment], error) {
	return list[domain.Recruitment](ctx, s.caller, recruitmentsPath, params.Params())
}

func (s *RecruitmentService) Get(ctx context.Context, id string) (*domain.Recruitment, error) {
	return single[domain.Recruitment](ctx, s.caller, resource(recruitmentsPath, id))
}

func (s *RecruitmentService) Create(ctx context.Context, input RecruitmentInput) (*domain.Recruitment, error) {
	return send[domain.Recruitment](ctx, s.caller.Post, recruitmentsPath, input)
}

func (s *RecruitmentService) Update(ctx context.Context, id string, input RecruitmentInput) (*domain.Recruitment, error) {
	return send[domain.Recruitment](ctx, s.caller.Put, resource(recruitmentsPath, id), input)
}

func (s *RecruitmentService) Delete(ctx context.Context, id string) error {
	return s.caller.Delete(ctx, resource(recruitmentsPath, id), nil, nil)
}

// Register signs the current user up for recruitmentID.
func (s *RecruitmentService) Register(ctx context.Context, recruitmentID string) error {
	return s.caller.Post(ctx, recruitmentsPath+"/register", map[string]string{
		"recruitment_id": recruitmentID,
	}, nil)
}

func (s *RecruitmentService) Registrants(ctx context.Context, recruitmentID string, params ListParams) (Page[domain.Registrant], error) {
	return list[domain.Registrant](ctx, s.caller, resource(recruitmentsPath, recruitmentID, "registrants"), params.Params())
}

func (s *RecruitmentService) UpdateRegistrantStatus(ctx context.Context, recruitmentID, registrantID, status string) error {
	path := resource(resource(recruitmentsPath, recruitmentID, "registrants"), registrantID, "status")
	return s.caller.Patch(ctx, path, map[string]string{"status": status}, nil)
}

func (s *RecruitmentService) DeleteRegistrant(ctx context.Context, recruitmentID, registrantID string) error {
	return s.caller.Delete(ctx, resource(resource(recruitmentsPath, recruitmentID, "registrants"), registrantID), nil, nil)
}
