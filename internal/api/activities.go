package api

import (
	"context"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

const (
	activitiesPath      = "/activities"
	progressReportsPath = "/progress-reports"
	documentationsPath  = "/documentations"
	lpjPath             = "/lpj"
)

// ActivityInput is the payload of activity create and update.
type ActivityInput struct {
	Judul      string `json:"judul" binding:"required"`
	Deskripsi  string `json:"deskripsi,omitempty"`
	Tanggal    string `json:"tanggal" binding:"required"`
	Lokasi     string `json:"lokasi,omitempty"`
	Status     string `json:"status,omitempty"`
	DivisionID string `json:"division_id,omitempty"`
}

// ProgressReportInput is the payload of progress report create and update.
type ProgressReportInput struct {
	ActivityID string `json:"activity_id" binding:"required"`
	Judul      string `json:"judul" binding:"required"`
	Deskripsi  string `json:"deskripsi,omitempty"`
	Persentase int    `json:"persentase"`
	Tanggal    string `json:"tanggal,omitempty"`
}

// DocumentationInput registers media for an activity.
type DocumentationInput struct {
	ActivityID  string `json:"activity_id" binding:"required"`
	Judul       string `json:"judul" binding:"required"`
	Deskripsi   string `json:"deskripsi,omitempty"`
	TipeDokumen string `json:"tipe_dokumen,omitempty"`
	LinkGDrive  string `json:"link_gdrive,omitempty"`
}

// LPJInput files the accountability report of an activity.
type LPJInput struct {
	ActivityID string `json:"activity_id" binding:"required"`
	Tanggal    string `json:"tanggal,omitempty"`
	FileURL    string `json:"file_url,omitempty"`
	Catatan    string `json:"catatan,omitempty"`
}

// ActivityService calls the activity, progress report, documentation and LPJ endpoints.
type ActivityService struct {
	caller Caller
}

func (s *ActivityService) List(ctx context.Context, params ListParams) (Page[domain.Activity], error) {
	return list[domain.Activity](ctx, s.caller, activitiesPath, params.Params())
}

func (s *ActivityService) Get(ctx context.Context, id string) (*domain.Activity, error) {
	return single[domain.Activity](ctx, s.caller, resource(activitiesPath, id))
}

func (s *ActivityService) Create(ctx context.Context, input ActivityInput) (*domain.Activity, error) {
	return send[domain.Activity](ctx, s.caller.Post, activitiesPath, input)
}

func (s *ActivityService) Update(ctx context.Context, id string, input ActivityInput) (*domain.Activity, error) {
	return send[domain.Activity](ctx, s.caller.Put, resource(activitiesPath, id), input)
}

func (s *ActivityService) Delete(ctx context.Context, id string) error {
	return s.caller.Delete(ctx, resource(activitiesPath, id), nil, nil)
}

// ProgressReports lists the reports of activityID.
func (s *ActivityService) ProgressReports(ctx context.Context, activityID string, params ListParams) (Page[domain.ProgressReport], error) {
	query := params.Params()
	query["activity_id"] = optionalString(activityID)
	return list[domain.ProgressReport](ctx, s.caller, progressReportsPath, query)
}

func (s *ActivityService) CreateProgressReport(ctx context.Context, input ProgressReportInput) (*domain.ProgressReport, error) {
	return send[domain.ProgressReport](ctx, s.caller.Post, progressReportsPath, input)
}

func (s *ActivityService) UpdateProgressReport(ctx context.Context, id string, input ProgressReportInput) (*domain.ProgressReport, error) {
	return send[domain.ProgressReport](ctx, s.caller.Put, resource(progressReportsPath, id), input)
}

func (s *ActivityService) DeleteProgressReport(ctx context.Context, id string) error {
	return s.caller.Delete(ctx, resource(progressReportsPath, id), nil, nil)
}

func (s *ActivityService) Documentations(ctx context.Context, activityID string) (Page[domain.Documentation], error) {
	return list[domain.Documentation](ctx, s.caller, resource(documentationsPath+"/activity", activityID), nil)
}

func (s *ActivityService) CreateDocumentation(ctx context.Context, input DocumentationInput) (*domain.Documentation, error) {
	return send[domain.Documentation](ctx, s.caller.Post, documentationsPath, input)
}

func (s *ActivityService) DeleteDocumentation(ctx context.Context, id string) error {
	return s.caller.Delete(ctx, resource(documentationsPath, id), nil, nil)
}

func (s *ActivityService) LPJ(ctx context.Context, activityID string) (Page[domain.LPJ], error) {
	return list[domain.LPJ](ctx, s.caller, resource(lpjPath+"/activity", activityID), nil)
}

func (s *ActivityService) CreateLPJ(ctx context.Context, input LPJInput) (*domain.LPJ, error) {
	return send[domain.LPJ](ctx, s.caller.Post, lpjPath, input)
}

func (s *ActivityService) DeleteLPJ(ctx context.Context, id string) error {
	return s.caller.Delete(ctx, resource(lpjPath, id), nil, nil)
}
