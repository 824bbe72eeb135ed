package api

import (
	"context"
	"net/http"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

const donationsPath = "/donations"

// DonationInput is the payload of donation create and update.
type DonationInput struct {
	NamaDonatur string                `json:"nama_donatur,omitempty"`
	Jumlah      float64               `json:"jumlah,omitempty"`
	Tanggal     string                `json:"tanggal,omitempty"`
	Metode      string                `json:"metode,omitempty"`
	Deskripsi   string                `json:"deskripsi,omitempty"`
	Status      domain.DonationStatus `json:"status,omitempty"`
}

// DonationService calls the /donations endpoints.
type DonationService struct {
	caller Caller
}

func (s *DonationService) List(ctx context.Context, params ListParams) (Page[domain.Donation], error) {
	return list[domain.Donation](ctx, s.caller, donationsPath, params.Params())
}

func (s *DonationService) Get(ctx context.Context, id string) (*domain.Donation, error) {
	return single[domain.Donation](ctx, s.caller, resource(donationsPath, id))
}

func (s *DonationService) Create(ctx context.Context, input DonationInput) (*domain.Donation, error) {
	return send[domain.Donation](ctx, s.caller.Post, donationsPath, input)
}

func (s *DonationService) Update(ctx context.Context, id string, input DonationInput) (*domain.Donation, error) {
	return send[domain.Donation](ctx, s.caller.Put, resource(donationsPath, id), input)
}

// Verify moves a donation to the verified or rejected state.
func (s *DonationService) Verify(ctx context.Context, id string, status domain.DonationStatus) (*domain.Donation, error) {
	return s.Update(ctx, id, DonationInput{Status: status})
}

func (s *DonationService) Delete(ctx context.Context, id string) error {
	return s.caller.Delete(ctx, resource(donationsPath, id), nil, nil)
}

func (s *DonationService) Stats(ctx context.Context) (*domain.DonationStats, error) {
	return single[domain.DonationStats](ctx, s.caller, donationsPath+"/stats")
}

// UploadProof attaches the payment proof of a donation.
func (s *DonationService) UploadProof(ctx context.Context, id string, file session.FormFile) (*UploadResult, error) {
	file.Field = "file"
	var out UploadResult
	if err := s.caller.Upload(ctx, http.MethodPost, resource(donationsPath, id, "proof"), session.Form{Files: []session.FormFile{file}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
