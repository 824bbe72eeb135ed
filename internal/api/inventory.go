package api

import (
	"context"
	"net/http"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

const (
	assetsPath = "/inventory/assets"
	loansPath  = "/inventory/loans"
)

// AssetInput is the payload of asset create and update.
type AssetInput struct {
	Nama      string `json:"nama,omitempty"`
	Kode      string `json:"kode,omitempty"`
	Deskripsi string `json:"deskripsi,omitempty"`
	Lokasi    string `json:"lokasi,omitempty"`
	Jumlah    int    `json:"jumlah,omitempty"`
	Tanggal   string `json:"tanggal,omitempty"`
	Kondisi   string `json:"kondisi,omitempty"`
}

// LoanInput lends an asset to a member.
type LoanInput struct {
	AssetID       string `json:"asset_id" binding:"required"`
	UserID        string `json:"user_id" binding:"required"`
	TanggalPinjam string `json:"tanggal_pinjam" binding:"required"`
	Catatan       string `json:"catatan,omitempty"`
}

// ReturnInput closes a loan.
type ReturnInput struct {
	TanggalKembali string `json:"tanggal_kembali" binding:"required"`
	KondisiAkhir   string `json:"kondisi_akhir,omitempty"`
	Catatan        string `json:"catatan,omitempty"`
}

// InventoryService calls the /inventory endpoints.
type InventoryService struct {
	caller Caller
}

func (s *InventoryService) Assets(ctx context.Context, params ListParams) (Page[domain.Asset], error) {
	return list[domain.Asset](ctx, s.caller, assetsPath, params.Params())
}

func (s *InventoryService) Asset(ctx context.Context, id string) (*domain.Asset, error) {
	return single[domain.Asset](ctx, s.caller, resource(assetsPath, id))
}

func (s *InventoryService) CreateAsset(ctx context.Context, input AssetInput) (*domain.Asset, error) {
	return send[domain.Asset](ctx, s.caller.Post, assetsPath, input)
}

func (s *InventoryService) UpdateAsset(ctx context.Context, id string, input AssetInput) (*domain.Asset, error) {
	return send[domain.Asset](ctx, s.caller.Put, resource(assetsPath, id), input)
}

func (s *InventoryService) DeleteAsset(ctx context.Context, id string) error {
	return s.caller.Delete(ctx, resource(assetsPath, id), nil, nil)
}

func (s *InventoryService) UploadAssetImage(ctx context.Context, id string, file session.FormFile) (*UploadResult, error) {
	file.Field = "file"
	var out UploadResult
	if err := s.caller.Upload(ctx, http.MethodPost, resource(assetsPath, id, "image"), session.Form{Files: []session.FormFile{file}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InventoryService) Loans(ctx context.Context, params ListParams) (Page[domain.Loan], error) {
	return list[domain.Loan](ctx, s.caller, loansPath, params.Params())
}

func (s *InventoryService) CreateLoan(ctx context.Context, input LoanInput) (*domain.Loan, error) {
	return send[domain.Loan](ctx, s.caller.Post, loansPath, input)
}

func (s *InventoryService) ReturnLoan(ctx context.Context, id string, input ReturnInput) (*domain.Loan, error) {
	return send[domain.Loan](ctx, s.caller.Post, resource(loansPath, id, "return"), input)
}
