package api

import (
	"context"
	"net/http"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

const documentsPath = "/documents"

// DocumentFilter narrows the document archive.
type DocumentFilter struct {
	Kategori string `form:"kategori"`
	Search   string `form:"search"`
}

// DocumentInput describes an archived document. Create sends it as multipart fields.
type DocumentInput struct {
	Judul        string `json:"judul,omitempty" form:"judul"`
	NomorDokumen string `json:"nomor_dokumen,omitempty" form:"nomor_dokumen"`
	Kategori     string `json:"kategori,omitempty" form:"kategori"`
	Deskripsi    string `json:"deskripsi,omitempty" form:"deskripsi"`
}

// DocumentService calls the /documents endpoints.
type DocumentService struct {
	caller Caller
}

func (s *DocumentService) List(ctx context.Context, filter DocumentFilter) (Page[domain.Document], error) {
	return list[domain.Document](ctx, s.caller, documentsPath, session.Params{
		"kategori": optionalString(filter.Kategori),
		"search":   optionalString(filter.Search),
	})
}

func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return single[domain.Document](ctx, s.caller, resource(documentsPath, id))
}

// Create uploads file together with the document metadata.
func (s *DocumentService) Create(ctx context.Context, input DocumentInput, file session.FormFile) (*domain.Document, error) {
	fields := map[string]string{
		"judul":     input.Judul,
		"kategori":  input.Kategori,
		"deskripsi": input.Deskripsi,
	}
	if input.NomorDokumen != "" {
		fields["nomor_dokumen"] = input.NomorDokumen
	}
	file.Field = "file"

	var out domain.Document
	if err := s.caller.Upload(ctx, http.MethodPost, documentsPath, session.Form{
		Fields: fields,
		Files:  []session.FormFile{file},
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DocumentService) Update(ctx context.Context, id string, input DocumentInput) (*domain.Document, error) {
	return send[domain.Document](ctx, s.caller.Put, resource(documentsPath, id), input)
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	return s.caller.Delete(ctx, resource(documentsPath, id), nil, nil)
}
