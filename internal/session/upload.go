package session

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FormFile is one file part of a multipart upload.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// Form is a multipart request body.
type Form struct {
	Fields map[string]string
	Files  []FormFile
}

// Upload sends form as multipart/form-data. The encoded body is kept in memory so the
// request can be replayed after a refresh.
func (c *Client) Upload(ctx context.Context, method, path string, form Form, out any) error {
	body, contentType, err := encodeForm(form)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, outbound{
		method:      strings.ToUpper(method),
		path:        path,
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.DecodeData(out)
}

func encodeForm(form Form) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range form.Fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	for _, file := range form.Files {
		contentType := file.ContentType
		if contentType == "" {
			contentType = mimetype.Detect(file.Content).String()
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", fmt.Errorf("write form file %s: %w", file.Field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
