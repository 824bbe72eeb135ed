package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is a fully read API response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Envelope is the common response wrapper of the remote API.
type Envelope struct {
	Success    *bool           `json:"success,omitempty"`
	Message    string          `json:"message,omitempty"`
	Error      json.RawMessage `json:"error,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Pagination json.RawMessage `json:"pagination,omitempty"`
	Meta       json.RawMessage `json:"meta,omitempty"`
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Envelope parses the body as the standard wrapper. Bodies that are not JSON objects
// yield an empty envelope.
func (r *Response) Envelope() Envelope {
	var env Envelope
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return env
	}
	_ = json.Unmarshal(r.Body, &env)
	return env
}

// DecodeData unmarshals the data member of the envelope into v. Bodies without a data
// member are decoded whole.
func (r *Response) DecodeData(v any) error {
	env := r.Envelope()
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		if env.Success != nil || env.Message != "" || len(env.Pagination) > 0 || len(env.Meta) > 0 {
			return nil
		}
		return r.Decode(v)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// apiError builds the error for a failed response. The message prefers the body's error
// field, then message, then the status text.
func (r *Response) apiError() *APIError {
	env := r.Envelope()

	message := errorText(env.Error)
	if message == "" {
		message = env.Message
	}
	if message == "" {
		message = http.StatusText(r.Status)
	}
	if message == "" {
		message = "request failed"
	}
	return &APIError{Status: r.Status, Message: message}
}

// errorText accepts either a string or an object with a message field.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return nested.Message
	}
	return ""
}
