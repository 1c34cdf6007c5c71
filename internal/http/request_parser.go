// Package http serves the Billed pages and HTMX partials.
//
// This file holds the request parsing helpers shared by the handlers:
// query parameters, the login body and the multipart new bill form.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"billed/internal/containers"
	"billed/internal/views"
)

// maxUploadBytes bounds the new bill form, receipt included.
const maxUploadBytes = 10 << 20

// ParseNavSeq reads the navigation sequence of a bills list request.
// Missing or malformed values yield 0, which disables the staleness check.
func ParseNavSeq(query url.Values) uint64 {
	v := strings.TrimSpace(query.Get("nav"))
	if v == "" {
		return 0
	}
	seq, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return seq
}

// ParseBillID returns the id query parameter or a 400 response.
func ParseBillID(query url.Values) (string, *HTMXResponseBuilder) {
	id := sanitizeInput(query.Get("id"))
	if id == "" {
		return "", BadRequestError("Identifiant de note manquant")
	}
	return id, nil
}

// NewBillRequest is a parsed new bill form. File is nil when no receipt was sent.
type NewBillRequest struct {
	Submission containers.NewBillSubmission
	File       multipart.File
	Header     *multipart.FileHeader
}

// Close releases the uploaded file.
func (r NewBillRequest) Close() {
	if r.File != nil {
		_ = r.File.Close()
	}
}

// ParseNewBillForm reads the multipart new bill form. The receipt name is
// taken from the uploaded file; its URL is set once the file is stored.
func ParseNewBillForm(w http.ResponseWriter, r *http.Request) (NewBillRequest, *HTMXResponseBuilder) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewBillRequest{}, ErrorResponse(http.StatusRequestEntityTooLarge, "Justificatif trop volumineux")
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			return NewBillRequest{}, BadRequestError("Formulaire invalide")
		}
		if err := r.ParseForm(); err != nil {
			return NewBillRequest{}, BadRequestError("Formulaire invalide")
		}
	}

	get := func(key string) string { return sanitizeInput(r.FormValue(key)) }
	req := NewBillRequest{
		Submission: containers.NewBillSubmission{
			Type:       get("type"),
			Name:       get("name"),
			Date:       get("date"),
			Amount:     get("amount"),
			VAT:        get("vat"),
			Pct:        get("pct"),
			Commentary: get("commentary"),
		},
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		req.File = file
		req.Header = header
		req.Submission.FileName = sanitizeInput(header.Filename)
	}
	return req, nil
}

// FormValues echoes a submission back into the new bill form.
func FormValues(s containers.NewBillSubmission) views.NewBillForm {
	return views.NewBillForm{
		Type:       s.Type,
		Name:       s.Name,
		Date:       s.Date,
		Amount:     s.Amount,
		VAT:        s.VAT,
		Pct:        s.Pct,
		Commentary: s.Commentary,
	}
}

// RequestBodyParser reads a JSON or form-encoded body once. The login
// endpoint accepts both so scripted clients can post JSON.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, 1<<20))
	return p
}

// Parse decodes the body as JSON when it looks like JSON, as form data otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Secret returns a value with control characters removed but spaces kept.
func (p *RequestBodyParser) Secret(key string) string {
	var v string
	switch {
	case p.jsonData != nil:
		v = stringValue(p.jsonData[key])
	case p.formData != nil:
		v = p.formData.Get(key)
	}
	return stripControl(v)
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
