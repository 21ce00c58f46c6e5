// Package verify submits a license and its identity to the WhiteBeard
// license authority.
package verify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/whitebeard-ai/pawn-installer/pkg/license"
)

// Multipart part names expected by the verification endpoint.
const (
	FieldCompanyName  = "companyName"
	FieldCompanyEmail = "companyEmail"
	FieldLicenseFile  = "licenseFile"
)

// DefaultTimeout bounds a single verification attempt.
const DefaultTimeout = 30 * time.Second

const maxBodyCapture = 64 * 1024

// Result is the outcome of one verification attempt. Accepted is true only
// for a 2xx response; rejections and transport failures both leave it false.
type Result struct {
	Accepted   bool
	StatusCode int
	Body       string
	Err        error
}

// Verifier posts licenses to the verification endpoint.
type Verifier struct {
	endpoint string
	client   *http.Client
}

// NewVerifier creates a verifier for endpoint. A non-positive timeout falls
// back to DefaultTimeout.
func NewVerifier(endpoint string, timeout time.Duration) *Verifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Verifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Verify makes exactly one attempt and blocks until it completes or the
// client timeout expires.
func (v *Verifier) Verify(ctx context.Context, artifact *license.Artifact, id license.Identity) Result {
	body, contentType, err := encode(artifact, id)
	if err != nil {
		slog.Error("verify_encode_failed", "error", err)
		return Result{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, body)
	if err != nil {
		slog.Error("verify_request_failed", "endpoint", v.endpoint, "error", err)
		return Result{Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	slog.Info("verify_start",
		"endpoint", v.endpoint,
		"company", id.OrganizationName,
		"license", filepath.Base(artifact.SourcePath))

	start := time.Now()
	resp, err := v.client.Do(req)
	if err != nil {
		slog.Error("verify_transport_failed",
			"endpoint", v.endpoint,
			"duration", time.Since(start),
			"error", err)
		return Result{Err: err}
	}
	defer resp.Body.Close()

	captured, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyCapture))
	result := Result{
		StatusCode: resp.StatusCode,
		Body:       string(captured),
		Accepted:   resp.StatusCode >= 200 && resp.StatusCode < 300,
	}

	if !result.Accepted {
		result.Err = fmt.Errorf("verification endpoint returned %d", resp.StatusCode)
		slog.Error("verify_rejected",
			"status", resp.StatusCode,
			"duration", time.Since(start),
			"body", result.Body)
		return result
	}

	slog.Info("verify_accepted", "status", resp.StatusCode, "duration", time.Since(start))
	return result
}

func encode(artifact *license.Artifact, id license.Identity) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField(FieldCompanyName, id.OrganizationName); err != nil {
		return nil, "", err
	}
	if err := w.WriteField(FieldCompanyEmail, id.ContactEmail); err != nil {
		return nil, "", err
	}

	// CreateFormFile sets Content-Type: application/octet-stream.
	part, err := w.CreateFormFile(FieldLicenseFile, filepath.Base(artifact.SourcePath))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(artifact.RawBytes); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
