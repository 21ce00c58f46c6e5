package verify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitebeard-ai/pawn-installer/pkg/license"
)

var (
	testArtifact = &license.Artifact{
		SourcePath: "/var/lib/whitebeard/acme_pawn_plugin.lic",
		RawBytes:   []byte("CompanyName=Acme\nCompanyEmail=ops@acme.test\n"),
	}
	testIdentity = license.Identity{OrganizationName: "Acme", ContactEmail: "ops@acme.test"}
)

func TestVerify_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, true},
		{http.StatusCreated, true},
		{http.StatusNoContent, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.status != http.StatusNoContent {
					_, _ = w.Write([]byte(`{"reason":"test"}`))
				}
			}))
			defer srv.Close()

			res := NewVerifier(srv.URL, time.Second).Verify(context.Background(), testArtifact, testIdentity)

			assert.Equal(t, tt.want, res.Accepted)
			assert.Equal(t, tt.status, res.StatusCode)
			if !tt.want {
				assert.Error(t, res.Err)
				assert.Contains(t, res.Body, "reason")
			}
		})
	}
}

func TestVerify_MultipartContract(t *testing.T) {
	var (
		method, name, email, fileName, fileType string
		fileBody                                []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		require.NoError(t, r.ParseMultipartForm(1<<20))
		name = r.FormValue(FieldCompanyName)
		email = r.FormValue(FieldCompanyEmail)

		f, hdr, err := r.FormFile(FieldLicenseFile)
		require.NoError(t, err)
		defer f.Close()
		fileName = hdr.Filename
		fileType = hdr.Header.Get("Content-Type")
		fileBody, _ = io.ReadAll(f)

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := NewVerifier(srv.URL, time.Second).Verify(context.Background(), testArtifact, testIdentity)

	require.True(t, res.Accepted)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "Acme", name)
	assert.Equal(t, "ops@acme.test", email)
	assert.Equal(t, "acme_pawn_plugin.lic", fileName)
	assert.Equal(t, "application/octet-stream", fileType)
	assert.Equal(t, testArtifact.RawBytes, fileBody)
}

func TestVerify_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	res := NewVerifier(srv.URL, 50*time.Millisecond).Verify(context.Background(), testArtifact, testIdentity)

	assert.False(t, res.Accepted)
	assert.Error(t, res.Err)
	assert.Zero(t, res.StatusCode)
}

func TestVerify_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := NewVerifier(url, time.Second).Verify(context.Background(), testArtifact, testIdentity)

	assert.False(t, res.Accepted)
	assert.Error(t, res.Err)
}

func TestNewVerifier_DefaultTimeout(t *testing.T) {
	v := NewVerifier("http://localhost", 0)
	assert.Equal(t, DefaultTimeout, v.client.Timeout)
}
