// Package license finds the WhiteBeard license artifact on disk and extracts
// the identity it was issued to.
package license

import (
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
)

// Artifact is a located license file and its bytes.
type Artifact struct {
	SourcePath string
	RawBytes   []byte
}

// Identity is the organization a license was issued to.
type Identity struct {
	OrganizationName string `validate:"required"`
	ContactEmail     string `validate:"required"`
}

// Placeholder identity returned by the compatibility parser when a license
// carries no readable fields.
const (
	PlaceholderOrganization = "Unknown Company"
	PlaceholderEmail        = "unknown@example.com"
)

var validate = validator.New()

// Validate reports whether both identity fields are set.
func (id Identity) Validate() error {
	return validate.Struct(id)
}

// IsPlaceholder reports whether id is the synthetic fallback identity.
func (id Identity) IsPlaceholder() bool {
	return id.OrganizationName == PlaceholderOrganization && id.ContactEmail == PlaceholderEmail
}

// Load reads the artifact at path. Files larger than maxSize are rejected
// when maxSize is positive.
func Load(path string, maxSize int64) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.KindNotFound, "load license", err)
		}
		return nil, errors.IO("stat license", path, "", err)
	}
	if info.IsDir() {
		return nil, errors.Newf(errors.KindNotFound, "load license", "%s is a directory", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, errors.Newf(errors.KindParseDegraded, "load license",
			"%s is %d bytes, limit is %d", path, info.Size(), maxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO("read license", path, "", err)
	}

	return &Artifact{SourcePath: path, RawBytes: data}, nil
}
