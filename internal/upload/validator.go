// Package upload inspects incoming cover-image files and turns them into
// storable candidates. Nothing the client declares — filename, extension,
// content type — is trusted: the type is sniffed from the bytes, the bytes
// must decode as a real image, and the stored name is freshly generated.
package upload

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	_ "golang.org/x/image/webp"
)

// ErrNoFile is returned when the request carried a file field with no usable content.
var ErrNoFile = errors.New("no image file supplied")

// ErrTooLarge is returned when the upload exceeds the policy size limit.
var ErrTooLarge = errors.New("image too large")

// ErrUnsupportedType is returned when the sniffed content type is not allowed.
var ErrUnsupportedType = errors.New("unsupported image type, allowed: JPEG, PNG, WEBP")

// ErrNotImage is returned when the bytes pass type sniffing but do not decode
// as an image (e.g. a crafted polyglot file).
var ErrNotImage = errors.New("file is not a valid image")

// IsRejection reports whether err is a rejection of the uploaded file itself,
// as opposed to an infrastructure failure. Rejections are user-recoverable.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNoFile) ||
		errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrNotImage)
}

// Policy bounds what an upload may be. AllowedTypes maps a sniffed MIME type
// to the canonical extension used for the stored name.
type Policy struct {
	MaxBytes     int64
	AllowedTypes map[string]string
}

// DefaultPolicy returns the cover-image policy: JPEG, PNG or WEBP up to maxBytes.
func DefaultPolicy(maxBytes int64) Policy {
	return Policy{
		MaxBytes: maxBytes,
		AllowedTypes: map[string]string{
			"image/jpeg": "jpg",
			"image/png":  "png",
			"image/webp": "webp",
		},
	}
}

// Candidate is a validated upload ready to be committed to a blob store.
type Candidate struct {
	// Name is the generated stored name, random hex plus the canonical
	// extension for the sniffed type. Never derived from client input.
	Name        string
	ContentType string
	Data        []byte
}

// Validator applies an upload Policy.
type Validator struct {
	policy Policy
}

// NewValidator creates a Validator for the given policy.
func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// Validate checks the uploaded file against the policy and returns a storable
// candidate. declaredSize is the size the transport reported; the actual bytes
// are bounded independently so a lying client cannot smuggle a larger body.
func (v *Validator) Validate(r io.Reader, declaredSize int64) (*Candidate, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	if declaredSize > v.policy.MaxBytes {
		return nil, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, v.policy.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > v.policy.MaxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}

	sniffed := http.DetectContentType(data)
	ext, ok := v.policy.AllowedTypes[sniffed]
	if !ok {
		return nil, ErrUnsupportedType
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, ErrNotImage
	}

	name, err := randomName(ext)
	if err != nil {
		return nil, err
	}

	return &Candidate{Name: name, ContentType: sniffed, Data: data}, nil
}

// randomName generates a collision-resistant stored filename: 12 random bytes
// hex-encoded, plus the canonical extension.
func randomName(ext string) (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate stored name: %w", err)
	}
	return hex.EncodeToString(b) + "." + ext, nil
}
