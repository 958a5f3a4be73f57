// Package pdf validates downloaded PDF content and sanitizes identifiers
// into safe storage filenames.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Sentinel errors for validation failures.
var (
	// ErrInvalidPDF indicates the downloaded bytes are not a PDF document.
	ErrInvalidPDF = errors.New("content is not a valid PDF")
	// ErrInvalidIdentifier indicates an empty identifier was passed to
	// SanitizeFilename.
	ErrInvalidIdentifier = errors.New("identifier must be a non-empty string")
)

// MaxFilenameLength bounds sanitized filenames.
const MaxFilenameLength = 200

var pdfMagic = []byte("%PDF")

// IsValid reports whether buf holds PDF content: at least 4 bytes starting
// with the ASCII sequence %PDF. The check is content-based, never
// extension-based.
func IsValid(buf []byte) bool {
	return len(buf) >= len(pdfMagic) && bytes.HasPrefix(buf, pdfMagic)
}

// SanitizeFilename maps an identifier to a storage-safe filename: every
// character outside [A-Za-z0-9_-] becomes "_", consecutive underscores
// collapse to one, leading/trailing underscores are stripped, an empty
// result becomes "unnamed", and the output is capped at MaxFilenameLength.
// The function is idempotent, and its output can never contain "/", "\" or
// "..", so the storage path cannot escape its prefix.
func SanitizeFilename(identifier string) (string, error) {
	if identifier == "" {
		return "", ErrInvalidIdentifier
	}

	var b strings.Builder
	b.Grow(len(identifier))
	lastUnderscore := false
	for _, r := range identifier {
		safe := r == '-' ||
			(r >= 'A' && r <= 'Z') ||
			(r >= 'a' && r <= 'z') ||
			(r >= '0' && r <= '9')
		switch {
		case safe:
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "unnamed", nil
	}
	if len(name) > MaxFilenameLength {
		name = strings.Trim(name[:MaxFilenameLength], "_")
		if name == "" {
			return "unnamed", nil
		}
	}
	return name, nil
}

// Getter performs a rate-limited GET; the archive client satisfies it so PDF
// downloads share the source's request pacing and retry policy.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Downloader fetches PDF content and rejects anything without the PDF magic
// bytes. Implements ingest.PDFFetcher.
type Downloader struct {
	getter Getter
	logger *zap.Logger
}

// NewDownloader constructs a Downloader.
func NewDownloader(getter Getter, logger *zap.Logger) *Downloader {
	return &Downloader{getter: getter, logger: logger}
}

// Fetch downloads url and validates the content.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := d.getter.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download pdf: %w", err)
	}
	if !IsValid(body) {
		d.logger.Warn("downloaded content failed PDF validation",
			zap.String("url", url),
			zap.Int("bytes", len(body)),
		)
		return nil, fmt.Errorf("%w (%d bytes)", ErrInvalidPDF, len(body))
	}
	return body, nil
}
