package validate

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// File validation errors
var (
	ErrDisallowedExtension = errors.New("file extension not allowed")
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileEmpty           = errors.New("file is empty")
)

// AuditExtensions is the extension allow-list for emergency audit
// request attachments (evidence documents, photos, spreadsheets).
var AuditExtensions = []string{
	".pdf", ".doc", ".docx", ".jpg", ".jpeg", ".png", ".gif", ".xlsx", ".xls",
}

// CareerExtensions is the extension allow-list for career application
// documents (CV and certification scans).
var CareerExtensions = []string{
	".pdf", ".doc", ".docx",
}

// FileConstraints defines validation constraints for an uploaded file.
type FileConstraints struct {
	AllowedExtensions []string // Lowercased extensions including the dot
	MaxSizeBytes      int64    // Maximum file size in bytes (0 = no maximum)
}

// Extension validates the extension of an original filename against an
// allow-list. Returns the normalized (lowercased) extension.
func Extension(filename string, allowed []string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrDisallowedExtension, filename)
	}
	for _, a := range allowed {
		if ext == a {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrDisallowedExtension, ext)
}

// FileSize validates a file size against constraints.
func FileSize(sizeBytes int64, constraints FileConstraints) error {
	if sizeBytes <= 0 {
		return ErrFileEmpty
	}
	if constraints.MaxSizeBytes > 0 && sizeBytes > constraints.MaxSizeBytes {
		return fmt.Errorf("%w: got %d bytes, maximum is %d", ErrFileTooLarge, sizeBytes, constraints.MaxSizeBytes)
	}
	return nil
}

// File validates both extension and size. Returns the normalized extension.
func File(filename string, sizeBytes int64, constraints FileConstraints) (string, error) {
	ext, err := Extension(filename, constraints.AllowedExtensions)
	if err != nil {
		return "", err
	}
	if err := FileSize(sizeBytes, constraints); err != nil {
		return "", err
	}
	return ext, nil
}
