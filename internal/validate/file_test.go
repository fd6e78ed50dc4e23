package validate

import (
	"errors"
	"testing"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		allowed  []string
		want     string
		wantErr  error
	}{
		{"pdf allowed for audit", "incident-report.pdf", AuditExtensions, ".pdf", nil},
		{"uppercase normalized", "SITE-PHOTOS.JPG", AuditExtensions, ".jpg", nil},
		{"spreadsheet allowed for audit", "asset-register.xlsx", AuditExtensions, ".xlsx", nil},
		{"image rejected for careers", "headshot.png", CareerExtensions, "", ErrDisallowedExtension},
		{"executable rejected", "payload.exe", AuditExtensions, "", ErrDisallowedExtension},
		{"no extension", "README", AuditExtensions, "", ErrDisallowedExtension},
		{"docx allowed for careers", "cv.docx", CareerExtensions, ".docx", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extension(tt.filename, tt.allowed)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileSize(t *testing.T) {
	c := FileConstraints{MaxSizeBytes: 10 * 1024 * 1024}

	if err := FileSize(5*1024*1024, c); err != nil {
		t.Errorf("unexpected error for in-bounds size: %v", err)
	}
	if err := FileSize(11*1024*1024, c); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
	if err := FileSize(0, c); !errors.Is(err, ErrFileEmpty) {
		t.Errorf("expected ErrFileEmpty for zero size, got %v", err)
	}
}

func TestFile(t *testing.T) {
	c := FileConstraints{AllowedExtensions: CareerExtensions, MaxSizeBytes: 10 * 1024 * 1024}

	ext, err := File("cv.pdf", 1024, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ext != ".pdf" {
		t.Errorf("got %q, want .pdf", ext)
	}

	if _, err := File("cv.pdf", 20*1024*1024, c); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
	if _, err := File("cv.zip", 1024, c); !errors.Is(err, ErrDisallowedExtension) {
		t.Errorf("expected ErrDisallowedExtension, got %v", err)
	}
}
