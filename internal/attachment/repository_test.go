package attachment

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInsertAndListBySubmission(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	files := []*Attachment{
		{SubmissionID: "sub-1", SubmissionType: KindAudit, OriginalName: "site-plan.pdf", StoredName: "audit_1_aaaa.pdf", SizeBytes: 1024, UploadedAt: base},
		{SubmissionID: "sub-1", SubmissionType: KindAudit, OriginalName: "gate.jpg", StoredName: "audit_2_bbbb.jpg", SizeBytes: 2048, UploadedAt: base.Add(time.Second)},
		{SubmissionID: "sub-2", SubmissionType: KindCareers, OriginalName: "cv.pdf", StoredName: "cv_3_cccc.pdf", SizeBytes: 4096, UploadedAt: base},
	}
	for _, f := range files {
		if err := repo.Insert(context.Background(), f); err != nil {
			t.Fatalf("Insert(%s): %v", f.OriginalName, err)
		}
		if f.ID == "" {
			t.Errorf("ID not generated for %s", f.OriginalName)
		}
	}

	got, err := repo.ListBySubmission(context.Background(), "sub-1", KindAudit)
	if err != nil {
		t.Fatalf("ListBySubmission: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d attachments, want 2", len(got))
	}
	if got[0].OriginalName != "site-plan.pdf" || got[1].OriginalName != "gate.jpg" {
		t.Errorf("upload order not preserved: %q, %q", got[0].OriginalName, got[1].OriginalName)
	}

	// Same submission ID under a different kind sees nothing.
	got, err = repo.ListBySubmission(context.Background(), "sub-1", KindCareers)
	if err != nil {
		t.Fatalf("ListBySubmission: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d attachments across kinds, want 0", len(got))
	}

	n, err := repo.CountAll(context.Background())
	if err != nil {
		t.Fatalf("CountAll: %v", err)
	}
	if n != 3 {
		t.Errorf("CountAll = %d, want 3", n)
	}
}

func TestInsertRejectsUnknownKind(t *testing.T) {
	repo := NewInMemoryRepository()
	err := repo.Insert(context.Background(), &Attachment{
		SubmissionID:   "sub-1",
		SubmissionType: "invoices",
		OriginalName:   "x.pdf",
		StoredName:     "x.pdf",
	})
	if !errors.Is(err, ErrInvalidKind) {
		t.Errorf("err = %v, want ErrInvalidKind", err)
	}
}
