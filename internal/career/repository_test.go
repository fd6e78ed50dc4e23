package career

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func seedApplication(t *testing.T, repo *InMemoryRepository, ref string, mutate func(*Application)) *Application {
	t.Helper()
	pos := Positions[0]
	a := &Application{
		ReferenceNumber: ref,
		FirstName:       "Chinedu",
		LastName:        "Eze",
		Email:           "chinedu@applicant.test",
		Phone:           "+2348009998877",
		PositionApplied: pos.Title,
		PositionCode:    pos.Code,
	}
	if mutate != nil {
		mutate(a)
	}
	if err := repo.Insert(context.Background(), a); err != nil {
		t.Fatalf("Insert(%s): %v", ref, err)
	}
	return a
}

func TestPositionCatalog(t *testing.T) {
	if len(Positions) != 4 {
		t.Fatalf("catalog has %d positions, want 4", len(Positions))
	}
	pos, ok := PositionByKey("k9-handler")
	if !ok || pos.Code != "K9H" {
		t.Errorf("PositionByKey(k9-handler) = %+v, %v", pos, ok)
	}
	if _, ok := PositionByKey("janitor"); ok {
		t.Error("unknown key accepted")
	}
}

func TestInsertDefaultsAndDuplicate(t *testing.T) {
	repo := NewInMemoryRepository()
	a := seedApplication(t, repo, "gwpl-hr-2026-12345", nil)

	if a.ID == "" || a.Status != StatusNew || a.SubmittedAt.IsZero() {
		t.Errorf("defaults not applied: %+v", a)
	}
	if a.ReferenceNumber != "GWPL-HR-2026-12345" {
		t.Errorf("ReferenceNumber = %q, want uppercased", a.ReferenceNumber)
	}

	err := repo.Insert(context.Background(), &Application{
		ReferenceNumber: "GWPL-HR-2026-12345",
		FirstName:       "Other",
		LastName:        "Applicant",
		Email:           "other@applicant.test",
		Phone:           "+2348000000000",
		PositionApplied: Positions[1].Title,
		PositionCode:    Positions[1].Code,
	})
	if !errors.Is(err, ErrDuplicateReference) {
		t.Errorf("err = %v, want ErrDuplicateReference", err)
	}
}

func TestListByPositionAndSearch(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		i := i
		seedApplication(t, repo, fmt.Sprintf("GWPL-HR-2026-%05d", 20000+i), func(a *Application) {
			a.SubmittedAt = base.Add(time.Duration(i) * time.Hour)
			pos := Positions[i%len(Positions)]
			a.PositionApplied = pos.Title
			a.PositionCode = pos.Code
			if i == 3 {
				a.Email = "needle@applicant.test"
			}
		})
	}

	page, err := repo.List(context.Background(), ListFilter{PositionCode: "RRT"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("RRT total = %d, want 2", page.Total)
	}
	for _, a := range page.Items {
		if a.PositionCode != "RRT" {
			t.Errorf("unexpected position %q in filtered page", a.PositionCode)
		}
	}

	page, err = repo.List(context.Background(), ListFilter{Search: "needle"})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if page.Total != 1 || page.Items[0].Email != "needle@applicant.test" {
		t.Errorf("search result = %+v", page.Items)
	}

	page, err = repo.List(context.Background(), ListFilter{Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("List paged: %v", err)
	}
	if page.Pages != 3 || len(page.Items) != 3 {
		t.Errorf("pages=%d items=%d, want 3/3", page.Pages, len(page.Items))
	}
	if page.Items[0].ReferenceNumber != "GWPL-HR-2026-20004" {
		t.Errorf("page 2 starts at %q", page.Items[0].ReferenceNumber)
	}
}

func TestUpdateAllowedFields(t *testing.T) {
	repo := NewInMemoryRepository()
	a := seedApplication(t, repo, "GWPL-HR-2026-30000", nil)

	status := StatusInterviewed
	interviewed := time.Date(2026, 4, 10, 14, 0, 0, 0, time.UTC)
	assigned := "hr@gwpl.test"
	err := repo.Update(context.Background(), a.ID, Patch{
		Status:        &status,
		InterviewedAt: &interviewed,
		AssignedTo:    &assigned,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusInterviewed || got.AssignedTo != assigned {
		t.Errorf("application after update = %+v", got)
	}
	if got.InterviewedAt == nil || !got.InterviewedAt.Equal(interviewed) {
		t.Errorf("InterviewedAt = %v, want %v", got.InterviewedAt, interviewed)
	}

	if err := repo.Update(context.Background(), a.ID, Patch{}); !errors.Is(err, ErrNoFieldsToUpdate) {
		t.Errorf("empty patch err = %v, want ErrNoFieldsToUpdate", err)
	}
	if err := repo.Update(context.Background(), "missing", Patch{Status: &status}); !errors.Is(err, ErrApplicationNotFound) {
		t.Errorf("missing id err = %v, want ErrApplicationNotFound", err)
	}
}

func TestStats(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		i := i
		seedApplication(t, repo, fmt.Sprintf("GWPL-HR-2026-4000%d", i), func(a *Application) {
			pos := Positions[i%2]
			a.PositionApplied = pos.Title
			a.PositionCode = pos.Code
			a.SubmittedAt = now.Add(-time.Duration(i) * time.Hour)
			if i == 4 {
				a.SubmittedAt = now.Add(-30 * 24 * time.Hour)
			}
		})
	}

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 5 || stats.New != 5 {
		t.Errorf("total=%d new=%d, want 5/5", stats.Total, stats.New)
	}
	if stats.ThisWeek != 4 {
		t.Errorf("ThisWeek = %d, want 4", stats.ThisWeek)
	}
	if len(stats.ByPosition) != 2 {
		t.Errorf("ByPosition = %+v", stats.ByPosition)
	}
}
