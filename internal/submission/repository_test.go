package submission

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func seedCase(t *testing.T, repo *InMemoryRepository, ref string, mutate func(*Case)) *Case {
	t.Helper()
	c := &Case{
		ReferenceNumber:  ref,
		FirstName:        "Adaeze",
		LastName:         "Okafor",
		PhonePrimary:     "+2348001112233",
		Email:            "adaeze@acme.test",
		OrganisationName: "Acme Logistics",
		ThreatLevel:      ThreatRoutine,
		SituationSummary: "Repeated perimeter probes observed at the depot over the past week.",
	}
	if mutate != nil {
		mutate(c)
	}
	if err := repo.Insert(context.Background(), c); err != nil {
		t.Fatalf("Insert(%s): %v", ref, err)
	}
	return c
}

func TestInsertDefaultsAndDuplicate(t *testing.T) {
	repo := NewInMemoryRepository()
	c := seedCase(t, repo, "gwpl-2026-11111", nil)

	if c.ID == "" {
		t.Error("ID not generated")
	}
	if c.Status != StatusNew {
		t.Errorf("Status = %q, want %q", c.Status, StatusNew)
	}
	if c.ReferenceNumber != "GWPL-2026-11111" {
		t.Errorf("ReferenceNumber = %q, want uppercased", c.ReferenceNumber)
	}
	if c.SubmittedAt.IsZero() {
		t.Error("SubmittedAt not set")
	}

	err := repo.Insert(context.Background(), &Case{
		ReferenceNumber:  "GWPL-2026-11111",
		FirstName:        "Other",
		LastName:         "Person",
		PhonePrimary:     "+2348000000000",
		Email:            "other@acme.test",
		OrganisationName: "Other Org",
		SituationSummary: "A different situation entirely, long enough to be valid.",
	})
	if !errors.Is(err, ErrDuplicateReference) {
		t.Errorf("err = %v, want ErrDuplicateReference", err)
	}
}

func TestGetByReferenceCaseInsensitive(t *testing.T) {
	repo := NewInMemoryRepository()
	seedCase(t, repo, "GWPL-2026-22222", nil)

	for _, ref := range []string{"GWPL-2026-22222", "gwpl-2026-22222", "  GWPL-2026-22222  "} {
		c, err := repo.GetByReference(context.Background(), ref)
		if err != nil {
			t.Errorf("GetByReference(%q): %v", ref, err)
			continue
		}
		if c.ReferenceNumber != "GWPL-2026-22222" {
			t.Errorf("ReferenceNumber = %q", c.ReferenceNumber)
		}
	}

	if _, err := repo.GetByReference(context.Background(), "GWPL-2026-99999"); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("err = %v, want ErrCaseNotFound", err)
	}
}

func TestListFiltersAndPaging(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		i := i
		seedCase(t, repo, fmt.Sprintf("GWPL-2026-%05d", 10000+i), func(c *Case) {
			c.SubmittedAt = base.Add(time.Duration(i) * time.Minute)
			if i%5 == 0 {
				c.ThreatLevel = ThreatCritical
			}
			if i == 7 {
				c.OrganisationName = "Zenith Mining"
			}
		})
	}

	page, err := repo.List(context.Background(), ListFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 25 || page.Pages != 3 || len(page.Items) != 10 {
		t.Errorf("total=%d pages=%d items=%d, want 25/3/10", page.Total, page.Pages, len(page.Items))
	}
	if page.Items[0].ReferenceNumber != "GWPL-2026-10024" {
		t.Errorf("first item = %q, want newest first", page.Items[0].ReferenceNumber)
	}

	page, err = repo.List(context.Background(), ListFilter{ThreatLevel: ThreatCritical, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if page.Total != 5 {
		t.Errorf("critical total = %d, want 5", page.Total)
	}

	page, err = repo.List(context.Background(), ListFilter{Search: "zenith", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if page.Total != 1 || page.Items[0].OrganisationName != "Zenith Mining" {
		t.Errorf("search result = %+v", page.Items)
	}

	// Out-of-range paging values get clamped rather than erroring.
	page, err = repo.List(context.Background(), ListFilter{Page: -3, Limit: 500})
	if err != nil {
		t.Fatalf("List clamped: %v", err)
	}
	if page.Page != 1 || len(page.Items) != 25 {
		t.Errorf("page=%d items=%d after clamping", page.Page, len(page.Items))
	}
}

func TestUpdateAllowedFields(t *testing.T) {
	repo := NewInMemoryRepository()
	c := seedCase(t, repo, "GWPL-2026-33333", nil)

	status := StatusAcknowledged
	notes := "GSOC duty officer reached the contact by phone."
	ackAt := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	ackBy := "ops@gwpl.test"
	err := repo.Update(context.Background(), c.ID, Patch{
		Status:         &status,
		InternalNotes:  &notes,
		AcknowledgedAt: &ackAt,
		AcknowledgedBy: &ackBy,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusAcknowledged || got.InternalNotes != notes || got.AcknowledgedBy != ackBy {
		t.Errorf("case after update = %+v", got)
	}
	if got.AcknowledgedAt == nil || !got.AcknowledgedAt.Equal(ackAt) {
		t.Errorf("AcknowledgedAt = %v, want %v", got.AcknowledgedAt, ackAt)
	}

	if err := repo.Update(context.Background(), c.ID, Patch{}); !errors.Is(err, ErrNoFieldsToUpdate) {
		t.Errorf("empty patch err = %v, want ErrNoFieldsToUpdate", err)
	}
	if err := repo.Update(context.Background(), "missing", Patch{Status: &status}); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("missing id err = %v, want ErrCaseNotFound", err)
	}
}

func TestStats(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now().UTC()
	levels := []string{ThreatCritical, ThreatCritical, ThreatHigh, ThreatRoutine}
	for i, level := range levels {
		i, level := i, level
		seedCase(t, repo, fmt.Sprintf("GWPL-2026-4000%d", i), func(c *Case) {
			c.ThreatLevel = level
			c.SubmittedAt = now.Add(-time.Duration(i) * time.Minute)
		})
	}
	resolved := StatusResolved
	page, _ := repo.List(context.Background(), ListFilter{Page: 1, Limit: 1})
	if err := repo.Update(context.Background(), page.Items[0].ID, Patch{Status: &resolved}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 4 || stats.New != 3 || stats.Critical != 2 || stats.High != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Today != 4 {
		t.Errorf("Today = %d, want 4", stats.Today)
	}
	if len(stats.Recent) != 4 {
		t.Errorf("Recent = %d entries, want 4", len(stats.Recent))
	}
	if stats.Recent[0].ReferenceNumber != "GWPL-2026-40000" {
		t.Errorf("Recent[0] = %q, want newest first", stats.Recent[0].ReferenceNumber)
	}
}

func TestCopyOnReturn(t *testing.T) {
	repo := NewInMemoryRepository()
	c := seedCase(t, repo, "GWPL-2026-55555", func(c *Case) {
		c.Sectors = []string{"energy", "maritime"}
	})

	got, err := repo.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	got.Sectors[0] = "mutated"
	got.Status = "mutated"

	again, _ := repo.GetByID(context.Background(), c.ID)
	if again.Sectors[0] != "energy" || again.Status != StatusNew {
		t.Error("stored case mutated through returned copy")
	}
}
