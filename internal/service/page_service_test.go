package service

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/title"
	"lorewiki-backend/pkg/cache"
)

func disabledCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.NewCache("", false)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return c
}

func newPageService(t *testing.T) (*PageService, *memPageRepo, *memRevisionRepo) {
	t.Helper()
	pages := newMemPageRepo()
	revisions := newMemRevisionRepo()
	svc := NewPageService(pages, revisions, disabledCache(t))
	return svc, pages, revisions
}

func TestPageServiceCreate(t *testing.T) {
	svc, _, _ := newPageService(t)
	svc.randomKey = func() float64 { return 0.42 }

	detail, err := svc.Create(models.CreatePageRequest{
		Title:   "Moonrise Keep",
		Content: "A castle on the eastern ridge.",
		Summary: "created",
	}, 7)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if detail.Page.Title != "Moonrise_Keep" {
		t.Errorf("stored title = %q, want Moonrise_Keep", detail.Page.Title)
	}
	if detail.Prefixed != "Moonrise Keep" {
		t.Errorf("prefixed = %q, want Moonrise Keep", detail.Prefixed)
	}
	if detail.Page.RandomKey != 0.42 {
		t.Errorf("random key = %v, want 0.42", detail.Page.RandomKey)
	}
	if detail.Page.IsRedirect {
		t.Error("plain content marked as redirect")
	}
	if detail.Revision == nil || detail.Revision.AuthorID != 7 {
		t.Fatalf("revision = %+v, want author 7", detail.Revision)
	}
}

func TestPageServiceCreateDuplicate(t *testing.T) {
	svc, _, _ := newPageService(t)

	if _, err := svc.Create(models.CreatePageRequest{Title: "Harbor", Content: "x"}, 1); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	// Same page under a different surface spelling of the title.
	if _, err := svc.Create(models.CreatePageRequest{Title: "harbor", Content: "y"}, 1); err == nil {
		t.Fatal("duplicate Create succeeded")
	}
}

func TestPageServiceCreateDetectsRedirect(t *testing.T) {
	svc, _, _ := newPageService(t)

	detail, err := svc.Create(models.CreatePageRequest{
		Title:   "Old Harbor",
		Content: "  #redirect [[Harbor]]",
	}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !detail.Page.IsRedirect {
		t.Error("redirect content not detected")
	}
}

func TestPageServiceEditRefreshesRedirect(t *testing.T) {
	svc, pages, revisions := newPageService(t)

	detail, err := svc.Create(models.CreatePageRequest{Title: "Harbor", Content: "A port town."}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	edited, err := svc.Edit(detail.Page.ID, models.UpdatePageRequest{
		Content: "#REDIRECT [[New Harbor]]",
		Summary: "moved",
	}, 2)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !edited.Page.IsRedirect {
		t.Error("edit to redirect content did not flag the page")
	}

	stored, err := pages.GetByID(detail.Page.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !stored.IsRedirect {
		t.Error("redirect flag not persisted")
	}

	if _, err := svc.Edit(detail.Page.ID, models.UpdatePageRequest{Content: "A port town again."}, 2); err != nil {
		t.Fatalf("second Edit: %v", err)
	}
	stored, _ = pages.GetByID(detail.Page.ID)
	if stored.IsRedirect {
		t.Error("redirect flag not cleared on ordinary edit")
	}

	count, _ := revisions.CountByPageID(detail.Page.ID)
	if count != 3 {
		t.Errorf("revision count = %d, want 3", count)
	}
}

func TestPageServiceGetByTitle(t *testing.T) {
	svc, _, _ := newPageService(t)

	if _, err := svc.Create(models.CreatePageRequest{Title: "Harbor", Content: "A port town."}, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ht := mustTitle(t, "Harbor")
	detail, err := svc.GetByTitle(ht)
	if err != nil {
		t.Fatalf("GetByTitle: %v", err)
	}
	if detail.Revision == nil || detail.Revision.Content != "A port town." {
		t.Errorf("current revision = %+v", detail.Revision)
	}

	_, err = svc.GetByTitle(mustTitle(t, "No Such Page"))
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("missing page error = %v, want ErrRecordNotFound", err)
	}
}

func TestPageServiceDelete(t *testing.T) {
	svc, _, _ := newPageService(t)

	detail, err := svc.Create(models.CreatePageRequest{Title: "Harbor", Content: "x"}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(detail.Page.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(detail.Page.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("after delete GetByID error = %v, want ErrRecordNotFound", err)
	}
}

func TestPageServiceRevisionsOrder(t *testing.T) {
	svc, _, _ := newPageService(t)

	detail, err := svc.Create(models.CreatePageRequest{Title: "Harbor", Content: "v1"}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Edit(detail.Page.ID, models.UpdatePageRequest{Content: "v2"}, 1); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	revisions, total, err := svc.Revisions(detail.Page.ID, 10, 0)
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	if total != 2 || len(revisions) != 2 {
		t.Fatalf("got %d revisions (total %d), want 2", len(revisions), total)
	}
	if revisions[0].Content != "v2" || revisions[1].Content != "v1" {
		t.Errorf("revisions not newest-first: %q then %q", revisions[0].Content, revisions[1].Content)
	}
}

func mustTitle(t *testing.T, text string) title.Title {
	t.Helper()
	parsed, err := title.Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return parsed
}
