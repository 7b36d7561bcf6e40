package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/render"
)

type renderFixture struct {
	svc       *RenderService
	cache     *fakeParserCache
	pages     *memPageRepo
	revisions *memRevisionRepo
	hooks     *render.HookRegistry
	page      *models.Page
}

func newRenderFixture(t *testing.T, content string) *renderFixture {
	t.Helper()

	pages := newMemPageRepo()
	revisions := newMemRevisionRepo()

	page := &models.Page{Namespace: 0, Title: "Harbor", RandomKey: 0.5}
	if err := pages.Create(page); err != nil {
		t.Fatalf("seed page: %v", err)
	}
	if err := revisions.Create(&models.Revision{PageID: page.ID, AuthorID: 1, Content: content}); err != nil {
		t.Fatalf("seed revision: %v", err)
	}

	hooks := render.NewHookRegistry()
	renderer := render.New(render.Options{
		Pages: pages,
		Files: &fakeFileSource{urls: map[string]string{}},
		Hooks: hooks,
	})

	pc := newFakeParserCache()
	return &renderFixture{
		svc:       NewRenderService(renderer, pc, pages, revisions, time.Hour),
		cache:     pc,
		pages:     pages,
		revisions: revisions,
		hooks:     hooks,
		page:      page,
	}
}

func TestRenderServiceCachesByRevision(t *testing.T) {
	fx := newRenderFixture(t, "# Harbor\n\nA port town.")

	first, err := fx.svc.RenderPageByTitle(context.Background(), mustTitle(t, "Harbor"))
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	if !strings.Contains(first.HTML, "<h1") {
		t.Errorf("rendered HTML missing heading: %q", first.HTML)
	}
	if fx.cache.stores != 1 {
		t.Fatalf("stores after first render = %d, want 1", fx.cache.stores)
	}

	second, err := fx.svc.RenderPageByTitle(context.Background(), mustTitle(t, "Harbor"))
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if second.HTML != first.HTML {
		t.Error("cache hit returned different HTML")
	}
	if fx.cache.stores != 1 {
		t.Errorf("stores after cache hit = %d, want 1", fx.cache.stores)
	}

	// A new revision must miss the old key.
	if err := fx.revisions.Create(&models.Revision{PageID: fx.page.ID, AuthorID: 1, Content: "Rebuilt."}); err != nil {
		t.Fatalf("new revision: %v", err)
	}
	third, err := fx.svc.RenderPageByID(context.Background(), fx.page.ID)
	if err != nil {
		t.Fatalf("third render: %v", err)
	}
	if !strings.Contains(third.HTML, "Rebuilt.") {
		t.Errorf("render after edit = %q, want new content", third.HTML)
	}
	if fx.cache.stores != 2 {
		t.Errorf("stores after edit = %d, want 2", fx.cache.stores)
	}
}

func TestRenderServiceSkipsCacheWhenDisabledByHook(t *testing.T) {
	fx := newRenderFixture(t, "before <roll/> after")

	err := fx.hooks.RegisterTag("roll", func(rc *render.Context, body string, attrs map[string]string) (string, error) {
		rc.DisableCache()
		return "4", nil
	})
	if err != nil {
		t.Fatalf("RegisterTag: %v", err)
	}

	rendered, err := fx.svc.RenderPageByID(context.Background(), fx.page.ID)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !rendered.NoCache {
		t.Error("hook disabled caching but NoCache is false")
	}
	if fx.cache.stores != 0 {
		t.Errorf("uncacheable render was stored (%d stores)", fx.cache.stores)
	}
	if !strings.Contains(rendered.HTML, "4") {
		t.Errorf("tag output missing from %q", rendered.HTML)
	}
}

func TestRenderServiceMissingPage(t *testing.T) {
	fx := newRenderFixture(t, "x")

	_, err := fx.svc.RenderPageByTitle(context.Background(), mustTitle(t, "No Such Page"))
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("error = %v, want ErrRecordNotFound", err)
	}
}

func TestRenderServicePreviewBypassesCache(t *testing.T) {
	fx := newRenderFixture(t, "x")

	result, err := fx.svc.RenderPreview(context.Background(), "*draft*")
	if err != nil {
		t.Fatalf("RenderPreview: %v", err)
	}
	if !strings.Contains(result.HTML, "<em>draft</em>") {
		t.Errorf("preview HTML = %q", result.HTML)
	}
	if fx.cache.stores != 0 {
		t.Errorf("preview stored to parser cache (%d stores)", fx.cache.stores)
	}
}

func TestRenderServiceInvalidatePage(t *testing.T) {
	fx := newRenderFixture(t, "A port town.")

	if _, err := fx.svc.RenderPageByID(context.Background(), fx.page.ID); err != nil {
		t.Fatalf("render: %v", err)
	}
	fx.svc.InvalidatePage(fx.page.ID)

	if len(fx.cache.invalidated) != 1 || fx.cache.invalidated[0] != fx.page.ID {
		t.Errorf("invalidated = %v, want [%d]", fx.cache.invalidated, fx.page.ID)
	}
	if len(fx.cache.entries) != 0 {
		t.Errorf("entries after invalidate = %d, want 0", len(fx.cache.entries))
	}
}
