package service

import (
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/render"
	"lorewiki-backend/internal/title"
)

var errBoom = errors.New("boom")

type randomCall struct {
	threshold float64
	imageOnly bool
}

// fakeStore backs both plugin store interfaces plus the renderer's
// existence checks. Random picks are served from a queue; a nil entry
// or an exhausted queue misses.
type fakeStore struct {
	nextID      uint
	pages       map[string]*models.Page
	revisions   map[uint]*models.Revision
	revisionErr error

	randomQueue []*models.Page
	randomCalls []randomCall
}

var (
	_ PageStore          = (*fakeStore)(nil)
	_ RevisionStore      = (*fakeStore)(nil)
	_ render.PageChecker = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		pages:     make(map[string]*models.Page),
		revisions: make(map[uint]*models.Revision),
	}
}

func (f *fakeStore) addPage(name, description string) *models.Page {
	f.nextID++
	page := &models.Page{
		ID:        f.nextID,
		Namespace: int(title.NamespaceFile),
		Title:     strings.ReplaceAll(name, " ", "_"),
		RandomKey: 0.5,
	}
	f.pages[page.Title] = page

	f.nextID++
	f.revisions[page.ID] = &models.Revision{ID: f.nextID, PageID: page.ID, Content: description}
	return page
}

func (f *fakeStore) GetByTitle(t title.Title) (*models.Page, error) {
	if t.Namespace() != title.NamespaceFile {
		return nil, gorm.ErrRecordNotFound
	}
	page, ok := f.pages[t.DBKey()]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return page, nil
}

func (f *fakeStore) ExistsByTitle(t title.Title) (bool, error) {
	_, err := f.GetByTitle(t)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeStore) RandomInNamespace(ns title.Namespace, threshold float64, imageOnly bool) (*models.Page, error) {
	f.randomCalls = append(f.randomCalls, randomCall{threshold: threshold, imageOnly: imageOnly})

	if len(f.randomQueue) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	page := f.randomQueue[0]
	f.randomQueue = f.randomQueue[1:]
	if page == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return page, nil
}

func (f *fakeStore) CurrentByPageID(pageID uint) (*models.Revision, error) {
	if f.revisionErr != nil {
		return nil, f.revisionErr
	}
	revision, ok := f.revisions[pageID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return revision, nil
}

type fakeFiles struct {
	urls map[string]string
}

var _ render.FileSource = (*fakeFiles)(nil)

func (f *fakeFiles) URLFor(t title.Title) (string, bool) {
	url, ok := f.urls[t.PrefixedText()]
	return url, ok
}

func newTestService(store *fakeStore, cfg Config) *Service {
	return New(store, store, cfg)
}

func mustFileTitle(t *testing.T, name string) title.Title {
	t.Helper()
	parsed, err := title.New(title.NamespaceFile, name)
	if err != nil {
		t.Fatalf("New(File, %q): %v", name, err)
	}
	return parsed
}

// newRenderPipeline wires the service into a real renderer the way
// activation does, so expansions run the full pipeline.
func newRenderPipeline(t *testing.T, store *fakeStore, files map[string]string, cfg Config) (*Service, *render.Renderer) {
	t.Helper()

	hooks := render.NewHookRegistry()
	renderer := render.New(render.Options{
		Pages: store,
		Files: &fakeFiles{urls: files},
		Hooks: hooks,
	})

	svc := newTestService(store, cfg)
	if err := hooks.RegisterTag("randomimage", svc.Expand); err != nil {
		t.Fatalf("RegisterTag: %v", err)
	}
	if err := hooks.RegisterPreprocessor("randomimage-caption-markers", StripCaptionMarkers); err != nil {
		t.Fatalf("RegisterPreprocessor: %v", err)
	}
	return svc, renderer
}
