package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/repository"
	"lorewiki-backend/internal/title"
)

// memPageRepo is an in-memory PageRepository. Pages flagged in images
// count as image-backed for RandomInNamespace.
type memPageRepo struct {
	nextID uint
	pages  map[uint]*models.Page
	images map[uint]bool
}

var _ repository.PageRepository = (*memPageRepo)(nil)

func newMemPageRepo() *memPageRepo {
	return &memPageRepo{pages: make(map[uint]*models.Page), images: make(map[uint]bool)}
}

func (r *memPageRepo) Create(page *models.Page) error {
	r.nextID++
	page.ID = r.nextID
	page.CreatedAt = time.Now()
	page.UpdatedAt = page.CreatedAt
	stored := *page
	r.pages[page.ID] = &stored
	return nil
}

func (r *memPageRepo) Update(page *models.Page) error {
	if _, ok := r.pages[page.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	page.UpdatedAt = time.Now()
	stored := *page
	r.pages[page.ID] = &stored
	return nil
}

func (r *memPageRepo) Delete(id uint) error {
	delete(r.pages, id)
	return nil
}

func (r *memPageRepo) GetByID(id uint) (*models.Page, error) {
	page, ok := r.pages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *page
	return &found, nil
}

func (r *memPageRepo) GetByTitle(t title.Title) (*models.Page, error) {
	for _, page := range r.pages {
		if page.Namespace == int(t.Namespace()) && page.Title == t.DBKey() {
			found := *page
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memPageRepo) ExistsByTitle(t title.Title) (bool, error) {
	_, err := r.GetByTitle(t)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *memPageRepo) ListByNamespace(ns title.Namespace, limit, offset int) ([]models.Page, error) {
	var pages []models.Page
	for _, page := range r.pages {
		if page.Namespace == int(ns) {
			pages = append(pages, *page)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Title < pages[j].Title })
	if offset >= len(pages) {
		return nil, nil
	}
	pages = pages[offset:]
	if limit > 0 && limit < len(pages) {
		pages = pages[:limit]
	}
	return pages, nil
}

func (r *memPageRepo) CountByNamespace(ns title.Namespace) (int64, error) {
	var count int64
	for _, page := range r.pages {
		if page.Namespace == int(ns) {
			count++
		}
	}
	return count, nil
}

func (r *memPageRepo) Count() (int64, error) {
	return int64(len(r.pages)), nil
}

func (r *memPageRepo) RandomInNamespace(ns title.Namespace, threshold float64, imageOnly bool) (*models.Page, error) {
	var candidates []*models.Page
	for _, page := range r.pages {
		if page.Namespace != int(ns) || page.IsRedirect || page.RandomKey <= threshold {
			continue
		}
		if imageOnly && !r.images[page.ID] {
			continue
		}
		candidates = append(candidates, page)
	}
	if len(candidates) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].RandomKey < candidates[j].RandomKey })
	found := *candidates[0]
	return &found, nil
}

func (r *memPageRepo) UpdateRandomKey(id uint, key float64) error {
	page, ok := r.pages[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	page.RandomKey = key
	return nil
}

func (r *memPageRepo) ListZeroRandomKeys(limit int) ([]models.Page, error) {
	var pages []models.Page
	for _, page := range r.pages {
		if page.RandomKey == 0 {
			pages = append(pages, *page)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].ID < pages[j].ID })
	if limit > 0 && limit < len(pages) {
		pages = pages[:limit]
	}
	return pages, nil
}

type memRevisionRepo struct {
	nextID    uint
	revisions []models.Revision
}

var _ repository.RevisionRepository = (*memRevisionRepo)(nil)

func newMemRevisionRepo() *memRevisionRepo {
	return &memRevisionRepo{}
}

func (r *memRevisionRepo) Create(revision *models.Revision) error {
	r.nextID++
	revision.ID = r.nextID
	revision.CreatedAt = time.Now()
	r.revisions = append(r.revisions, *revision)
	return nil
}

func (r *memRevisionRepo) GetByID(id uint) (*models.Revision, error) {
	for _, revision := range r.revisions {
		if revision.ID == id {
			found := revision
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRevisionRepo) CurrentByPageID(pageID uint) (*models.Revision, error) {
	var current *models.Revision
	for i := range r.revisions {
		if r.revisions[i].PageID != pageID {
			continue
		}
		if current == nil || r.revisions[i].ID > current.ID {
			current = &r.revisions[i]
		}
	}
	if current == nil {
		return nil, gorm.ErrRecordNotFound
	}
	found := *current
	return &found, nil
}

func (r *memRevisionRepo) ListByPageID(pageID uint, limit, offset int) ([]models.Revision, error) {
	var revisions []models.Revision
	for _, revision := range r.revisions {
		if revision.PageID == pageID {
			revisions = append(revisions, revision)
		}
	}
	sort.Slice(revisions, func(i, j int) bool { return revisions[i].ID > revisions[j].ID })
	if offset >= len(revisions) {
		return nil, nil
	}
	revisions = revisions[offset:]
	if limit > 0 && limit < len(revisions) {
		revisions = revisions[:limit]
	}
	return revisions, nil
}

func (r *memRevisionRepo) CountByPageID(pageID uint) (int64, error) {
	var count int64
	for _, revision := range r.revisions {
		if revision.PageID == pageID {
			count++
		}
	}
	return count, nil
}

func (r *memRevisionRepo) Count() (int64, error) {
	return int64(len(r.revisions)), nil
}

type memFileRepo struct {
	nextID uint
	assets map[uint]*models.FileAsset
}

var _ repository.FileRepository = (*memFileRepo)(nil)

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{assets: make(map[uint]*models.FileAsset)}
}

func (r *memFileRepo) Create(asset *models.FileAsset) error {
	r.nextID++
	asset.ID = r.nextID
	asset.CreatedAt = time.Now()
	stored := *asset
	r.assets[asset.ID] = &stored
	return nil
}

func (r *memFileRepo) Update(asset *models.FileAsset) error {
	if _, ok := r.assets[asset.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *asset
	r.assets[asset.ID] = &stored
	return nil
}

func (r *memFileRepo) Delete(id uint) error {
	delete(r.assets, id)
	return nil
}

func (r *memFileRepo) GetByPageID(pageID uint) (*models.FileAsset, error) {
	for _, asset := range r.assets {
		if asset.PageID == pageID {
			found := *asset
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memFileRepo) ExistsForPage(pageID uint) (bool, error) {
	_, err := r.GetByPageID(pageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *memFileRepo) List(limit, offset int) ([]models.FileAsset, error) {
	var assets []models.FileAsset
	for _, asset := range r.assets {
		assets = append(assets, *asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID > assets[j].ID })
	if offset >= len(assets) {
		return nil, nil
	}
	assets = assets[offset:]
	if limit > 0 && limit < len(assets) {
		assets = assets[:limit]
	}
	return assets, nil
}

func (r *memFileRepo) Count() (int64, error) {
	return int64(len(r.assets)), nil
}

func (r *memFileRepo) CountByMajor(major string) (int64, error) {
	var count int64
	for _, asset := range r.assets {
		if asset.MimeMajor == major {
			count++
		}
	}
	return count, nil
}

type memPluginRepo struct {
	nextID  uint
	records map[string]*models.Plugin
}

var _ repository.PluginRepository = (*memPluginRepo)(nil)

func newMemPluginRepo() *memPluginRepo {
	return &memPluginRepo{records: make(map[string]*models.Plugin)}
}

func (r *memPluginRepo) List() ([]models.Plugin, error) {
	var plugins []models.Plugin
	for _, record := range r.records {
		plugins = append(plugins, *record)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Slug < plugins[j].Slug })
	return plugins, nil
}

func (r *memPluginRepo) GetBySlug(slug string) (*models.Plugin, error) {
	record, ok := r.records[slug]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *record
	return &found, nil
}

func (r *memPluginRepo) Save(plugin *models.Plugin) error {
	if plugin.ID == 0 {
		r.nextID++
		plugin.ID = r.nextID
	}
	stored := *plugin
	r.records[plugin.Slug] = &stored
	return nil
}

// fakeParserCache records stores so tests can assert cache-aside
// behavior without Redis.
type fakeParserCache struct {
	entries     map[string]string
	stores      int
	invalidated []uint
}

var _ parserCache = (*fakeParserCache)(nil)

func newFakeParserCache() *fakeParserCache {
	return &fakeParserCache{entries: make(map[string]string)}
}

func (c *fakeParserCache) key(pageID, revisionID uint) string {
	return fmt.Sprintf("%d:%d", pageID, revisionID)
}

func (c *fakeParserCache) GetCachedRenderedPage(pageID, revisionID uint, dest *string) error {
	html, ok := c.entries[c.key(pageID, revisionID)]
	if !ok {
		return errors.New("key not found")
	}
	*dest = html
	return nil
}

func (c *fakeParserCache) CacheRenderedPage(pageID, revisionID uint, html string, _ time.Duration) error {
	c.entries[c.key(pageID, revisionID)] = html
	c.stores++
	return nil
}

func (c *fakeParserCache) InvalidateRenderedPage(pageID uint) error {
	c.invalidated = append(c.invalidated, pageID)
	prefix := fmt.Sprintf("%d:", pageID)
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
	return nil
}

type fakeRuntime struct {
	active map[string]bool
	fail   map[string]error
}

var _ PluginRuntime = (*fakeRuntime)(nil)

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{active: make(map[string]bool), fail: make(map[string]error)}
}

func (r *fakeRuntime) Activate(slug string) error {
	if err := r.fail[slug]; err != nil {
		return err
	}
	r.active[slug] = true
	return nil
}

func (r *fakeRuntime) Deactivate(slug string) error {
	if err := r.fail[slug]; err != nil {
		return err
	}
	r.active[slug] = false
	return nil
}

func (r *fakeRuntime) IsActive(slug string) bool {
	return r.active[slug]
}

type fakeFileSource struct {
	urls map[string]string
}

func (f *fakeFileSource) URLFor(t title.Title) (string, bool) {
	url, ok := f.urls[t.PrefixedText()]
	return url, ok
}
