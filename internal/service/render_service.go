package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/render"
	"lorewiki-backend/internal/repository"
	"lorewiki-backend/internal/title"
	"lorewiki-backend/pkg/cache"
	"lorewiki-backend/pkg/logger"
)

// parserCache is the slice of pkg/cache the render service uses; a fake
// stands in for Redis in tests.
type parserCache interface {
	GetCachedRenderedPage(pageID, revisionID uint, dest *string) error
	CacheRenderedPage(pageID, revisionID uint, html string, ttl time.Duration) error
	InvalidateRenderedPage(pageID uint) error
}

var _ parserCache = (*cache.Cache)(nil)

// RenderedPage is a finished page render plus the identifiers callers
// need for cache headers.
type RenderedPage struct {
	PageID     uint   `json:"page_id"`
	RevisionID uint   `json:"revision_id"`
	Title      string `json:"title"`
	HTML       string `json:"html"`
	NoCache    bool   `json:"no_cache"`
}

type RenderService struct {
	renderer     *render.Renderer
	cache        parserCache
	pageRepo     repository.PageRepository
	revisionRepo repository.RevisionRepository
	ttl          time.Duration
}

func NewRenderService(renderer *render.Renderer, parserCache parserCache, pageRepo repository.PageRepository, revisionRepo repository.RevisionRepository, ttl time.Duration) *RenderService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RenderService{
		renderer:     renderer,
		cache:        parserCache,
		pageRepo:     pageRepo,
		revisionRepo: revisionRepo,
		ttl:          ttl,
	}
}

// RenderPageByTitle renders the current revision of a page. Output is
// served from the parser cache when possible; renders that any hook
// marked uncacheable are returned but never stored.
func (s *RenderService) RenderPageByTitle(ctx context.Context, t title.Title) (*RenderedPage, error) {
	page, err := s.pageRepo.GetByTitle(t)
	if err != nil {
		return nil, err
	}
	return s.renderPage(ctx, page)
}

// RenderPageByID is RenderPageByTitle for callers that already hold an id.
func (s *RenderService) RenderPageByID(ctx context.Context, id uint) (*RenderedPage, error) {
	page, err := s.pageRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.renderPage(ctx, page)
}

func (s *RenderService) renderPage(ctx context.Context, page *models.Page) (*RenderedPage, error) {
	t, err := title.FromDBKey(title.Namespace(page.Namespace), page.Title)
	if err != nil {
		return nil, err
	}

	revision, err := s.revisionRepo.CurrentByPageID(page.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &RenderedPage{PageID: page.ID, Title: t.PrefixedText()}, nil
		}
		return nil, err
	}

	rendered := &RenderedPage{
		PageID:     page.ID,
		RevisionID: revision.ID,
		Title:      t.PrefixedText(),
	}

	var cached string
	if err := s.cache.GetCachedRenderedPage(page.ID, revision.ID, &cached); err == nil {
		rendered.HTML = cached
		return rendered, nil
	}

	result, err := s.renderer.Render(ctx, revision.Content)
	if err != nil {
		return nil, err
	}
	rendered.HTML = result.HTML
	rendered.NoCache = result.NoCache

	if !result.NoCache {
		if err := s.cache.CacheRenderedPage(page.ID, revision.ID, result.HTML, s.ttl); err != nil {
			logger.Debug("Parser cache store failed", map[string]interface{}{"page_id": page.ID, "error": err.Error()})
		}
	}
	return rendered, nil
}

// RenderPreview runs arbitrary markup through the pipeline without
// touching the parser cache.
func (s *RenderService) RenderPreview(ctx context.Context, source string) (render.Result, error) {
	return s.renderer.Render(ctx, source)
}

// InvalidatePage drops every cached render of a page.
func (s *RenderService) InvalidatePage(pageID uint) {
	if err := s.cache.InvalidateRenderedPage(pageID); err != nil {
		logger.Debug("Parser cache purge failed", map[string]interface{}{"page_id": pageID, "error": err.Error()})
	}
}
