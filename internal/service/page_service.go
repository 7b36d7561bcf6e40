package service

import (
	"errors"
	"math/rand"
	"regexp"

	"gorm.io/gorm"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/repository"
	"lorewiki-backend/internal/title"
	"lorewiki-backend/pkg/cache"
	"lorewiki-backend/pkg/logger"
)

// redirectPattern recognizes a redirect page by its first directive.
var redirectPattern = regexp.MustCompile(`(?i)^\s*#REDIRECT\s*\[\[`)

type PageService struct {
	pageRepo     repository.PageRepository
	revisionRepo repository.RevisionRepository
	cache        *cache.Cache

	// randomKey draws the random sort key for new pages; a field so
	// tests can pin it.
	randomKey func() float64
}

func NewPageService(pageRepo repository.PageRepository, revisionRepo repository.RevisionRepository, c *cache.Cache) *PageService {
	return &PageService{
		pageRepo:     pageRepo,
		revisionRepo: revisionRepo,
		cache:        c,
		randomKey:    rand.Float64,
	}
}

func (s *PageService) Create(req models.CreatePageRequest, authorID uint) (*models.PageDetail, error) {
	t, err := title.Parse(req.Title)
	if err != nil {
		return nil, err
	}

	exists, err := s.pageRepo.ExistsByTitle(t)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New("page already exists")
	}

	page := &models.Page{
		Namespace:  int(t.Namespace()),
		Title:      t.DBKey(),
		IsRedirect: redirectPattern.MatchString(req.Content),
		RandomKey:  s.randomKey(),
	}
	if err := s.pageRepo.Create(page); err != nil {
		return nil, err
	}

	revision := &models.Revision{
		PageID:   page.ID,
		AuthorID: authorID,
		Summary:  req.Summary,
		Content:  req.Content,
	}
	if err := s.revisionRepo.Create(revision); err != nil {
		return nil, err
	}

	return &models.PageDetail{Page: *page, Revision: revision, Prefixed: t.PrefixedText()}, nil
}

// Edit appends a revision. The page row is touched so redirect state
// follows the new content, and both caches are invalidated.
func (s *PageService) Edit(id uint, req models.UpdatePageRequest, authorID uint) (*models.PageDetail, error) {
	page, err := s.pageRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	revision := &models.Revision{
		PageID:   page.ID,
		AuthorID: authorID,
		Summary:  req.Summary,
		Content:  req.Content,
	}
	if err := s.revisionRepo.Create(revision); err != nil {
		return nil, err
	}

	page.IsRedirect = redirectPattern.MatchString(req.Content)
	if err := s.pageRepo.Update(page); err != nil {
		return nil, err
	}

	s.invalidate(page)

	t, err := title.FromDBKey(title.Namespace(page.Namespace), page.Title)
	if err != nil {
		return nil, err
	}
	return &models.PageDetail{Page: *page, Revision: revision, Prefixed: t.PrefixedText()}, nil
}

func (s *PageService) GetByID(id uint) (*models.PageDetail, error) {
	page, err := s.pageRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.detail(page)
}

func (s *PageService) GetByTitle(t title.Title) (*models.PageDetail, error) {
	var cached models.PageDetail
	if err := s.cache.GetCachedPageDetail(int(t.Namespace()), t.DBKey(), &cached); err == nil {
		return &cached, nil
	}

	page, err := s.pageRepo.GetByTitle(t)
	if err != nil {
		return nil, err
	}

	detail, err := s.detail(page)
	if err != nil {
		return nil, err
	}

	if err := s.cache.CachePageDetail(page.Namespace, page.Title, detail); err != nil {
		logger.Debug("Failed to cache page detail", map[string]interface{}{"page_id": page.ID, "error": err.Error()})
	}
	return detail, nil
}

func (s *PageService) Delete(id uint) error {
	page, err := s.pageRepo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.pageRepo.Delete(id); err != nil {
		return err
	}

	s.invalidate(page)
	return nil
}

func (s *PageService) ListNamespace(ns title.Namespace, limit, offset int) ([]models.Page, int64, error) {
	pages, err := s.pageRepo.ListByNamespace(ns, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.pageRepo.CountByNamespace(ns)
	if err != nil {
		return nil, 0, err
	}
	return pages, total, nil
}

func (s *PageService) Revisions(pageID uint, limit, offset int) ([]models.Revision, int64, error) {
	if _, err := s.pageRepo.GetByID(pageID); err != nil {
		return nil, 0, err
	}

	revisions, err := s.revisionRepo.ListByPageID(pageID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.revisionRepo.CountByPageID(pageID)
	if err != nil {
		return nil, 0, err
	}
	return revisions, total, nil
}

func (s *PageService) detail(page *models.Page) (*models.PageDetail, error) {
	t, err := title.FromDBKey(title.Namespace(page.Namespace), page.Title)
	if err != nil {
		return nil, err
	}

	detail := &models.PageDetail{Page: *page, Prefixed: t.PrefixedText()}

	revision, err := s.revisionRepo.CurrentByPageID(page.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return detail, nil
	}
	detail.Revision = revision
	return detail, nil
}

func (s *PageService) invalidate(page *models.Page) {
	if err := s.cache.InvalidatePageDetail(page.Namespace, page.Title); err != nil {
		logger.Debug("Failed to invalidate page detail", map[string]interface{}{"page_id": page.ID, "error": err.Error()})
	}
	if err := s.cache.InvalidateRenderedPage(page.ID); err != nil {
		logger.Debug("Failed to invalidate rendered page", map[string]interface{}{"page_id": page.ID, "error": err.Error()})
	}
}
