package repository

import (
	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/title"

	"gorm.io/gorm"
)

type PageRepository interface {
	Create(page *models.Page) error
	Update(page *models.Page) error
	Delete(id uint) error
	GetByID(id uint) (*models.Page, error)
	GetByTitle(t title.Title) (*models.Page, error)
	ExistsByTitle(t title.Title) (bool, error)
	ListByNamespace(ns title.Namespace, limit, offset int) ([]models.Page, error)
	CountByNamespace(ns title.Namespace) (int64, error)
	Count() (int64, error)
	RandomInNamespace(ns title.Namespace, threshold float64, imageOnly bool) (*models.Page, error)
	UpdateRandomKey(id uint, key float64) error
	ListZeroRandomKeys(limit int) ([]models.Page, error)
}

type pageRepository struct {
	db *gorm.DB
}

func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) Create(page *models.Page) error {
	return r.db.Create(page).Error
}

func (r *pageRepository) Update(page *models.Page) error {
	return r.db.Save(page).Error
}

func (r *pageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Page{}, id).Error
}

func (r *pageRepository) GetByID(id uint) (*models.Page, error) {
	var page models.Page
	err := r.db.First(&page, id).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) GetByTitle(t title.Title) (*models.Page, error) {
	var page models.Page
	err := r.db.Where("namespace = ? AND title = ?", int(t.Namespace()), t.DBKey()).First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) ExistsByTitle(t title.Title) (bool, error) {
	var count int64
	err := r.db.Model(&models.Page{}).
		Where("namespace = ? AND title = ?", int(t.Namespace()), t.DBKey()).
		Count(&count).Error
	return count > 0, err
}

func (r *pageRepository) ListByNamespace(ns title.Namespace, limit, offset int) ([]models.Page, error) {
	var pages []models.Page
	err := r.db.Where("namespace = ?", int(ns)).
		Order("title").
		Limit(limit).
		Offset(offset).
		Find(&pages).Error
	return pages, err
}

func (r *pageRepository) CountByNamespace(ns title.Namespace) (int64, error) {
	var count int64
	err := r.db.Model(&models.Page{}).Where("namespace = ?", int(ns)).Count(&count).Error
	return count, err
}

func (r *pageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Page{}).Count(&count).Error
	return count, err
}

// RandomInNamespace returns the first non-redirect page whose random sort
// key lies strictly above threshold, scanning the key index in ascending
// order. With imageOnly it only considers pages backed by an image asset.
// A miss near the top of the key range is the caller's problem: retrying
// with a fresh threshold keeps the selection cheap and its distribution
// close enough to uniform.
func (r *pageRepository) RandomInNamespace(ns title.Namespace, threshold float64, imageOnly bool) (*models.Page, error) {
	query := r.db.
		Where("pages.namespace = ?", int(ns)).
		Where("pages.is_redirect = ?", false).
		Where("pages.random_key > ?", threshold)

	if imageOnly {
		query = query.
			Joins("JOIN file_assets ON file_assets.page_id = pages.id AND file_assets.deleted_at IS NULL").
			Where("file_assets.mime_major = ?", "image")
	}

	var page models.Page
	err := query.Order("pages.random_key").First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) UpdateRandomKey(id uint, key float64) error {
	return r.db.Model(&models.Page{}).Where("id = ?", id).Update("random_key", key).Error
}

// ListZeroRandomKeys finds pages whose sort key was never assigned;
// key zero is unreachable by the strict comparison in RandomInNamespace.
func (r *pageRepository) ListZeroRandomKeys(limit int) ([]models.Page, error) {
	var pages []models.Page
	err := r.db.Where("random_key = 0").Limit(limit).Find(&pages).Error
	return pages, err
}
