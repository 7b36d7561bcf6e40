package repository

import (
	"lorewiki-backend/internal/models"

	"gorm.io/gorm"
)

type RevisionRepository interface {
	Create(revision *models.Revision) error
	GetByID(id uint) (*models.Revision, error)
	CurrentByPageID(pageID uint) (*models.Revision, error)
	ListByPageID(pageID uint, limit, offset int) ([]models.Revision, error)
	CountByPageID(pageID uint) (int64, error)
	Count() (int64, error)
}

type revisionRepository struct {
	db *gorm.DB
}

func NewRevisionRepository(db *gorm.DB) RevisionRepository {
	return &revisionRepository{db: db}
}

func (r *revisionRepository) Create(revision *models.Revision) error {
	return r.db.Create(revision).Error
}

func (r *revisionRepository) GetByID(id uint) (*models.Revision, error) {
	var revision models.Revision
	err := r.db.First(&revision, id).Error
	if err != nil {
		return nil, err
	}
	return &revision, nil
}

// CurrentByPageID returns the newest revision; revisions are append-only
// so the highest id is the page's current content.
func (r *revisionRepository) CurrentByPageID(pageID uint) (*models.Revision, error) {
	var revision models.Revision
	err := r.db.Where("page_id = ?", pageID).Order("id DESC").First(&revision).Error
	if err != nil {
		return nil, err
	}
	return &revision, nil
}

func (r *revisionRepository) ListByPageID(pageID uint, limit, offset int) ([]models.Revision, error) {
	var revisions []models.Revision
	err := r.db.Where("page_id = ?", pageID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&revisions).Error
	return revisions, err
}

func (r *revisionRepository) CountByPageID(pageID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Revision{}).Where("page_id = ?", pageID).Count(&count).Error
	return count, err
}

func (r *revisionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Revision{}).Count(&count).Error
	return count, err
}
