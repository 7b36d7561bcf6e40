package repository

import (
	"lorewiki-backend/internal/models"

	"gorm.io/gorm"
)

type FileRepository interface {
	Create(asset *models.FileAsset) error
	Update(asset *models.FileAsset) error
	Delete(id uint) error
	GetByPageID(pageID uint) (*models.FileAsset, error)
	ExistsForPage(pageID uint) (bool, error)
	List(limit, offset int) ([]models.FileAsset, error)
	Count() (int64, error)
	CountByMajor(major string) (int64, error)
}

type fileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(asset *models.FileAsset) error {
	return r.db.Create(asset).Error
}

func (r *fileRepository) Update(asset *models.FileAsset) error {
	return r.db.Save(asset).Error
}

func (r *fileRepository) Delete(id uint) error {
	return r.db.Delete(&models.FileAsset{}, id).Error
}

func (r *fileRepository) GetByPageID(pageID uint) (*models.FileAsset, error) {
	var asset models.FileAsset
	err := r.db.Where("page_id = ?", pageID).First(&asset).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *fileRepository) ExistsForPage(pageID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.FileAsset{}).Where("page_id = ?", pageID).Count(&count).Error
	return count > 0, err
}

func (r *fileRepository) List(limit, offset int) ([]models.FileAsset, error) {
	var assets []models.FileAsset
	err := r.db.Order("id DESC").Limit(limit).Offset(offset).Find(&assets).Error
	return assets, err
}

func (r *fileRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.FileAsset{}).Count(&count).Error
	return count, err
}

func (r *fileRepository) CountByMajor(major string) (int64, error) {
	var count int64
	err := r.db.Model(&models.FileAsset{}).Where("mime_major = ?", major).Count(&count).Error
	return count, err
}
