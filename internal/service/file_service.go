package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/render"
	"lorewiki-backend/internal/repository"
	"lorewiki-backend/internal/title"
	"lorewiki-backend/pkg/logger"
	"lorewiki-backend/pkg/utils"
	"lorewiki-backend/pkg/validator"
)

const uploadsURLPrefix = "/uploads/"

type FileService struct {
	pageRepo     repository.PageRepository
	fileRepo     repository.FileRepository
	revisionRepo repository.RevisionRepository
	uploadDir    string
	maxSize      int64

	randomKey func() float64
}

var _ render.FileSource = (*FileService)(nil)

func NewFileService(pageRepo repository.PageRepository, fileRepo repository.FileRepository, revisionRepo repository.RevisionRepository, uploadDir string, maxSize int64, randomKey func() float64) *FileService {
	if randomKey == nil {
		randomKey = rand.Float64
	}
	return &FileService{
		pageRepo:     pageRepo,
		fileRepo:     fileRepo,
		revisionRepo: revisionRepo,
		uploadDir:    uploadDir,
		maxSize:      maxSize,
		randomKey:    randomKey,
	}
}

// Upload stores a new file and creates its File-namespace page with the
// description as the first revision. The declared content type is
// ignored; the stored MIME comes from sniffing the bytes.
func (s *FileService) Upload(filename string, data []byte, description string, uploaderID uint) (*models.FileAsset, error) {
	if !validator.ValidateFileSize(int64(len(data)), s.maxSize) {
		return nil, errors.New("file size is invalid")
	}

	detected := validator.DetectFileType(data)
	if detected == "" || !validator.ValidateUploadContentType(detected) {
		return nil, errors.New("unsupported file type")
	}

	t, err := title.New(title.NamespaceFile, filename)
	if err != nil {
		return nil, fmt.Errorf("unusable file name: %w", err)
	}

	exists, err := s.pageRepo.ExistsByTitle(t)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.New("a file with this name already exists")
	}

	storedName := s.buildStoredName(filename)
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(s.uploadDir, storedName), data, 0o644); err != nil {
		return nil, err
	}

	page := &models.Page{
		Namespace: int(title.NamespaceFile),
		Title:     t.DBKey(),
		RandomKey: s.randomKey(),
	}
	if err := s.pageRepo.Create(page); err != nil {
		return nil, err
	}

	revision := &models.Revision{
		PageID:   page.ID,
		AuthorID: uploaderID,
		Summary:  "Initial upload",
		Content:  description,
	}
	if err := s.revisionRepo.Create(revision); err != nil {
		return nil, err
	}

	width, height := imageDimensions(data)
	asset := &models.FileAsset{
		PageID:     page.ID,
		StoredName: storedName,
		MimeType:   detected,
		MimeMajor:  validator.MajorType(detected),
		Size:       int64(len(data)),
		Width:      width,
		Height:     height,
		UploaderID: uploaderID,
	}
	if err := s.fileRepo.Create(asset); err != nil {
		return nil, err
	}

	logger.Info("File uploaded", map[string]interface{}{
		"title": t.PrefixedText(),
		"mime":  detected,
		"size":  asset.Size,
	})
	return asset, nil
}

// URLFor resolves a File title to a servable URL. File pages without a
// stored asset serve a generated placeholder; unknown titles report
// false so callers can fall back to a link.
func (s *FileService) URLFor(t title.Title) (string, bool) {
	if t.Namespace() != title.NamespaceFile {
		return "", false
	}

	page, err := s.pageRepo.GetByTitle(t)
	if err != nil {
		return "", false
	}

	asset, err := s.fileRepo.GetByPageID(page.ID)
	if err == nil {
		return uploadsURLPrefix + asset.StoredName, true
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false
	}

	url, err := s.EnsurePlaceholder(t)
	if err != nil || url == "" {
		logger.Debug("Placeholder unavailable", map[string]interface{}{"title": t.PrefixedText()})
		return "", false
	}
	return url, true
}

// AssetForTitle returns the stored asset backing a File page, if any.
func (s *FileService) AssetForTitle(t title.Title) (*models.FileAsset, error) {
	page, err := s.pageRepo.GetByTitle(t)
	if err != nil {
		return nil, err
	}
	return s.fileRepo.GetByPageID(page.ID)
}

func (s *FileService) List(limit, offset int) ([]models.FileAsset, int64, error) {
	assets, err := s.fileRepo.List(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.fileRepo.Count()
	if err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

// buildStoredName keeps the sluggified base name recognizable and appends
// a short unique suffix so re-uploads after deletion never collide.
func (s *FileService) buildStoredName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := utils.GenerateSlug(strings.TrimSuffix(filename, filepath.Ext(filename)))
	suffix := uuid.NewString()[:8]
	if base == "" {
		return suffix + ext
	}
	return base + "-" + suffix + ext
}

func imageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
