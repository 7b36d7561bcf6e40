package service

import (
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/repository"
	"lorewiki-backend/pkg/logger"
)

// PluginRuntime starts and stops compiled-in plugin features. The
// concrete runtime lives in internal/plugin/runtime; the service only
// needs this slice of it.
type PluginRuntime interface {
	Activate(slug string) error
	Deactivate(slug string) error
	IsActive(slug string) bool
}

var (
	ErrPluginUnknown = errors.New("plugin is not registered in this build")
)

// PluginStatus merges the stored record with the live runtime state.
// Registered means the binary carries the plugin; Running means its
// feature is currently active.
type PluginStatus struct {
	models.Plugin
	Registered bool `json:"registered"`
	Running    bool `json:"running"`
}

type PluginService struct {
	repo    repository.PluginRepository
	runtime PluginRuntime
	catalog func() []string
}

// NewPluginService wires the stored plugin records to the runtime.
// catalog lists the slugs compiled into this binary.
func NewPluginService(repo repository.PluginRepository, runtime PluginRuntime, catalog func() []string) *PluginService {
	if catalog == nil {
		catalog = func() []string { return nil }
	}
	return &PluginService{repo: repo, runtime: runtime, catalog: catalog}
}

// List reconciles the compiled-in catalog with the stored records.
// Registered plugins without a record appear inactive; records for
// plugins no longer in the build are kept so their state survives.
func (s *PluginService) List() ([]PluginStatus, error) {
	records, err := s.repo.List()
	if err != nil {
		return nil, err
	}

	bySlug := make(map[string]models.Plugin, len(records))
	for _, record := range records {
		bySlug[record.Slug] = record
	}

	seen := make(map[string]bool)
	statuses := make([]PluginStatus, 0, len(records))
	for _, slug := range s.catalog() {
		status := PluginStatus{Registered: true, Running: s.runtime.IsActive(slug)}
		if record, ok := bySlug[slug]; ok {
			status.Plugin = record
		} else {
			status.Plugin = models.Plugin{Slug: slug}
		}
		statuses = append(statuses, status)
		seen[slug] = true
	}

	for _, record := range records {
		if seen[record.Slug] {
			continue
		}
		statuses = append(statuses, PluginStatus{Plugin: record})
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Slug < statuses[j].Slug })
	return statuses, nil
}

// Activate starts a registered plugin and persists the new state. The
// stored record is created on first activation.
func (s *PluginService) Activate(slug string) (*PluginStatus, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !s.registered(slug) {
		return nil, ErrPluginUnknown
	}

	if err := s.runtime.Activate(slug); err != nil {
		return nil, err
	}

	record, err := s.repo.GetBySlug(slug)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		record = &models.Plugin{Slug: slug}
	}

	now := time.Now().UTC()
	record.Active = true
	record.LastActivatedAt = &now
	if err := s.repo.Save(record); err != nil {
		return nil, err
	}

	logger.Info("Plugin activated", map[string]interface{}{"slug": slug})
	return &PluginStatus{Plugin: *record, Registered: true, Running: true}, nil
}

// Deactivate stops a running plugin and persists the new state.
func (s *PluginService) Deactivate(slug string) (*PluginStatus, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !s.registered(slug) {
		return nil, ErrPluginUnknown
	}

	if err := s.runtime.Deactivate(slug); err != nil {
		return nil, err
	}

	record, err := s.repo.GetBySlug(slug)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		record = &models.Plugin{Slug: slug}
	}

	record.Active = false
	if err := s.repo.Save(record); err != nil {
		return nil, err
	}

	logger.Info("Plugin deactivated", map[string]interface{}{"slug": slug})
	return &PluginStatus{Plugin: *record, Registered: true, Running: false}, nil
}

// ActivateStored starts every plugin whose record says it should be
// running. Called once at boot, after the registry factories ran. A
// plugin that fails to start is logged and skipped so the rest of the
// application still comes up.
func (s *PluginService) ActivateStored() error {
	records, err := s.repo.List()
	if err != nil {
		return err
	}

	for _, record := range records {
		if !record.Active || !s.registered(record.Slug) {
			continue
		}
		if err := s.runtime.Activate(record.Slug); err != nil {
			logger.Error(err, "Plugin failed to activate at boot", map[string]interface{}{"slug": record.Slug})
		}
	}
	return nil
}

// IsActive reports live runtime state.
func (s *PluginService) IsActive(slug string) bool {
	return s.runtime.IsActive(strings.ToLower(strings.TrimSpace(slug)))
}

func (s *PluginService) registered(slug string) bool {
	for _, known := range s.catalog() {
		if known == slug {
			return true
		}
	}
	return false
}
