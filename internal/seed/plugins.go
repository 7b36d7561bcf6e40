package seed

import (
	"errors"

	"gorm.io/gorm"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/repository"
	"lorewiki-backend/pkg/logger"
)

// defaultActivePlugins ship enabled on a fresh wiki. Existing records are
// left alone so an admin's deactivation survives restarts.
var defaultActivePlugins = []models.Plugin{
	{Slug: "randomimage", Name: "Random Image", Version: "1.0.0", Active: true},
}

func EnsureDefaultPlugins(pluginRepo repository.PluginRepository) {
	if pluginRepo == nil {
		return
	}

	for _, plugin := range defaultActivePlugins {
		_, err := pluginRepo.GetBySlug(plugin.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error(err, "Failed to verify default plugin", map[string]interface{}{"slug": plugin.Slug})
			continue
		}

		record := plugin
		if err := pluginRepo.Save(&record); err != nil {
			logger.Error(err, "Failed to seed default plugin", map[string]interface{}{"slug": plugin.Slug})
			continue
		}
		logger.Info("Ensured default plugin", map[string]interface{}{"slug": plugin.Slug, "active": plugin.Active})
	}
}
