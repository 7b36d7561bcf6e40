package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lorewiki-backend/internal/repository"
)

type SettingsHandler struct {
	settingRepo repository.SettingRepository
}

func NewSettingsHandler(settingRepo repository.SettingRepository) *SettingsHandler {
	return &SettingsHandler{settingRepo: settingRepo}
}

func (h *SettingsHandler) GetAll(c *gin.Context) {
	settings, err := h.settingRepo.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	values := make(map[string]string, len(settings))
	for _, setting := range settings {
		values[setting.Key] = setting.Value
	}

	c.JSON(http.StatusOK, gin.H{"settings": values})
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := strings.TrimSpace(req.Key)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	if err := h.settingRepo.Set(key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "setting updated successfully"})
}
