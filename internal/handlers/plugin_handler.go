package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lorewiki-backend/internal/service"
	"lorewiki-backend/pkg/logger"
)

type PluginHandler struct {
	service *service.PluginService
}

func NewPluginHandler(service *service.PluginService) *PluginHandler {
	return &PluginHandler{service: service}
}

func (h *PluginHandler) List(c *gin.Context) {
	if h == nil || h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "plugin service unavailable"})
		return
	}

	plugins, err := h.service.List()
	if err != nil {
		logger.Error(err, "Failed to list plugins", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plugins": plugins})
}

func (h *PluginHandler) Activate(c *gin.Context) {
	if h == nil || h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "plugin service unavailable"})
		return
	}

	slug := c.Param("slug")
	status, err := h.service.Activate(slug)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, service.ErrPluginUnknown) {
			code = http.StatusNotFound
		}
		logger.Error(err, "Failed to activate plugin", map[string]interface{}{"slug": slug})
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plugin": status})
}

func (h *PluginHandler) Deactivate(c *gin.Context) {
	if h == nil || h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "plugin service unavailable"})
		return
	}

	slug := c.Param("slug")
	status, err := h.service.Deactivate(slug)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, service.ErrPluginUnknown) {
			code = http.StatusNotFound
		}
		logger.Error(err, "Failed to deactivate plugin", map[string]interface{}{"slug": slug})
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plugin": status})
}
