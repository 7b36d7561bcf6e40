package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"lorewiki-backend/internal/service"
	"lorewiki-backend/internal/title"
)

type RenderHandler struct {
	renderService *service.RenderService
}

func NewRenderHandler(renderService *service.RenderService) *RenderHandler {
	return &RenderHandler{renderService: renderService}
}

// writeRendered emits a rendered page, marking it uncacheable downstream
// when a render hook asked for that.
func writeRendered(c *gin.Context, page *service.RenderedPage) {
	if page.NoCache {
		c.Header("Cache-Control", "no-store")
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

func (h *RenderHandler) GetByTitle(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("title"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	t, err := title.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.renderService.RenderPageByTitle(c.Request.Context(), t)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}

	writeRendered(c, page)
}

func (h *RenderHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page id"})
		return
	}

	page, err := h.renderService.RenderPageByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}

	writeRendered(c, page)
}

func (h *RenderHandler) Preview(c *gin.Context) {
	var req struct {
		Source string `json:"source" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.renderService.RenderPreview(c.Request.Context(), req.Source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"html": result.HTML})
}
