package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lorewiki-backend/internal/render"
	riservice "lorewiki-backend/plugins/randomimage/service"
)

// PreviewRenderer runs markup through the page render pipeline without
// the parser cache.
type PreviewRenderer interface {
	RenderPreview(ctx context.Context, source string) (render.Result, error)
}

// FragmentHandler serves a freshly picked random image as an HTML
// fragment. The handler outlives the plugin so its routes stay mounted;
// activation swaps the service in, deactivation swaps it out.
type FragmentHandler struct {
	renderer PreviewRenderer
	service  *riservice.Service
}

func NewFragmentHandler(renderer PreviewRenderer) *FragmentHandler {
	return &FragmentHandler{renderer: renderer}
}

func (h *FragmentHandler) SetService(service *riservice.Service) {
	if h == nil {
		return
	}
	h.service = service
}

func (h *FragmentHandler) ensureService(c *gin.Context) bool {
	if h == nil || h.service == nil {
		if c != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "random image plugin is not active"})
		}
		return false
	}
	return true
}

// Render handles GET /fragments/randomimage. Query parameters mirror
// the tag attributes: size, float, choices and an optional caption.
func (h *FragmentHandler) Render(c *gin.Context) {
	if !h.ensureService(c) {
		return
	}

	source := buildTagSource(
		c.Query("size"),
		c.Query("float"),
		c.Query("choices"),
		c.Query("caption"),
	)

	result, err := h.renderer.RenderPreview(c.Request.Context(), source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render fragment"})
		return
	}

	// Every response picks anew; caching one would freeze the choice.
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"html": result.HTML})
}

// buildTagSource reassembles the tag from query parameters. Values are
// stripped of markup-significant characters so they cannot open or
// close tags of their own.
func buildTagSource(size, float, choices, caption string) string {
	var b strings.Builder
	b.WriteString("<randomimage")
	writeAttr(&b, "size", size)
	writeAttr(&b, "float", float)
	writeAttr(&b, "choices", choices)

	if caption = cleanValue(caption); caption == "" {
		b.WriteString("/>")
		return b.String()
	}

	b.WriteString(">")
	b.WriteString(caption)
	b.WriteString("</randomimage>")
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	if value = cleanValue(value); value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(value)
	b.WriteString(`"`)
}

func cleanValue(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '<', '>':
			return -1
		}
		return r
	}, strings.TrimSpace(value))
}
