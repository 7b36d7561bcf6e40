package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lorewiki-backend/pkg/cache"
)

func ClearCache(cacheService *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		cacheType := c.DefaultQuery("type", "all")

		var err error

		switch cacheType {
		case "render":
			err = cacheService.InvalidateRenderCache()
		case "pages":
			err = cacheService.DeletePattern("page:*")
		case "all":
			err = cacheService.FlushAll()
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cache type"})
			return
		}

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "cache cleared successfully",
			"type":    cacheType,
		})
	}
}
