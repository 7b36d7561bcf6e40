package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

const (
	authTokenCookieName = "auth_token"
	csrfTokenCookieName = "csrf_token"
	authTokenTTLSeconds = 72 * 60 * 60
	csrfTokenBytes      = 32
)

// cookieConfig holds cookie configuration
type cookieConfig struct {
	name     string
	value    string
	maxAge   int
	httpOnly bool
}

func generateCSRFToken() (string, error) {
	token := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(token), nil
}

// setCookie is a unified method for setting cookies with proper security settings
func (h *AuthHandler) setCookie(c *gin.Context, cfg cookieConfig) {
	secure := c.Request.TLS != nil
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cfg.name, cfg.value, cfg.maxAge, "/", "", secure, cfg.httpOnly)
}

func (h *AuthHandler) setAuthCookie(c *gin.Context, token string, maxAge int) {
	h.setCookie(c, cookieConfig{
		name:     authTokenCookieName,
		value:    token,
		maxAge:   maxAge,
		httpOnly: true,
	})
}

func (h *AuthHandler) setCSRFCookie(c *gin.Context, token string, maxAge int) {
	h.setCookie(c, cookieConfig{
		name:     csrfTokenCookieName,
		value:    token,
		maxAge:   maxAge,
		httpOnly: false,
	})
}

func (h *AuthHandler) clearAuthCookie(c *gin.Context) {
	h.setCookie(c, cookieConfig{
		name:     authTokenCookieName,
		value:    "",
		maxAge:   -1,
		httpOnly: true,
	})
}

func (h *AuthHandler) clearCSRFCookie(c *gin.Context) {
	h.setCookie(c, cookieConfig{
		name:     csrfTokenCookieName,
		value:    "",
		maxAge:   -1,
		httpOnly: false,
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.authService.Login(req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	csrfToken, err := generateCSRFToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate CSRF token"})
		return
	}

	h.setAuthCookie(c, token, authTokenTTLSeconds)
	h.setCSRFCookie(c, csrfToken, authTokenTTLSeconds)

	c.JSON(http.StatusOK, models.AuthResponse{
		Token:     token,
		User:      *user,
		CSRFToken: csrfToken,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearAuthCookie(c)
	h.clearCSRFCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	user, err := h.authService.GetUserByID(userID.(uint))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=12,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ChangePassword(userID.(uint), req.OldPassword, req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed successfully"})
}
