package handler

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/R01085B-Limaylla/webContratos/config"
	"github.com/R01085B-Limaylla/webContratos/middleware"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Forbidden is the reply to a sign-in from outside the admin list
const Forbidden = "No tienes permiso para acceder."

type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{config: cfg}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Email     string `json:"email"`
}

// isAdmin checks the allow-list, ignoring case
func (h *AuthHandler) isAdmin(email string) bool {
	return slices.ContainsFunc(h.config.Admins, func(admin string) bool {
		return strings.EqualFold(admin, email)
	})
}

// Login handles admin sign-in. The token is returned in the body and set as
// a cookie for the listing page.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Solicitud inválida"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !h.isAdmin(email) {
		c.JSON(http.StatusForbidden, gin.H{"error": Forbidden})
		return
	}

	user := h.config.FindUser(email)
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Correo o contraseña incorrectos"})
		return
	}

	token, expiresAt, err := middleware.GenerateToken(email, &h.config.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, maxAge, "/", "", c.Request.TLS != nil, true)

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		Email:     email,
	})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"message": "Sesión cerrada"})
}

// GetCurrentUser returns the signed-in admin
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"email": middleware.GetUsername(c),
	})
}
