package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/auth"
	"github.com/exortc/server/internal/domain"
	"github.com/exortc/server/internal/store"
)

type AuthHandler struct {
	DB     *store.DB
	Tokens *auth.Tokens
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username, email, and password are required"})
		return
	}
	if len(req.Password) < auth.MinPasswordLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}

	user, err := domain.NewUser(req.Username, req.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Str("module", "http").Msg("hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	user.PasswordHash = hash

	if err := h.DB.CreateUser(c.Request.Context(), user); err != nil {
		respondErr(c, err)
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("module", "http").Msg("issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username/email and password are required"})
		return
	}

	user, err := h.DB.UserByLogin(c.Request.Context(), req.Username)
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("module", "http").Msg("issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}

func (h *AuthHandler) UpdateColor(c *gin.Context) {
	var req struct {
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Color == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Color is required"})
		return
	}
	user := currentUser(c)
	if err := h.DB.UpdateProfileColor(c.Request.Context(), user.ID, req.Color); err != nil {
		respondErr(c, err)
		return
	}
	user.ProfileColor = req.Color
	c.JSON(http.StatusOK, gin.H{"user": user})
}
