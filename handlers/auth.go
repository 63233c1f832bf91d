package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"safiri-mazao-api/middleware"
	"safiri-mazao-api/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler checks the single console credential and issues tokens
type AuthHandler struct {
	admin        models.AdminUser
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
}

// NewAuthHandler hashes the configured password once; only the hash is kept
func NewAuthHandler(email, password string, secret []byte, ttl time.Duration) (*AuthHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{
		admin: models.AdminUser{
			ID:    "admin-1",
			Name:  "Admin User",
			Email: strings.ToLower(email),
			Role:  models.RoleAdmin,
		},
		passwordHash: hash,
		secret:       secret,
		ttl:          ttl,
	}, nil
}

// Login authenticates the operator and returns a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(req.Email)), []byte(h.admin.Email)) == 1
	passErr := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password))
	if !emailOK || passErr != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := middleware.GenerateToken(h.admin, h.secret, h.ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    h.admin,
	})
}

// Profile returns the authenticated operator
func (h *AuthHandler) Profile(c *gin.Context) {
	if middleware.GetUserID(c) != h.admin.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": h.admin})
}
