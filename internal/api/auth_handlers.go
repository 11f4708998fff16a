// Package api - Authentication handlers
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/arvena/talentd/internal/apperr"
	"github.com/arvena/talentd/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// loginLimiter throttles login attempts per IP+email key with a token
// bucket. Buckets refill slowly so a burst of bad passwords locks the key
// out for a while.
type loginLimiter struct {
	mu      sync.Mutex
	buckets map[string]*loginBucket
}

type loginBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLoginLimiter() *loginLimiter {
	l := &loginLimiter{buckets: make(map[string]*loginBucket)}
	go l.cleanupLoop()
	return l
}

// Allow permits 5 burst attempts refilling at one per minute
func (l *loginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &loginBucket{limiter: rate.NewLimiter(rate.Every(time.Minute), 5)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

// Reset clears the bucket on successful login
func (l *loginLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (l *loginLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		stale := time.Now().Add(-30 * time.Minute)
		for key, b := range l.buckets {
			if b.lastSeen.Before(stale) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	db          *gorm.DB
	jwtService  *auth.JWTService
	roleService *auth.RoleService
	limiter     *loginLimiter
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		db:          db,
		jwtService:  jwtService,
		roleService: auth.NewRoleService(db),
		limiter:     newLoginLimiter(),
	}
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	TenantID string `json:"tenant_id" binding:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserResponse represents user data in responses (without password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsActive  bool      `json:"is_active"`
}

// Login authenticates a user and returns tokens
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	key := c.ClientIP() + ":" + req.Email
	if !h.limiter.Allow(key) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	tid, err := uuid.Parse(req.TenantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
		return
	}

	var user struct {
		ID           uuid.UUID
		TenantID     uuid.UUID
		Email        string
		PasswordHash string
		FirstName    string
		LastName     string
		IsActive     bool
	}
	err = h.db.Table("users").
		Where("email = ? AND tenant_id = ?", req.Email, tid).
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		} else {
			respondError(c, apperr.NewInternalError(err))
		}
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account is disabled"})
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	h.limiter.Reset(key)

	roles, err := h.roleService.GetUserRoles(user.TenantID, user.ID)
	if err != nil {
		respondError(c, apperr.NewInternalError(err))
		return
	}

	tokens, err := h.jwtService.GenerateTokenPair(user.ID, user.TenantID, user.Email, roles)
	if err != nil {
		respondError(c, apperr.NewInternalError(err))
		return
	}

	h.db.Table("users").Where("id = ?", user.ID).Update("last_login_at", gorm.Expr("CURRENT_TIMESTAMP"))

	c.JSON(http.StatusOK, gin.H{
		"user": UserResponse{
			ID:        user.ID,
			TenantID:  user.TenantID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			IsActive:  user.IsActive,
		},
		"tokens": tokens,
		"roles":  roles,
	})
}

// RefreshToken exchanges a refresh token for a new token pair
// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	claims, err := h.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	roles, err := h.roleService.GetUserRoles(claims.TenantID, claims.UserID)
	if err != nil {
		respondError(c, apperr.NewInternalError(err))
		return
	}

	tokens, err := h.jwtService.RefreshAccessToken(req.RefreshToken, claims.Email, roles)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// GetMe returns the authenticated user's profile and roles
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	claims := c.MustGet(ctxClaims).(*auth.Claims)

	var user struct {
		ID        uuid.UUID
		TenantID  uuid.UUID
		Email     string
		FirstName string
		LastName  string
		IsActive  bool
	}
	if err := h.db.Table("users").Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		notFoundOr(c, err, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": UserResponse{
			ID:        user.ID,
			TenantID:  user.TenantID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			IsActive:  user.IsActive,
		},
		"roles": claims.Roles,
	})
}
