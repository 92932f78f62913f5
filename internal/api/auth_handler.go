package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumeBuilder/internal/api/middleware"
	"resumeBuilder/internal/auth"
	"resumeBuilder/internal/database"
)

const refreshTokenCookieName = "refresh_token"
const refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"

// Messages returned by the account endpoints.
const (
	MsgUserExists         = "User already exists"
	MsgInvalidCredentials = "Invalid credentials"
)

// AuthRedis 是认证流程用到的 Redis 子集：登录限流与刷新令牌黑名单。
type AuthRedis interface {
	loginCounter
	Get(ctx context.Context, key string) *redis.StringCmd
}

// AuthHandler 处理注册、登录、刷新与退出。
type AuthHandler struct {
	db           *gorm.DB
	authService  *auth.AuthService
	redis        AuthRedis
	logger       *slog.Logger
	guard        LoginGuard
	cookieSecure bool
}

// NewAuthHandler 构造认证处理器。
func NewAuthHandler(db *gorm.DB, authService *auth.AuthService, redisClient AuthRedis, logger *slog.Logger, guard LoginGuard, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		db:           db,
		authService:  authService,
		redis:        redisClient,
		logger:       logger,
		guard:        guard,
		cookieSecure: cookieSecure,
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=128"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type userResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int          `json:"expires_in"`
	User      userResponse `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserResponse(u database.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

// Register 创建账号并直接登录。
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	email := normalizeEmail(req.Email)
	logger := h.loggerFromContext(c).With(slog.String("email", email))

	var existing database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		logger.Info("register conflict: user already exists")
		BadRequest(c, MsgUserExists)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("register lookup failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		BadRequest(c, err.Error())
		return
	}
	if err != nil {
		logger.Error("hash password failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}

	user := database.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashed,
	}
	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			BadRequest(c, MsgUserExists)
			return
		}
		logger.Error("create user failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}

	logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	h.issueTokens(c, user, logger)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 校验口令并返回 Token。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	email := normalizeEmail(req.Email)
	logger := h.loggerFromContext(c).With(slog.String("email", email))

	if reason := h.guard.admit(ctx, h.redis, c.ClientIP(), email); reason != "" {
		logger.Info("login throttled", slog.String("reason", reason))
		Error(c, http.StatusTooManyRequests, reason)
		return
	}

	var user database.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("login failed: user not found")
			_ = h.guard.failed(ctx, h.redis, email)
			BadRequest(c, MsgInvalidCredentials)
			return
		}
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Info("login failed: password mismatch", slog.Uint64("user_id", uint64(user.ID)))
		_ = h.guard.failed(ctx, h.redis, email)
		BadRequest(c, MsgInvalidCredentials)
		return
	}

	h.guard.succeeded(ctx, h.redis, email)
	h.issueTokens(c, user, logger)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh 校验刷新令牌，旋转后颁发新的 TokenPair。
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	claims, key, ok := h.validRefreshClaims(c, logger)
	if !ok {
		Unauthorized(c, middleware.MsgInvalidToken)
		return
	}

	if err := h.redis.Get(ctx, key).Err(); err == nil {
		logger.Info("refresh token revoked", slog.String("jti", claims.ID))
		Unauthorized(c, middleware.MsgInvalidToken)
		return
	} else if !errors.Is(err, redis.Nil) {
		logger.Error("refresh token blacklist lookup failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}

	var user database.User
	if err := h.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		logger.Info("refresh user not found", slog.Any("error", err))
		Unauthorized(c, middleware.MsgInvalidToken)
		return
	}

	if err := h.revokeRefreshToken(ctx, key, claims.ExpiresAt); err != nil {
		logger.Error("refresh revoke old token failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}

	h.issueTokens(c, user, logger)
}

// Logout 将刷新令牌加入黑名单并清除 Cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	logger := h.loggerFromContext(c)

	claims, key, ok := h.validRefreshClaims(c, logger)
	if !ok {
		BadRequest(c, "Refresh token missing or invalid")
		return
	}

	if err := h.revokeRefreshToken(c.Request.Context(), key, claims.ExpiresAt); err != nil {
		logger.Error("logout revoke token failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   h.secureCookie(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.JSON(http.StatusOK, gin.H{"msg": "Logged out"})
}

// CurrentUser 返回当前登录用户，不含口令哈希。
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		Unauthorized(c, middleware.MsgNoToken)
		return
	}

	var user database.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "User not found")
			return
		}
		h.loggerFromContext(c).Error("load user failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) issueTokens(c *gin.Context, user database.User, logger *slog.Logger) {
	pair, err := h.authService.GenerateTokenPair(user.ID)
	if err != nil {
		logger.Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}

	maxAge := int(h.authService.TTL(auth.TokenTypeRefresh).Seconds())
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    pair.RefreshToken,
		MaxAge:   maxAge,
		Path:     "/",
		Secure:   h.secureCookie(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.authService.TTL(auth.TokenTypeRefresh)),
	})
	c.JSON(http.StatusOK, tokenResponse{
		Token:     pair.AccessToken,
		TokenType: "Bearer",
		ExpiresIn: int(h.authService.TTL(auth.TokenTypeAccess).Seconds()),
		User:      toUserResponse(user),
	})
}

// validRefreshClaims 读取 Cookie 或请求体中的刷新令牌并校验类型与 jti。
func (h *AuthHandler) validRefreshClaims(c *gin.Context, logger *slog.Logger) (*auth.TokenClaims, string, bool) {
	raw := ""
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		raw = token
	} else {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			raw = req.RefreshToken
		}
	}
	if raw == "" {
		return nil, "", false
	}

	claims, err := h.authService.ValidateTokenType(raw, auth.TokenTypeRefresh)
	if err != nil {
		logger.Info("refresh token rejected", slog.Any("error", err))
		return nil, "", false
	}
	if claims.ID == "" {
		logger.Info("refresh token missing jti")
		return nil, "", false
	}
	return claims, refreshTokenBlacklistKeyPrefix + claims.ID, true
}

func (h *AuthHandler) revokeRefreshToken(ctx context.Context, key string, expiresAt *jwt.NumericDate) error {
	ttl := h.authService.TTL(auth.TokenTypeRefresh)
	if expiresAt != nil {
		ttl = time.Until(expiresAt.Time)
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return h.redis.Set(ctx, key, "revoked", ttl).Err()
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	return middleware.LoggerOr(c, h.logger)
}

func (h *AuthHandler) secureCookie(c *gin.Context) bool {
	if h.cookieSecure || c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}
