package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in TokenClaims.TokenType.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Issuer is stamped into every token and required on validation.
const Issuer = "resume-builder"

// ErrInvalidToken 表示令牌缺失、过期、签名错误或类型不符。
var ErrInvalidToken = errors.New("token is not valid")

// AuthService 签发并校验 RS256 令牌。每种令牌类型有独立的有效期。
type AuthService struct {
	keys KeyPair
	ttl  map[string]time.Duration
	now  func() time.Time
}

// TokenPair is returned on login, register and refresh. RefreshID is the refresh token's jti.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	RefreshID    string
}

// TokenClaims 是令牌负载。
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// NewAuthService parses the PEM pair and builds the service.
func NewAuthService(privateKeyPEM, publicKeyPEM []byte, accessTTL, refreshTTL time.Duration) (*AuthService, error) {
	keys, err := ParseKeyPair(privateKeyPEM, publicKeyPEM)
	if err != nil {
		return nil, err
	}
	return newAuthService(keys, accessTTL, refreshTTL), nil
}

// NewAuthServiceFromFiles is NewAuthService over key files.
func NewAuthServiceFromFiles(privateKeyPath, publicKeyPath string, accessTTL, refreshTTL time.Duration) (*AuthService, error) {
	keys, err := LoadKeyPair(privateKeyPath, publicKeyPath)
	if err != nil {
		return nil, err
	}
	return newAuthService(keys, accessTTL, refreshTTL), nil
}

func newAuthService(keys KeyPair, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		keys: keys,
		ttl: map[string]time.Duration{
			TokenTypeAccess:  accessTTL,
			TokenTypeRefresh: refreshTTL,
		},
		now: time.Now,
	}
}

// GenerateTokenPair 签发访问令牌与带 jti 的刷新令牌，jti 用于吊销。
func (s *AuthService) GenerateTokenPair(userID uint) (TokenPair, error) {
	now := s.now()
	pair := TokenPair{RefreshID: uuid.NewString()}

	var err error
	if pair.AccessToken, err = s.issue(userID, TokenTypeAccess, "", now); err != nil {
		return TokenPair{}, err
	}
	if pair.RefreshToken, err = s.issue(userID, TokenTypeRefresh, pair.RefreshID, now); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (s *AuthService) issue(userID uint, tokenType, jti string, now time.Time) (string, error) {
	claims := TokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl[tokenType])),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.keys.Private)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ValidateToken 解析并验证 JWT，所有失败都包装 ErrInvalidToken。
func (s *AuthService) ValidateToken(raw string) (*TokenClaims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &TokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return s.keys.Public, nil }); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidToken)
	}
	return claims, nil
}

// ValidateTokenType validates the token and checks its type.
func (s *AuthService) ValidateTokenType(raw, tokenType string) (*TokenClaims, error) {
	claims, err := s.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, tokenType)
	}
	return claims, nil
}

// TTL returns the lifetime of the given token type.
func (s *AuthService) TTL(tokenType string) time.Duration {
	return s.ttl[tokenType]
}
