package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken 会话令牌无效或已过期
var ErrInvalidToken = errors.New("invalid session token")

// Claims 会话令牌内容
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenService 签发和校验会话令牌（HS256）
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService 创建令牌服务，secret 为空时随机生成（重启后旧令牌失效）
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("生成会话密钥失败: %w", err)
		}
		secret = hex.EncodeToString(b)
		log.Println("⚠️ 未配置 session.secret，使用随机密钥")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Issue 为会话签发令牌
func (s *TokenService) Issue(sessionID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, nil
}

// Validate 校验令牌并返回其中的会话信息
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TTL 令牌有效期
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
