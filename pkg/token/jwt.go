// Package token 提供了对外部身份提供方签发的 JSON Web Token 的验证功能。
// 本服务不负责签发登录凭证：契约是 verify(token) -> 用户标识，
// 任何验证失败一律按未认证处理。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier 负责校验身份提供方签发的 token 并提取用户标识。
type Verifier struct {
	secretKey []byte // 与身份提供方共享的 HS256 密钥
}

// Claims 定义了身份提供方在 token 中携带的声明。
// Subject（RegisteredClaims.Subject）即用户的 UUID。
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// NewVerifier 创建一个新的 Verifier 实例。
func NewVerifier(secret string) *Verifier {
	return &Verifier{secretKey: []byte(secret)}
}

// Verify 验证给定的 token 字符串。
// 如果 token 有效，返回其中的 Claims；签名不匹配、过期或主题缺失均返回错误。
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// 只接受 HMAC 签名方法
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}
	return claims, nil
}

// Issue 签发一个以 userID 为主题的 token。
// 仅用于本地联调与测试，线上凭证由身份提供方签发。
func (v *Verifier) Issue(userID, email string, ttl time.Duration) (string, error) {
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(v.secretKey)
}
