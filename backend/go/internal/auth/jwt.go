package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
)

// Audience 是本系统签发的 token 的受众。
const Audience = "agripred_clients"

// ErrInvalidToken 表示 token 无法通过验证。
var ErrInvalidToken = errors.New("无效的 token")

// Verifier 验证 token 并返回其中的用户 ID。
type Verifier interface {
	Verify(tokenString string) (string, error)
}

// HMACTokens 使用 HS256 签发和验证 JWT。
type HMACTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACTokens 创建一个新的 HMACTokens 实例。
func NewHMACTokens(secret, issuer string, ttl time.Duration) *HMACTokens {
	return &HMACTokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue 为指定用户 ID 生成一个新的 JWT。
func (t *HMACTokens) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("用户 ID 不能为空")
	}
	now := t.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": t.issuer,
		"aud": Audience,
		"exp": now.Add(t.ttl).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify 解析并验证 token，返回 sub 中的用户 ID。
func (t *HMACTokens) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 确保 token 的签名方法是我们期望的
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("非预期的签名方法")
		}
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if !claims.VerifyAudience(Audience, true) {
		return "", fmt.Errorf("%w: 受众不匹配", ErrInvalidToken)
	}
	if t.issuer != "" && !claims.VerifyIssuer(t.issuer, true) {
		return "", fmt.Errorf("%w: 签发者不匹配", ErrInvalidToken)
	}

	// JWT 解析数字时默认为 float64，兼容旧 token 中的数字 sub
	switch sub := claims["sub"].(type) {
	case string:
		if sub != "" {
			return sub, nil
		}
	case float64:
		return strconv.FormatUint(uint64(sub), 10), nil
	}
	return "", fmt.Errorf("%w: 缺少 sub", ErrInvalidToken)
}
