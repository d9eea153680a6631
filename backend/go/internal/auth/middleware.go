package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextUserID 是已验证用户 ID 在 gin.Context 中的键。
const ContextUserID = "userID"

// AuthenticationError 表示请求无法关联到已验证的身份。
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "认证失败: " + e.Reason
}

// AuthMiddleware 创建一个 Gin 中间件，用于验证 JWT。
// token 优先从 Authorization 标头读取，其次从 cookieName 指定的 cookie 读取。
func AuthMiddleware(verifier Verifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, reason := extractToken(c, cookieName)
		if tokenString == "" {
			reject(c, reason)
			return
		}

		userID, err := verifier.Verify(tokenString)
		if err != nil {
			reject(c, "无效的 token")
			return
		}

		// 将用户 ID 存储在 Gin 的上下文中，以便后续的处理函数可以使用
		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// UserID 返回中间件写入的用户 ID。
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func extractToken(c *gin.Context, cookieName string) (string, string) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		// 我们期望的格式是 "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", "授权标头格式不正确"
		}
		return parts[1], ""
	}
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v, ""
		}
	}
	return "", "请求未包含授权信息"
}

func reject(c *gin.Context, reason string) {
	err := &AuthenticationError{Reason: reason}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
}
