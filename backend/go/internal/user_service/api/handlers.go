package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/auth"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/storage"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/user_service/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountService 是 Handler 依赖的业务接口。
type AccountService interface {
	RegisterUserByEmail(ctx context.Context, email, password, username string) (*models.User, error)
	LoginUserByEmail(ctx context.Context, email, password string) (string, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfilePic(ctx context.Context, userID string, src storage.ImageSource) (*models.User, error)
}

// CookieConfig 控制登录 cookie。Name 为空时不写 cookie。
type CookieConfig struct {
	Name   string
	TTL    int // 秒
	Secure bool
}

// UploadConfig 控制头像上传。
type UploadConfig struct {
	TempDir        string
	MaxUploadBytes int64
	AllowedFormats []string
}

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service AccountService
	cookie  CookieConfig
	uploads UploadConfig
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s AccountService, cookie CookieConfig, uploads UploadConfig) *Handler {
	if uploads.TempDir == "" {
		uploads.TempDir = os.TempDir()
	}
	if len(uploads.AllowedFormats) == 0 {
		uploads.AllowedFormats = storage.DefaultAllowedFormats
	}
	return &Handler{service: s, cookie: cookie, uploads: uploads}
}

// ProfileResponse 是个人资料接口返回的 JSON 结构。
type ProfileResponse struct {
	ID         string          `json:"id"`
	Username   string          `json:"username"`
	Email      string          `json:"email"`
	Role       models.UserRole `json:"role"`
	ProfilePic string          `json:"profilePic"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func newProfileResponse(u *models.User) ProfileResponse {
	return ProfileResponse{
		ID:         service.UserID(u),
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
	}
}

// RegisterEmailRequest 定义了邮箱注册请求的 JSON 结构。
type RegisterEmailRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Username string `json:"username" binding:"required"`
}

// RegisterEmail 处理邮箱注册请求。
func (h *Handler) RegisterEmail(c *gin.Context) {
	var req RegisterEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.RegisterUserByEmail(c.Request.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "注册失败"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "注册成功", "user_id": service.UserID(user)})
}

// LoginEmailRequest 定义了邮箱登录请求的 JSON 结构。
type LoginEmailRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginEmail 处理邮箱登录请求。
func (h *Handler) LoginEmail(c *gin.Context) {
	var req LoginEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.service.LoginUserByEmail(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrAccountSuspended):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "登录失败"})
		return
	}

	if h.cookie.Name != "" {
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(h.cookie.Name, token, h.cookie.TTL, "/", "", h.cookie.Secure, true)
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout 清除登录 cookie。
func (h *Handler) Logout(c *gin.Context) {
	if h.cookie.Name != "" {
		c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	}
	c.JSON(http.StatusOK, gin.H{"message": "已退出登录"})
}

// Profile 返回当前登录用户的个人资料。
func (h *Handler) Profile(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未认证"})
		return
	}
	user, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.writeProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(user))
}

// UpdateProfilePic 接收 multipart 字段 "profilePic"，上传后返回更新后的个人资料。
func (h *Handler) UpdateProfilePic(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未认证"})
		return
	}
	if h.uploads.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxUploadBytes)
	}

	fh, err := c.FormFile("profilePic")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "头像超过大小限制"})
		case errors.Is(err, http.ErrMissingFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "未上传头像文件"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart 表单格式错误"})
		}
		return
	}

	mtype, err := storage.SniffUpload(fh)
	if err != nil || !storage.FormatAllowed(mtype, h.uploads.AllowedFormats) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的图片格式，允许: " + strings.Join(h.uploads.AllowedFormats, ", ")})
		return
	}

	dst := filepath.Join(h.uploads.TempDir, uuid.New().String()+mtype.Extension())
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		_ = os.Remove(dst)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "暂存头像失败"})
		return
	}
	defer os.Remove(dst)

	user, err := h.service.UpdateProfilePic(c.Request.Context(), userID, storage.Local(dst))
	if err != nil {
		h.writeProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(user))
}

func (h *Handler) writeProfileError(c *gin.Context, err error) {
	var uf *storage.UploadFailure
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPicturesDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNoImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &uf):
		c.JSON(http.StatusBadGateway, gin.H{"error": "头像上传失败"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新个人资料失败"})
	}
}
