package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/config"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/circuitbreaker"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ObjectAPI 是 MinioObjectStore 用到的 minio.Client 方法子集。
type ObjectAPI interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioObjectStore 把图片写入 MinIO 存储桶，并返回公开访问 URL。
type MinioObjectStore struct {
	client        ObjectAPI
	bucket        string
	publicBaseURL string
	breaker       *circuitbreaker.Breaker
	newName       func() string
}

// NewMinioObjectStore 创建一个新的 MinioObjectStore。breaker 为 nil 时不启用熔断。
func NewMinioObjectStore(client ObjectAPI, cfg config.MinIOConfig, breaker *circuitbreaker.Breaker) *MinioObjectStore {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.Secure {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return &MinioObjectStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: base,
		breaker:       breaker,
		newName:       func() string { return uuid.New().String() },
	}
}

// UploadFile 上传本地文件，对象名为 <namespace>/<uuid><ext>。
func (s *MinioObjectStore) UploadFile(ctx context.Context, localPath, namespace string) (string, error) {
	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		return "", fmt.Errorf("无法读取待上传文件: %w", err)
	}
	key := s.objectKey(namespace, localPath, mtype)

	err = s.breaker.Do(func() error {
		_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{ContentType: mtype.String()})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("MinIO FPutObject 失败: %w", err)
	}
	return s.ObjectURL(key)
}

// UploadStream 直接把数据流写入对象存储，用于 direct 上传模式。
// contentType 为空时使用 application/octet-stream。
func (s *MinioObjectStore) UploadStream(ctx context.Context, r io.Reader, size int64, filename, contentType, namespace string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := s.objectKey(namespace, filename, mimetype.Lookup(contentType))

	err := s.breaker.Do(func() error {
		_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("MinIO PutObject 失败: %w", err)
	}
	return s.ObjectURL(key)
}

// ObjectURL 返回对象的公开访问 URL。
func (s *MinioObjectStore) ObjectURL(key string) (string, error) {
	u, err := url.JoinPath(s.publicBaseURL, s.bucket, key)
	if err != nil {
		return "", fmt.Errorf("无法构建对象 URL: %w", err)
	}
	return u, nil
}

func (s *MinioObjectStore) objectKey(namespace, filename string, mtype *mimetype.MIME) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" && mtype != nil {
		ext = mtype.Extension()
	}
	return path.Join(namespace, s.newName()+ext)
}
