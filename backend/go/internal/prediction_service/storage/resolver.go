package storage

import (
	"context"
	"errors"
	"fmt"
)

// DefaultNamespace 是图片在对象存储中的默认逻辑命名空间。
const DefaultNamespace = "crop_predictions"

// DefaultHostedSchemes 是默认被视为“已托管”的 URL 前缀。
var DefaultHostedSchemes = []string{"https://", "http://"}

// ErrNoImage 表示调用方没有提供图片来源。
var ErrNoImage = errors.New("未提供图片")

// Uploader 把本地文件推送到持久化对象存储，并返回可访问的 URL。
type Uploader interface {
	UploadFile(ctx context.Context, localPath, namespace string) (string, error)
}

// UploadFailure 表示对象存储不可达或拒绝了写入。
type UploadFailure struct {
	Namespace string
	Err       error
}

func (e *UploadFailure) Error() string {
	return fmt.Sprintf("上传图片到命名空间 %q 失败: %v", e.Namespace, e.Err)
}

func (e *UploadFailure) Unwrap() error { return e.Err }

// ResolverConfig 是 Resolver 的显式配置。
type ResolverConfig struct {
	Namespace     string
	HostedSchemes []string
}

// Resolver 为一张上传的图片给出唯一的持久化 URL。
// 每次调用最多发起一次上传，失败不重试。
type Resolver struct {
	uploader Uploader
	cfg      ResolverConfig
}

// NewResolver 创建一个新的 Resolver，未设置的配置项使用默认值。
func NewResolver(uploader Uploader, cfg ResolverConfig) *Resolver {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if len(cfg.HostedSchemes) == 0 {
		cfg.HostedSchemes = DefaultHostedSchemes
	}
	return &Resolver{uploader: uploader, cfg: cfg}
}

// Namespace 返回上传使用的命名空间。
func (r *Resolver) Namespace() string { return r.cfg.Namespace }

// Classify 按当前配置的前缀把原始位置映射为 ImageSource。
func (r *Resolver) Classify(location string) ImageSource {
	return ClassifyLocation(location, r.cfg.HostedSchemes)
}

// Resolve 返回图片的持久化 URL。
// AlreadyHosted 原样返回且不发起任何网络调用；Local 上传一次并返回存储服务报告的 URL。
func (r *Resolver) Resolve(ctx context.Context, src ImageSource) (string, error) {
	if src.IsZero() {
		return "", ErrNoImage
	}

	switch src.Kind() {
	case KindAlreadyHosted:
		return src.Value(), nil
	case KindLocal:
		url, err := r.uploader.UploadFile(ctx, src.Value(), r.cfg.Namespace)
		if err != nil {
			return "", &UploadFailure{Namespace: r.cfg.Namespace, Err: err}
		}
		if !IsHosted(url, r.cfg.HostedSchemes) {
			return "", &UploadFailure{
				Namespace: r.cfg.Namespace,
				Err:       fmt.Errorf("存储服务返回了不可用的 URL %q", url),
			}
		}
		return url, nil
	default:
		return "", ErrNoImage
	}
}
