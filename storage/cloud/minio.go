package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/zzliekkas/assetgate/storage"
)

// MinIOConfig MinIO配置选项
type MinIOConfig struct {
	// Endpoint 服务地址，例如 localhost:9000
	Endpoint string `mapstructure:"endpoint" validate:"required"`

	// AccessKey 访问密钥
	AccessKey string `mapstructure:"access_key" validate:"required"`

	// SecretKey 私有密钥
	SecretKey string `mapstructure:"secret_key" validate:"required"`

	// Bucket 存储桶名称
	Bucket string `mapstructure:"bucket" validate:"required"`

	// Region 区域，可选
	Region string `mapstructure:"region"`

	// UseSSL 是否使用SSL
	UseSSL bool `mapstructure:"use_ssl"`

	// CDNDomain CDN域名，配置后GetURL始终返回CDN地址
	CDNDomain string `mapstructure:"cdn_domain"`
}

// minioAPI MinIO客户端中适配器用到的操作，*minio.Client实现了该接口
type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	EndpointURL() *url.URL
}

var _ minioAPI = (*minio.Client)(nil)

// MinIO MinIO对象存储适配器
type MinIO struct {
	client minioAPI
	config MinIOConfig
	options
}

// NewMinIO 创建MinIO存储
func NewMinIO(cfg MinIOConfig, opts ...Option) (*MinIO, error) {
	client, err := minio.New(stripScheme(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: 创建客户端失败: %w", err)
	}

	return newMinIOWithClient(client, cfg, opts...), nil
}

func newMinIOWithClient(client minioAPI, cfg MinIOConfig, opts ...Option) *MinIO {
	return &MinIO{
		client:  client,
		config:  cfg,
		options: newOptions(storage.ProviderMinIO, opts),
	}
}

// Upload 实现storage.Storage接口
func (s *MinIO) Upload(ctx context.Context, data []byte, originalName string, opts *storage.UploadOptions) (*storage.UploadResult, error) {
	plan, err := storage.PrepareUpload(data, originalName, opts, s.names)
	if err != nil {
		return nil, err
	}

	// x-amz-acl 作为请求头原样发送
	userMetadata := make(map[string]string, len(plan.Metadata)+1)
	for k, v := range plan.Metadata {
		userMetadata[k] = v
	}
	if plan.Public {
		userMetadata["x-amz-acl"] = "public-read"
	}

	_, err = s.client.PutObject(ctx, s.config.Bucket, plan.Key, bytes.NewReader(data), plan.Size, minio.PutObjectOptions{
		ContentType:  plan.ContentType,
		UserMetadata: userMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: 上传对象失败: %w", err)
	}

	url, err := s.GetURL(ctx, plan.Key, 0)
	if err != nil {
		return nil, err
	}
	return plan.Result(url, storage.ProviderMinIO), nil
}

// Delete 实现storage.Storage接口
func (s *MinIO) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	err := s.client.RemoveObject(ctx, s.config.Bucket, storage.NormalizeKey(key), minio.RemoveObjectOptions{})
	if err != nil && !isMinIONotFound(err) {
		return fmt.Errorf("minio: 删除对象失败: %w", err)
	}
	return nil
}

// Exists 实现storage.Storage接口
func (s *MinIO) Exists(ctx context.Context, key string) bool {
	if storage.ValidateKey(key) != nil {
		return false
	}

	_, err := s.client.StatObject(ctx, s.config.Bucket, storage.NormalizeKey(key), minio.StatObjectOptions{})
	if err != nil {
		if !isMinIONotFound(err) {
			s.logger.WithField("key", key).WithError(err).Debug("检查对象是否存在失败")
		}
		return false
	}
	return true
}

// GetURL 实现storage.Storage接口
func (s *MinIO) GetURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	sign := func(key string, expiresIn time.Duration) (string, error) {
		presigned, err := s.client.PresignedGetObject(ctx, s.config.Bucket, key, expiresIn, nil)
		if err != nil {
			return "", fmt.Errorf("minio: 生成签名URL失败: %w", err)
		}
		return presigned.String(), nil
	}
	return resolveURL(key, s.config.CDNDomain, expiresIn, sign, s.publicURL)
}

// GetProvider 实现storage.Storage接口
func (s *MinIO) GetProvider() storage.Provider {
	return storage.ProviderMinIO
}

// publicURL 路径风格的公共地址 {endpoint}/{bucket}/{key}
func (s *MinIO) publicURL(key string) string {
	return storage.JoinURL(storage.JoinURL(s.client.EndpointURL().String(), s.config.Bucket), key)
}

func isMinIONotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey"
}
