package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/zzliekkas/assetgate/storage"
)

// OSSConfig 阿里云OSS配置选项
type OSSConfig struct {
	// Endpoint 端点，例如 oss-cn-hangzhou.aliyuncs.com
	Endpoint string `mapstructure:"endpoint" validate:"required"`

	// AccessKeyID 访问密钥ID
	AccessKeyID string `mapstructure:"access_key_id" validate:"required"`

	// AccessKeySecret 访问密钥
	AccessKeySecret string `mapstructure:"access_key_secret" validate:"required"`

	// Bucket 存储桶名称
	Bucket string `mapstructure:"bucket" validate:"required"`

	// CDNDomain CDN域名，配置后GetURL始终返回CDN地址
	CDNDomain string `mapstructure:"cdn_domain"`

	// UseSSL 是否使用SSL
	UseSSL bool `mapstructure:"use_ssl"`

	// ConnectTimeout 连接超时
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	// ReadWriteTimeout 读写超时
	ReadWriteTimeout time.Duration `mapstructure:"read_write_timeout"`

	// EnableCRC 是否启用CRC校验
	EnableCRC bool `mapstructure:"enable_crc"`
}

// DefaultOSSConfig 返回默认OSS配置
func DefaultOSSConfig() OSSConfig {
	return OSSConfig{
		UseSSL:           true,
		ConnectTimeout:   30 * time.Second,
		ReadWriteTimeout: 60 * time.Second,
		EnableCRC:        true,
	}
}

// ossBucket OSS存储桶中适配器用到的操作，*oss.Bucket实现了该接口
type ossBucket interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
	DeleteObject(objectKey string, options ...oss.Option) error
	IsObjectExist(objectKey string, options ...oss.Option) (bool, error)
	SignURL(objectKey string, method oss.HTTPMethod, expiredInSec int64, options ...oss.Option) (string, error)
}

var _ ossBucket = (*oss.Bucket)(nil)

// AliyunOSS 阿里云OSS存储适配器
type AliyunOSS struct {
	bucket ossBucket
	config OSSConfig
	options
}

// NewOSS 创建阿里云OSS存储
func NewOSS(cfg OSSConfig, opts ...Option) (*AliyunOSS, error) {
	clientOptions := []oss.ClientOption{
		oss.EnableCRC(cfg.EnableCRC),
	}

	// 添加超时选项
	if cfg.ConnectTimeout > 0 || cfg.ReadWriteTimeout > 0 {
		clientOptions = append(clientOptions, oss.Timeout(int64(cfg.ConnectTimeout/time.Second), int64(cfg.ReadWriteTimeout/time.Second)))
	}

	endpoint := fmt.Sprintf("%s://%s", scheme(cfg.UseSSL), stripScheme(cfg.Endpoint))
	client, err := oss.New(endpoint, cfg.AccessKeyID, cfg.AccessKeySecret, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("oss: 创建客户端失败: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("oss: 获取存储桶失败: %w", err)
	}

	return newOSSWithBucket(bucket, cfg, opts...), nil
}

func newOSSWithBucket(bucket ossBucket, cfg OSSConfig, opts ...Option) *AliyunOSS {
	return &AliyunOSS{
		bucket:  bucket,
		config:  cfg,
		options: newOptions(storage.ProviderAliyunOSS, opts),
	}
}

// Upload 实现storage.Storage接口
func (s *AliyunOSS) Upload(ctx context.Context, data []byte, originalName string, opts *storage.UploadOptions) (*storage.UploadResult, error) {
	plan, err := storage.PrepareUpload(data, originalName, opts, s.names)
	if err != nil {
		return nil, err
	}

	ossOptions := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(plan.ContentType),
	}
	if plan.Public {
		ossOptions = append(ossOptions, oss.ObjectACL(oss.ACLPublicRead))
	}
	for k, v := range plan.Metadata {
		ossOptions = append(ossOptions, oss.Meta(k, v))
	}

	if err := s.bucket.PutObject(plan.Key, bytes.NewReader(data), ossOptions...); err != nil {
		return nil, fmt.Errorf("oss: 上传对象失败: %w", err)
	}

	url, err := s.GetURL(ctx, plan.Key, 0)
	if err != nil {
		return nil, err
	}
	return plan.Result(url, storage.ProviderAliyunOSS), nil
}

// Delete 实现storage.Storage接口，对象不存在时OSS同样返回成功
func (s *AliyunOSS) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	err := s.bucket.DeleteObject(storage.NormalizeKey(key), oss.WithContext(ctx))
	if err != nil && !isOSSNotFound(err) {
		return fmt.Errorf("oss: 删除对象失败: %w", err)
	}
	return nil
}

// Exists 实现storage.Storage接口
func (s *AliyunOSS) Exists(ctx context.Context, key string) bool {
	if storage.ValidateKey(key) != nil {
		return false
	}

	exists, err := s.bucket.IsObjectExist(storage.NormalizeKey(key), oss.WithContext(ctx))
	if err != nil {
		s.logger.WithField("key", key).WithError(err).Debug("检查对象是否存在失败")
		return false
	}
	return exists
}

// GetURL 实现storage.Storage接口
func (s *AliyunOSS) GetURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	return resolveURL(key, s.config.CDNDomain, expiresIn, s.signURL, s.publicURL)
}

// GetProvider 实现storage.Storage接口
func (s *AliyunOSS) GetProvider() storage.Provider {
	return storage.ProviderAliyunOSS
}

func (s *AliyunOSS) signURL(key string, expiresIn time.Duration) (string, error) {
	signed, err := s.bucket.SignURL(key, oss.HTTPGet, int64(expiresIn/time.Second))
	if err != nil {
		return "", fmt.Errorf("oss: 生成签名URL失败: %w", err)
	}
	return signed, nil
}

func (s *AliyunOSS) publicURL(key string) string {
	return fmt.Sprintf("%s://%s.%s/%s", scheme(s.config.UseSSL), s.config.Bucket, stripScheme(s.config.Endpoint), key)
}

// isOSSNotFound 判断是否为对象不存在错误
func isOSSNotFound(err error) bool {
	var serviceErr oss.ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.StatusCode == http.StatusNotFound
	}
	return false
}
