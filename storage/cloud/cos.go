package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tencentyun/cos-go-sdk-v5"

	"github.com/zzliekkas/assetgate/storage"
)

// COSConfig 腾讯云对象存储配置
type COSConfig struct {
	// 腾讯云 SecretID
	SecretID string `mapstructure:"secret_id" validate:"required"`

	// 腾讯云 SecretKey
	SecretKey string `mapstructure:"secret_key" validate:"required"`

	// 存储桶名称，格式为 {name}-{appid}
	Bucket string `mapstructure:"bucket" validate:"required"`

	// 区域
	Region string `mapstructure:"region" validate:"required"`

	// 是否使用HTTPS
	UseSSL bool `mapstructure:"use_ssl"`

	// CDN域名，配置后GetURL始终返回CDN地址
	CDNDomain string `mapstructure:"cdn_domain"`

	// 请求超时
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultCOSConfig 返回默认COS配置
func DefaultCOSConfig() COSConfig {
	return COSConfig{
		UseSSL:  true,
		Timeout: 60 * time.Second,
	}
}

// cosObjectAPI COS对象服务中适配器用到的操作，*cos.ObjectService实现了该接口
type cosObjectAPI interface {
	Put(ctx context.Context, name string, r io.Reader, uopt *cos.ObjectPutOptions) (*cos.Response, error)
	Delete(ctx context.Context, name string, opt ...*cos.ObjectDeleteOptions) (*cos.Response, error)
	Head(ctx context.Context, name string, opt *cos.ObjectHeadOptions, id ...string) (*cos.Response, error)
	GetPresignedURL(ctx context.Context, httpMethod, name, ak, sk string, expired time.Duration, opt interface{}, signHost ...bool) (*url.URL, error)
	GetObjectURL(name string) *url.URL
}

var _ cosObjectAPI = (*cos.ObjectService)(nil)

// TencentCOS 腾讯云对象存储适配器
//
// TencentCOS 同时实现了storage.CacheInvalidator，但腾讯云CDN刷新需要独立的CDN客户端，
// 两个刷新方法只记录告警并返回false。
type TencentCOS struct {
	object cosObjectAPI
	config COSConfig
	options
}

// NewCOS 创建腾讯云对象存储
func NewCOS(config COSConfig, opts ...Option) (*TencentCOS, error) {
	// 构建存储桶URL
	bucketURL, err := url.Parse(fmt.Sprintf("%s://%s.cos.%s.myqcloud.com", scheme(config.UseSSL), config.Bucket, config.Region))
	if err != nil {
		return nil, fmt.Errorf("cos: 解析存储桶URL失败: %w", err)
	}

	// 初始化客户端
	b := &cos.BaseURL{BucketURL: bucketURL}
	client := cos.NewClient(b, &http.Client{
		Timeout: config.Timeout,
		Transport: &cos.AuthorizationTransport{
			SecretID:  config.SecretID,
			SecretKey: config.SecretKey,
		},
	})

	return newCOSWithObject(client.Object, config, opts...), nil
}

func newCOSWithObject(object cosObjectAPI, config COSConfig, opts ...Option) *TencentCOS {
	return &TencentCOS{
		object:  object,
		config:  config,
		options: newOptions(storage.ProviderTencentCOS, opts),
	}
}

// Upload 实现storage.Storage接口
func (s *TencentCOS) Upload(ctx context.Context, data []byte, originalName string, opts *storage.UploadOptions) (*storage.UploadResult, error) {
	plan, err := storage.PrepareUpload(data, originalName, opts, s.names)
	if err != nil {
		return nil, err
	}

	headerOptions := &cos.ObjectPutHeaderOptions{
		ContentType:   plan.ContentType,
		ContentLength: plan.Size,
	}
	if len(plan.Metadata) > 0 {
		meta := make(http.Header, len(plan.Metadata))
		for k, v := range plan.Metadata {
			meta.Set("x-cos-meta-"+k, v)
		}
		headerOptions.XCosMetaXXX = &meta
	}

	putOptions := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: headerOptions,
	}
	if plan.Public {
		putOptions.ACLHeaderOptions = &cos.ACLHeaderOptions{XCosACL: "public-read"}
	}

	if _, err := s.object.Put(ctx, plan.Key, bytes.NewReader(data), putOptions); err != nil {
		return nil, fmt.Errorf("cos: 写入文件失败: %w", err)
	}

	url, err := s.GetURL(ctx, plan.Key, 0)
	if err != nil {
		return nil, err
	}
	return plan.Result(url, storage.ProviderTencentCOS), nil
}

// Delete 实现storage.Storage接口
func (s *TencentCOS) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	_, err := s.object.Delete(ctx, storage.NormalizeKey(key))
	if err != nil && !cos.IsNotFoundError(err) {
		return fmt.Errorf("cos: 删除文件失败: %w", err)
	}
	return nil
}

// Exists 实现storage.Storage接口
func (s *TencentCOS) Exists(ctx context.Context, key string) bool {
	if storage.ValidateKey(key) != nil {
		return false
	}

	_, err := s.object.Head(ctx, storage.NormalizeKey(key), nil)
	if err != nil {
		if !cos.IsNotFoundError(err) {
			s.logger.WithField("key", key).WithError(err).Debug("检查文件存在失败")
		}
		return false
	}
	return true
}

// GetURL 实现storage.Storage接口
func (s *TencentCOS) GetURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	sign := func(key string, expiresIn time.Duration) (string, error) {
		presignedURL, err := s.object.GetPresignedURL(ctx, http.MethodGet, key, s.config.SecretID, s.config.SecretKey, expiresIn, nil)
		if err != nil {
			return "", fmt.Errorf("cos: 生成临时URL失败: %w", err)
		}
		return presignedURL.String(), nil
	}
	return resolveURL(key, s.config.CDNDomain, expiresIn, sign, s.publicURL)
}

// GetProvider 实现storage.Storage接口
func (s *TencentCOS) GetProvider() storage.Provider {
	return storage.ProviderTencentCOS
}

// InvalidateCache 实现storage.CacheInvalidator接口，当前不支持
func (s *TencentCOS) InvalidateCache(ctx context.Context, key string) bool {
	s.logger.WithField("key", key).Warn("cos: 不支持CDN缓存刷新(unsupported)")
	return false
}

// InvalidateDirectory 实现storage.CacheInvalidator接口，当前不支持
func (s *TencentCOS) InvalidateDirectory(ctx context.Context, directory string) bool {
	s.logger.WithField("directory", directory).Warn("cos: 不支持CDN目录刷新(unsupported)")
	return false
}

func (s *TencentCOS) publicURL(key string) string {
	return s.object.GetObjectURL(key).String()
}
