package storage

import (
	"context"
	"time"
)

// Provider 标识处理写入的存储后端
type Provider string

const (
	// ProviderAliyunOSS 阿里云OSS
	ProviderAliyunOSS Provider = "aliyun-oss"

	// ProviderTencentCOS 腾讯云COS
	ProviderTencentCOS Provider = "tencent-cos"

	// ProviderMinIO MinIO及兼容S3的自建存储
	ProviderMinIO Provider = "minio"

	// ProviderAWSS3 AWS S3
	ProviderAWSS3 Provider = "aws-s3"

	// ProviderQiniuKodo 七牛云Kodo
	ProviderQiniuKodo Provider = "qiniu-kodo"

	// ProviderLocal 本地文件系统
	ProviderLocal Provider = "local"
)

// Providers 返回所有受支持的存储后端
func Providers() []Provider {
	return []Provider{
		ProviderAliyunOSS,
		ProviderTencentCOS,
		ProviderMinIO,
		ProviderAWSS3,
		ProviderQiniuKodo,
		ProviderLocal,
	}
}

// Valid 判断是否为受支持的存储后端
func (p Provider) Valid() bool {
	for _, provider := range Providers() {
		if p == provider {
			return true
		}
	}
	return false
}

// String 实现fmt.Stringer接口
func (p Provider) String() string {
	return string(p)
}

// UploadOptions 上传选项
type UploadOptions struct {
	// FileName 调用方指定的文件名（不含扩展名），为空时自动生成
	FileName string

	// Directory 对象键前缀
	Directory string

	// ContentType 覆盖按扩展名推断的内容类型
	ContentType string

	// IsPublic 是否公共读，nil表示默认公共读
	IsPublic *bool

	// Metadata 写入对象的自定义元数据
	Metadata map[string]string
}

// Public 返回本次上传是否公共读，只有显式设置为false时才是私有
func (o *UploadOptions) Public() bool {
	if o == nil || o.IsPublic == nil {
		return true
	}
	return *o.IsPublic
}

// Bool 返回v的指针，用于设置UploadOptions.IsPublic
func Bool(v bool) *bool {
	return &v
}

// UploadResult 上传结果
type UploadResult struct {
	URL          string   `json:"url"`
	Key          string   `json:"key"`
	OriginalName string   `json:"originalName"`
	FileName     string   `json:"fileName"`
	Size         int64    `json:"size"`
	ContentType  string   `json:"contentType"`
	Provider     Provider `json:"provider"`
}

// Storage 对象存储能力接口，所有后端适配器都必须实现
type Storage interface {
	// Upload 上传数据并返回对象信息
	Upload(ctx context.Context, data []byte, originalName string, opts *UploadOptions) (*UploadResult, error)

	// Delete 删除对象，对象不存在时同样视为成功
	Delete(ctx context.Context, key string) error

	// Exists 检查对象是否存在，任何无法确定的情况都返回false
	Exists(ctx context.Context, key string) bool

	// GetURL 获取对象URL，expiresIn大于0时返回签名URL
	GetURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// GetProvider 返回后端标识
	GetProvider() Provider
}

// CacheInvalidator CDN缓存刷新能力接口，后端可以选择性实现
//
// 两个方法都不会返回错误：刷新失败只影响缓存新鲜度，不影响已经完成的写入。
type CacheInvalidator interface {
	// InvalidateCache 刷新单个对象
	InvalidateCache(ctx context.Context, key string) bool

	// InvalidateDirectory 刷新目录前缀
	InvalidateDirectory(ctx context.Context, directory string) bool
}

// SupportsInvalidation 检查存储后端是否同时提供缓存刷新能力
func SupportsInvalidation(s Storage) (CacheInvalidator, bool) {
	invalidator, ok := s.(CacheInvalidator)
	return invalidator, ok
}
