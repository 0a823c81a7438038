package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/qiniu/go-sdk/v7/auth/qbox"
	qiniuclient "github.com/qiniu/go-sdk/v7/client"
	qiniustorage "github.com/qiniu/go-sdk/v7/storage"

	"github.com/zzliekkas/assetgate/storage"
)

// qiniuNoSuchEntry 七牛资源不存在的错误码
const qiniuNoSuchEntry = 612

// QiniuConfig 七牛云配置
type QiniuConfig struct {
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
	Bucket    string `mapstructure:"bucket" validate:"required"`
	Domain    string `mapstructure:"domain" validate:"required"` // 存储空间绑定的访问域名，包含协议
	CDNDomain string `mapstructure:"cdn_domain"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// qiniuUploader 表单上传，*storage.FormUploader实现了该接口
type qiniuUploader interface {
	Put(ctx context.Context, ret interface{}, uptoken, key string, data io.Reader, size int64, extra *qiniustorage.PutExtra) error
}

// qiniuBucketManager 空间管理，*storage.BucketManager实现了该接口
type qiniuBucketManager interface {
	Stat(bucket, key string) (qiniustorage.FileInfo, error)
	Delete(bucket, key string) error
}

var (
	_ qiniuUploader      = (*qiniustorage.FormUploader)(nil)
	_ qiniuBucketManager = (*qiniustorage.BucketManager)(nil)
)

// QiniuKodo 七牛云Kodo存储适配器
//
// 七牛的访问控制在存储空间级别，上传时的公共读选项不会产生对象级别的效果。
type QiniuKodo struct {
	mac      *qbox.Mac
	uploader qiniuUploader
	manager  qiniuBucketManager
	config   QiniuConfig
	options
}

// NewQiniu 创建七牛云存储
func NewQiniu(cfg QiniuConfig, opts ...Option) (*QiniuKodo, error) {
	mac := qbox.NewMac(cfg.AccessKey, cfg.SecretKey)
	sdkConfig := &qiniustorage.Config{UseHTTPS: cfg.UseSSL}

	return newQiniuWithClients(
		mac,
		qiniustorage.NewFormUploader(sdkConfig),
		qiniustorage.NewBucketManager(mac, sdkConfig),
		cfg,
		opts...,
	), nil
}

func newQiniuWithClients(mac *qbox.Mac, uploader qiniuUploader, manager qiniuBucketManager, cfg QiniuConfig, opts ...Option) *QiniuKodo {
	return &QiniuKodo{
		mac:      mac,
		uploader: uploader,
		manager:  manager,
		config:   cfg,
		options:  newOptions(storage.ProviderQiniuKodo, opts),
	}
}

// Upload 实现storage.Storage接口
func (s *QiniuKodo) Upload(ctx context.Context, data []byte, originalName string, opts *storage.UploadOptions) (*storage.UploadResult, error) {
	plan, err := storage.PrepareUpload(data, originalName, opts, s.names)
	if err != nil {
		return nil, err
	}

	// 指定键的上传需要覆盖权限，与其他后端的覆盖语义保持一致
	putPolicy := qiniustorage.PutPolicy{Scope: s.config.Bucket + ":" + plan.Key}
	uptoken := putPolicy.UploadToken(s.mac)

	params := make(map[string]string, len(plan.Metadata))
	for k, v := range plan.Metadata {
		params["x-qn-meta-"+k] = v
	}
	putExtra := qiniustorage.PutExtra{
		Params:   params,
		MimeType: plan.ContentType,
	}

	ret := qiniustorage.PutRet{}
	if err := s.uploader.Put(ctx, &ret, uptoken, plan.Key, bytes.NewReader(data), plan.Size, &putExtra); err != nil {
		return nil, fmt.Errorf("qiniu: 上传文件失败: %w", err)
	}

	url, err := s.GetURL(ctx, plan.Key, 0)
	if err != nil {
		return nil, err
	}
	return plan.Result(url, storage.ProviderQiniuKodo), nil
}

// Delete 实现storage.Storage接口，资源不存在(612)视为删除成功
func (s *QiniuKodo) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	err := s.manager.Delete(s.config.Bucket, storage.NormalizeKey(key))
	if err != nil && !isQiniuNotFound(err) {
		return fmt.Errorf("qiniu: 删除文件失败: %w", err)
	}
	return nil
}

// Exists 实现storage.Storage接口
func (s *QiniuKodo) Exists(ctx context.Context, key string) bool {
	if storage.ValidateKey(key) != nil {
		return false
	}

	_, err := s.manager.Stat(s.config.Bucket, storage.NormalizeKey(key))
	if err != nil {
		if !isQiniuNotFound(err) {
			s.logger.WithField("key", key).WithError(err).Debug("查询文件信息失败")
		}
		return false
	}
	return true
}

// GetURL 实现storage.Storage接口
func (s *QiniuKodo) GetURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	sign := func(key string, expiresIn time.Duration) (string, error) {
		deadline := time.Now().Add(expiresIn).Unix()
		return qiniustorage.MakePrivateURL(s.mac, s.config.Domain, key, deadline), nil
	}
	public := func(key string) string {
		return qiniustorage.MakePublicURL(s.config.Domain, key)
	}
	return resolveURL(key, s.config.CDNDomain, expiresIn, sign, public)
}

// GetProvider 实现storage.Storage接口
func (s *QiniuKodo) GetProvider() storage.Provider {
	return storage.ProviderQiniuKodo
}

func isQiniuNotFound(err error) bool {
	var info *qiniuclient.ErrorInfo
	if errors.As(err, &info) {
		return info.Code == qiniuNoSuchEntry
	}
	return strings.Contains(err.Error(), "no such file or directory")
}
