package cdn

import (
	"context"
	"net/http"

	"github.com/qiniu/go-sdk/v7/auth/qbox"
	qiniucdn "github.com/qiniu/go-sdk/v7/cdn"
	"github.com/sirupsen/logrus"

	"github.com/zzliekkas/assetgate/storage"
)

// QiniuConfig 七牛融合CDN刷新配置
type QiniuConfig struct {
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
	Domain    string `mapstructure:"domain"` // 加速域名，包含协议
}

// qiniuRefresher 刷新接口，*cdn.CdnManager实现了该接口
type qiniuRefresher interface {
	RefreshUrls(urls []string) (qiniucdn.RefreshResp, error)
	RefreshDirs(dirs []string) (qiniucdn.RefreshResp, error)
}

var _ qiniuRefresher = (*qiniucdn.CdnManager)(nil)

// QiniuCDN 七牛融合CDN缓存刷新
type QiniuCDN struct {
	manager qiniuRefresher
	config  QiniuConfig
	options
}

// NewQiniu 创建七牛CDN刷新适配器
func NewQiniu(cfg QiniuConfig, opts ...Option) *QiniuCDN {
	mac := qbox.NewMac(cfg.AccessKey, cfg.SecretKey)
	return newQiniuWithManager(qiniucdn.NewCdnManager(mac), cfg, opts...)
}

func newQiniuWithManager(manager qiniuRefresher, cfg QiniuConfig, opts ...Option) *QiniuCDN {
	return &QiniuCDN{
		manager: manager,
		config:  cfg,
		options: newOptions("qiniu", opts),
	}
}

// InvalidateCache 实现storage.CacheInvalidator接口
//
// 七牛SDK的刷新接口不接受context，取消只能在调用前生效。
func (q *QiniuCDN) InvalidateCache(ctx context.Context, key string) bool {
	target := storage.ObjectTarget(q.config.Domain, key)
	if ctx.Err() != nil {
		return false
	}
	resp, err := q.manager.RefreshUrls([]string{target})
	return q.check(target, resp, err)
}

// InvalidateDirectory 实现storage.CacheInvalidator接口
func (q *QiniuCDN) InvalidateDirectory(ctx context.Context, directory string) bool {
	target := storage.DirectoryTarget(q.config.Domain, directory)
	if ctx.Err() != nil {
		return false
	}
	resp, err := q.manager.RefreshDirs([]string{target})
	return q.check(target, resp, err)
}

func (q *QiniuCDN) check(target string, resp qiniucdn.RefreshResp, err error) bool {
	logger := q.logger.WithField("target", target)
	if err != nil {
		logger.WithError(err).Warn("刷新CDN缓存失败")
		return false
	}
	if resp.Code != http.StatusOK {
		logger.WithFields(logrus.Fields{
			"code":  resp.Code,
			"error": resp.Error,
		}).Warn("CDN缓存刷新被拒绝")
		return false
	}

	logger.WithField("request_id", resp.RequestID).Debug("CDN缓存已刷新")
	return true
}
