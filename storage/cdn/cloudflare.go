package cdn

import (
	"context"
	"net/http"
	"time"

	"github.com/cloudflare/cloudflare-go"

	"github.com/zzliekkas/assetgate/storage"
)

// CloudflareConfig Cloudflare缓存刷新配置
type CloudflareConfig struct {
	ZoneID     string        `mapstructure:"zone_id" validate:"required"`
	APIToken   string        `mapstructure:"api_token" validate:"required"`
	Domain     string        `mapstructure:"domain"`   // 刷新目标前缀，为空时直接提交对象键
	BaseURL    string        `mapstructure:"base_url"` // 默认使用官方API地址
	MaxRetries int           `mapstructure:"max_retries" validate:"min=0"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// DefaultCloudflareConfig 返回默认配置
func DefaultCloudflareConfig() CloudflareConfig {
	return CloudflareConfig{
		MaxRetries: 3,
		Timeout:    10 * time.Second,
	}
}

// cloudflarePurger 缓存刷新接口，*cloudflare.API实现了该接口
type cloudflarePurger interface {
	PurgeCache(ctx context.Context, zoneID string, pcr cloudflare.PurgeCacheRequest) (cloudflare.PurgeCacheResponse, error)
}

var _ cloudflarePurger = (*cloudflare.API)(nil)

// Cloudflare 基于Cloudflare API的缓存刷新
type Cloudflare struct {
	api    cloudflarePurger
	config CloudflareConfig
	options
}

// NewCloudflare 创建Cloudflare缓存刷新适配器
func NewCloudflare(cfg CloudflareConfig, opts ...Option) (*Cloudflare, error) {
	apiOptions := []cloudflare.Option{
		cloudflare.UsingRetryPolicy(cfg.MaxRetries, 1, 30),
		cloudflare.HTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		apiOptions = append(apiOptions, cloudflare.BaseURL(cfg.BaseURL))
	}

	api, err := cloudflare.NewWithAPIToken(cfg.APIToken, apiOptions...)
	if err != nil {
		return nil, err
	}
	return newCloudflareWithAPI(api, cfg, opts...), nil
}

func newCloudflareWithAPI(api cloudflarePurger, cfg CloudflareConfig, opts ...Option) *Cloudflare {
	return &Cloudflare{
		api:     api,
		config:  cfg,
		options: newOptions("cloudflare", opts),
	}
}

// InvalidateCache 实现storage.CacheInvalidator接口
func (c *Cloudflare) InvalidateCache(ctx context.Context, key string) bool {
	target := storage.ObjectTarget(c.config.Domain, key)
	return c.purge(ctx, cloudflare.PurgeCacheRequest{Files: []string{target}}, target)
}

// InvalidateDirectory 实现storage.CacheInvalidator接口，按前缀刷新
func (c *Cloudflare) InvalidateDirectory(ctx context.Context, directory string) bool {
	target := storage.DirectoryTarget(c.config.Domain, directory)
	return c.purge(ctx, cloudflare.PurgeCacheRequest{Prefixes: []string{target}}, target)
}

func (c *Cloudflare) purge(ctx context.Context, req cloudflare.PurgeCacheRequest, target string) bool {
	logger := c.logger.WithField("target", target)

	resp, err := c.api.PurgeCache(ctx, c.config.ZoneID, req)
	if err != nil {
		logger.WithError(err).Warn("刷新CDN缓存失败")
		return false
	}
	if !resp.Success {
		logger.WithField("errors", resp.Errors).Warn("CDN缓存刷新被拒绝")
		return false
	}

	logger.Debug("CDN缓存已刷新")
	return true
}
