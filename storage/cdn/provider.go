package cdn

import (
	"errors"
	"fmt"

	"github.com/zzliekkas/assetgate/config"
	"github.com/zzliekkas/assetgate/storage"
)

const (
	// DriverNone 不启用缓存刷新
	DriverNone = ""

	// DriverCloudflare Cloudflare
	DriverCloudflare = "cloudflare"

	// DriverQiniu 七牛融合CDN
	DriverQiniu = "qiniu"

	// DriverProvider 复用存储后端自身的刷新能力
	DriverProvider = "provider"
)

// ErrUnknownDriver 未知的刷新驱动
var ErrUnknownDriver = errors.New("未知的CDN刷新驱动")

// Loader 按键读取配置段
type Loader interface {
	Unmarshal(key string, rawVal interface{}) error
}

// ResolvePurger 根据驱动名称创建缓存刷新适配器，未启用时返回nil
//
// DriverProvider要求store实现storage.CacheInvalidator，否则同样返回nil。
func ResolvePurger(driver string, loader Loader, store storage.Storage, opts ...Option) (storage.CacheInvalidator, error) {
	switch driver {
	case DriverNone:
		return nil, nil
	case DriverCloudflare:
		cfg := DefaultCloudflareConfig()
		if err := load(loader, "storage.cdn.cloudflare", &cfg); err != nil {
			return nil, err
		}
		purger, err := NewCloudflare(cfg, opts...)
		if err != nil {
			return nil, fmt.Errorf("cdn: 创建Cloudflare客户端失败: %w", err)
		}
		return purger, nil
	case DriverQiniu:
		var cfg QiniuConfig
		if err := load(loader, "storage.cdn.qiniu", &cfg); err != nil {
			return nil, err
		}
		return NewQiniu(cfg, opts...), nil
	case DriverProvider:
		if store == nil {
			return nil, nil
		}
		invalidator, ok := storage.SupportsInvalidation(store)
		if !ok {
			return nil, nil
		}
		return invalidator, nil
	default:
		return nil, fmt.Errorf("cdn: %w '%s'", ErrUnknownDriver, driver)
	}
}

func load(loader Loader, section string, cfg interface{}) error {
	if err := loader.Unmarshal(section, cfg); err != nil {
		return fmt.Errorf("cdn: 读取配置 '%s' 失败: %w", section, err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("cdn: 配置 '%s' 校验失败: %w", section, err)
	}
	return nil
}
