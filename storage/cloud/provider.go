package cloud

import (
	"fmt"

	"github.com/zzliekkas/assetgate/config"
	"github.com/zzliekkas/assetgate/storage"
)

// Loader 按键读取配置段，*config.Config实现了该接口
type Loader interface {
	Unmarshal(key string, rawVal interface{}) error
}

// sections 各后端对应的配置段
var sections = map[storage.Provider]string{
	storage.ProviderAliyunOSS:  "storage.oss",
	storage.ProviderTencentCOS: "storage.cos",
	storage.ProviderMinIO:      "storage.minio",
	storage.ProviderAWSS3:      "storage.s3",
	storage.ProviderQiniuKodo:  "storage.qiniu",
}

// Section 返回后端的配置段名称
func Section(provider storage.Provider) (string, bool) {
	section, ok := sections[provider]
	return section, ok
}

// ResolveDriver 根据后端标识读取配置并创建云存储适配器
func ResolveDriver(provider storage.Provider, loader Loader, opts ...Option) (storage.Storage, error) {
	section, ok := sections[provider]
	if !ok {
		return nil, fmt.Errorf("cloud: %w '%s'", storage.ErrUnknownProvider, provider)
	}

	switch provider {
	case storage.ProviderAliyunOSS:
		cfg := DefaultOSSConfig()
		if err := load(loader, section, &cfg); err != nil {
			return nil, err
		}
		return build[*AliyunOSS](NewOSS(cfg, opts...))
	case storage.ProviderTencentCOS:
		cfg := DefaultCOSConfig()
		if err := load(loader, section, &cfg); err != nil {
			return nil, err
		}
		return build[*TencentCOS](NewCOS(cfg, opts...))
	case storage.ProviderMinIO:
		var cfg MinIOConfig
		if err := load(loader, section, &cfg); err != nil {
			return nil, err
		}
		return build[*MinIO](NewMinIO(cfg, opts...))
	case storage.ProviderAWSS3:
		cfg := DefaultS3Config()
		if err := load(loader, section, &cfg); err != nil {
			return nil, err
		}
		return build[*AWSS3](NewS3(cfg, opts...))
	default:
		var cfg QiniuConfig
		if err := load(loader, section, &cfg); err != nil {
			return nil, err
		}
		return build[*QiniuKodo](NewQiniu(cfg, opts...))
	}
}

// build 构造失败时返回nil接口而不是带类型的nil指针
func build[T storage.Storage](s T, err error) (storage.Storage, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// load 读取并校验配置段
func load(loader Loader, section string, cfg interface{}) error {
	if err := loader.Unmarshal(section, cfg); err != nil {
		return fmt.Errorf("cloud: 读取配置 '%s' 失败: %w", section, err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("cloud: 配置 '%s' 校验失败: %w", section, err)
	}
	return nil
}
