package cloud

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zzliekkas/assetgate/storage"
)

// options 各适配器共用的构造选项
type options struct {
	logger logrus.FieldLogger
	names  storage.NameGenerator
}

// Option 适配器构造选项
type Option func(*options)

// WithLogger 设置日志记录器
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNameGenerator 设置文件名生成器
func WithNameGenerator(gen storage.NameGenerator) Option {
	return func(o *options) {
		if gen != nil {
			o.names = gen
		}
	}
}

func newOptions(provider storage.Provider, opts []Option) options {
	o := options{
		logger: logrus.StandardLogger(),
		names:  storage.DefaultNameGenerator,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.WithField("provider", provider)
	return o
}

// signFunc 生成厂商签名URL
type signFunc func(key string, expiresIn time.Duration) (string, error)

// resolveURL 统一的URL策略：配置了CDN域名时始终返回CDN地址，
// 否则expiresIn大于0返回签名URL，为0返回公共URL
func resolveURL(key, cdnDomain string, expiresIn time.Duration, sign signFunc, public func(string) string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	key = storage.NormalizeKey(key)

	if cdnDomain != "" {
		return storage.JoinURL(cdnDomain, key), nil
	}
	if expiresIn > 0 {
		return sign(key, expiresIn)
	}
	return public(key), nil
}

// stripScheme 去掉端点中的协议前缀
func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimRight(endpoint, "/")
}

// scheme 根据是否启用SSL返回协议
func scheme(useSSL bool) string {
	if useSSL {
		return "https"
	}
	return "http"
}
