// Package cdn 提供CDN缓存刷新适配器，只实现storage.CacheInvalidator
package cdn

import (
	"github.com/sirupsen/logrus"
)

// Option CDN适配器选项
type Option func(*options)

type options struct {
	logger logrus.FieldLogger
}

// WithLogger 设置日志记录器
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(driver string, opts []Option) options {
	o := options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.WithField("cdn", driver)
	return o
}
