package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/zzliekkas/assetgate/storage"

// Gateway 存储网关，绑定一个存储后端和可选的缓存刷新器，对外提供统一的操作入口
//
// Gateway 只依赖Storage和CacheInvalidator两个接口，不感知具体厂商。
// 它不持有可变状态，可被多个goroutine并发使用。
type Gateway struct {
	store       Storage
	invalidator CacheInvalidator
	logger      logrus.FieldLogger
	metrics     *Metrics
	tracer      trace.Tracer
}

// GatewayOption 网关选项
type GatewayOption func(*Gateway)

// WithInvalidator 设置缓存刷新器，nil表示不刷新
func WithInvalidator(invalidator CacheInvalidator) GatewayOption {
	return func(g *Gateway) {
		g.invalidator = invalidator
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger logrus.FieldLogger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(metrics *Metrics) GatewayOption {
	return func(g *Gateway) {
		g.metrics = metrics
	}
}

// WithTracer 设置链路追踪器
func WithTracer(tracer trace.Tracer) GatewayOption {
	return func(g *Gateway) {
		if tracer != nil {
			g.tracer = tracer
		}
	}
}

// NewGateway 创建存储网关
func NewGateway(store Storage, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:  store,
		logger: logrus.StandardLogger(),
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Upload 上传文件，成功后尽力刷新该对象的CDN缓存
func (g *Gateway) Upload(ctx context.Context, data []byte, originalName string, opts *UploadOptions) (*UploadResult, error) {
	ctx, span := g.startSpan(ctx, "storage.upload")
	defer span.End()

	result, err := g.store.Upload(ctx, data, originalName, opts)
	g.metrics.ObserveOperation(g.GetProvider(), "upload", err == nil)
	if err != nil {
		g.fail(span, err)
		g.logger.WithFields(logrus.Fields{
			"provider":      g.GetProvider(),
			"original_name": originalName,
		}).WithError(err).Error("上传文件失败")
		return nil, err
	}

	span.SetAttributes(attribute.String("storage.key", result.Key))
	g.logger.WithFields(logrus.Fields{
		"provider": result.Provider,
		"key":      result.Key,
		"size":     result.Size,
	}).Debug("上传文件成功")

	g.purge(ctx, result.Key)
	return result, nil
}

// Delete 删除对象，成功后尽力刷新该对象的CDN缓存
func (g *Gateway) Delete(ctx context.Context, key string) error {
	ctx, span := g.startSpan(ctx, "storage.delete", attribute.String("storage.key", key))
	defer span.End()

	err := g.store.Delete(ctx, key)
	g.metrics.ObserveOperation(g.GetProvider(), "delete", err == nil)
	if err != nil {
		g.fail(span, err)
		g.logger.WithFields(logrus.Fields{
			"provider": g.GetProvider(),
			"key":      key,
		}).WithError(err).Error("删除文件失败")
		return err
	}

	g.purge(ctx, key)
	return nil
}

// Exists 检查对象是否存在
func (g *Gateway) Exists(ctx context.Context, key string) bool {
	ctx, span := g.startSpan(ctx, "storage.exists", attribute.String("storage.key", key))
	defer span.End()

	exists := g.store.Exists(ctx, key)
	g.metrics.ObserveOperation(g.GetProvider(), "exists", true)
	span.SetAttributes(attribute.Bool("storage.exists", exists))
	return exists
}

// GetURL 获取对象URL，expiresIn为0时返回不带签名的URL
func (g *Gateway) GetURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	ctx, span := g.startSpan(ctx, "storage.get_url", attribute.String("storage.key", key))
	defer span.End()

	url, err := g.store.GetURL(ctx, key, expiresIn)
	g.metrics.ObserveOperation(g.GetProvider(), "get_url", err == nil)
	if err != nil {
		g.fail(span, err)
		return "", err
	}
	return url, nil
}

// GetProvider 返回当前存储后端标识
func (g *Gateway) GetProvider() Provider {
	return g.store.GetProvider()
}

// HasInvalidator 是否配置了缓存刷新器
func (g *Gateway) HasInvalidator() bool {
	return g.invalidator != nil
}

// InvalidateCache 刷新单个对象的CDN缓存，未配置刷新器时返回false
func (g *Gateway) InvalidateCache(ctx context.Context, key string) bool {
	if g.invalidator == nil {
		return false
	}
	return g.invalidate(ctx, "object", key, g.invalidator.InvalidateCache)
}

// InvalidateDirectory 刷新目录前缀的CDN缓存，未配置刷新器时返回false
func (g *Gateway) InvalidateDirectory(ctx context.Context, directory string) bool {
	if g.invalidator == nil {
		return false
	}
	return g.invalidate(ctx, "directory", directory, g.invalidator.InvalidateDirectory)
}

// purge 写操作之后的缓存刷新，结果只记录日志和指标
func (g *Gateway) purge(ctx context.Context, key string) {
	if g.invalidator == nil {
		return
	}
	g.invalidate(ctx, "object", key, g.invalidator.InvalidateCache)
}

func (g *Gateway) invalidate(ctx context.Context, target, value string, fn func(context.Context, string) bool) (ok bool) {
	ctx, span := g.startSpan(ctx, "storage.invalidate",
		attribute.String("storage.invalidation_target", target),
		attribute.String("storage.key", value),
	)
	defer span.End()

	logger := g.logger.WithFields(logrus.Fields{
		"provider": g.GetProvider(),
		"target":   target,
		"key":      value,
	})

	// 刷新器的panic同样只算作一次失败
	defer func() {
		if r := recover(); r != nil {
			ok = false
			g.fail(span, fmt.Errorf("storage: 缓存刷新panic: %v", r))
			logger.Errorf("缓存刷新异常: %v", r)
		}
		g.metrics.ObserveInvalidation(target, ok)
		span.SetAttributes(attribute.Bool("storage.invalidated", ok))
	}()

	ok = fn(ctx, value)
	if ok {
		logger.Debug("缓存刷新成功")
	} else {
		logger.Warn("缓存刷新失败")
	}
	return ok
}

func (g *Gateway) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("storage.provider", g.GetProvider().String()))
	return g.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (g *Gateway) fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
