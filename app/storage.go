package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/zzliekkas/assetgate/config"
	"github.com/zzliekkas/assetgate/storage"
	"github.com/zzliekkas/assetgate/storage/cdn"
	"github.com/zzliekkas/assetgate/storage/cloud"
	"github.com/zzliekkas/assetgate/storage/local"
)

// MetricsProvider 注册Prometheus注册表和网关指标
type MetricsProvider struct {
	BaseProvider
}

// NewMetricsProvider 创建指标服务提供者
func NewMetricsProvider() *MetricsProvider {
	return &MetricsProvider{BaseProvider: NewBaseProvider("metrics", 10)}
}

// Register 实现ServiceProvider接口，指标未启用时提供nil的*storage.Metrics
func (p *MetricsProvider) Register(app *Application) error {
	c := app.Container()
	if err := c.Provide(prometheus.NewRegistry); err != nil {
		return err
	}
	return c.Provide(func(settings *config.AppConfig, reg *prometheus.Registry) (*storage.Metrics, error) {
		if !settings.Metrics.Enabled {
			return nil, nil
		}
		return storage.NewMetrics(reg)
	})
}

// StorageProvider 注册存储后端、缓存刷新器和网关
type StorageProvider struct {
	BaseProvider
}

// NewStorageProvider 创建存储服务提供者
func NewStorageProvider() *StorageProvider {
	return &StorageProvider{BaseProvider: NewBaseProvider("storage", 20)}
}

// Register 实现ServiceProvider接口
func (p *StorageProvider) Register(app *Application) error {
	c := app.Container()

	if err := c.Provide(func(cfg *config.Config, settings *config.AppConfig, logger *logrus.Logger) (storage.Storage, error) {
		return ResolveStorage(storage.Provider(settings.Storage.Default), cfg, logger)
	}); err != nil {
		return err
	}

	if err := c.Provide(func(cfg *config.Config, settings *config.AppConfig, store storage.Storage, logger *logrus.Logger) (storage.CacheInvalidator, error) {
		return cdn.ResolvePurger(settings.Storage.CDN.Driver, cfg, store, cdn.WithLogger(logger))
	}); err != nil {
		return err
	}

	return c.Provide(func(store storage.Storage, invalidator storage.CacheInvalidator, logger *logrus.Logger, metrics *storage.Metrics, tracer trace.Tracer) *storage.Gateway {
		return storage.NewGateway(store,
			storage.WithInvalidator(invalidator),
			storage.WithLogger(logger.WithField("provider", store.GetProvider())),
			storage.WithMetrics(metrics),
			storage.WithTracer(tracer),
		)
	})
}

// Boot 实现ServiceProvider接口，立即构造网关使配置错误在启动时暴露
func (p *StorageProvider) Boot(app *Application) error {
	return app.Container().Invoke(func(gateway *storage.Gateway) {
		app.Logger().WithFields(logrus.Fields{
			"provider":    gateway.GetProvider(),
			"invalidator": gateway.HasInvalidator(),
		}).Debug("存储网关已就绪")
	})
}

// ResolveStorage 根据后端标识创建存储适配器
func ResolveStorage(provider storage.Provider, loader cloud.Loader, logger logrus.FieldLogger) (storage.Storage, error) {
	if provider != storage.ProviderLocal {
		return cloud.ResolveDriver(provider, loader, cloud.WithLogger(logger))
	}

	cfg := local.DefaultConfig()
	if err := loader.Unmarshal("storage.local", &cfg); err != nil {
		return nil, fmt.Errorf("local: 读取配置失败: %w", err)
	}
	if err := config.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("local: 配置校验失败: %w", err)
	}

	store, err := local.New(cfg, local.WithLogger(logger.WithField("provider", storage.ProviderLocal)))
	if err != nil {
		return nil, err
	}
	return store, nil
}
