package app

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/zzliekkas/assetgate/config"
	"github.com/zzliekkas/assetgate/di"
)

const instrumentationName = "github.com/zzliekkas/assetgate"

// Application 应用容器，持有配置、日志和依赖注入容器
type Application struct {
	config    *config.Config    // 原始配置
	settings  *config.AppConfig // 类型化配置
	container *di.Container     // 依赖注入容器
	providers *ProviderManager  // 服务提供者管理器
	logger    *logrus.Logger    // 日志记录器
	shutdowns []func(context.Context) error
}

// Option 应用选项
type Option func(*options)

type options struct {
	logOutput   io.Writer
	traceOutput io.Writer
}

// WithLogOutput 设置日志输出，默认为标准错误
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

// WithTraceOutput 设置追踪数据输出，默认为标准错误
func WithTraceOutput(w io.Writer) Option {
	return func(o *options) {
		o.traceOutput = w
	}
}

// New 创建应用，注册配置、日志和追踪器到容器
func New(cfg *config.Config, settings *config.AppConfig, opts ...Option) (*Application, error) {
	o := options{logOutput: os.Stderr, traceOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	logger, err := NewLogger(settings.Log, o.logOutput)
	if err != nil {
		return nil, err
	}

	a := &Application{
		config:    cfg,
		settings:  settings,
		container: di.New(),
		providers: NewProviderManager(),
		logger:    logger,
	}

	tracer := otel.Tracer(instrumentationName)
	if settings.Tracing.Enabled {
		tp, err := NewTracerProvider(settings.Tracing, o.traceOutput)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		tracer = tp.Tracer(instrumentationName)
		a.OnShutdown(tp.Shutdown)
	}

	for _, value := range []interface{}{cfg, settings, logger} {
		if err := a.container.ProvideValue(value); err != nil {
			return nil, err
		}
	}
	if err := a.container.Provide(func() trace.Tracer { return tracer }); err != nil {
		return nil, err
	}

	return a, nil
}

// Container 获取依赖注入容器
func (a *Application) Container() *di.Container {
	return a.container
}

// Config 获取原始配置
func (a *Application) Config() *config.Config {
	return a.config
}

// Settings 获取类型化配置
func (a *Application) Settings() *config.AppConfig {
	return a.settings
}

// Logger 获取日志记录器
func (a *Application) Logger() *logrus.Logger {
	return a.logger
}

// RegisterProvider 注册服务提供者
func (a *Application) RegisterProvider(provider ServiceProvider) {
	a.providers.Register(provider)
}

// Boot 按优先级注册并启动所有服务提供者
func (a *Application) Boot() error {
	if err := a.providers.BootAll(a); err != nil {
		return err
	}
	a.logger.WithField("env", a.config.Env()).Debug("应用启动完成")
	return nil
}

// OnShutdown 注册关闭时执行的清理函数
func (a *Application) OnShutdown(fn func(context.Context) error) {
	a.shutdowns = append(a.shutdowns, fn)
}

// Shutdown 逆序执行清理函数，返回第一个错误
func (a *Application) Shutdown(ctx context.Context) error {
	var first error
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		if err := a.shutdowns[i](ctx); err != nil {
			a.logger.WithError(err).Error("应用关闭错误")
			if first == nil {
				first = err
			}
		}
	}
	a.shutdowns = nil
	return first
}
