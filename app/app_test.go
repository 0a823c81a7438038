package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/assetgate/config"
	"github.com/zzliekkas/assetgate/storage"
)

func newTestSettings(t *testing.T, provider string) (*config.Config, *config.AppConfig) {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Set("storage.local.root", t.TempDir())
	cfg.Set("storage.local.base_url", "https://assets.example.com")

	settings := &config.AppConfig{
		Log:     config.LogConfig{Level: "debug", Format: "text"},
		Storage: config.StorageConfig{Default: provider},
		Tracing: config.TracingConfig{ServiceName: "assetgate-test"},
	}
	return cfg, settings
}

func bootApplication(t *testing.T, cfg *config.Config, settings *config.AppConfig, opts ...Option) *Application {
	t.Helper()

	opts = append([]Option{WithLogOutput(io.Discard)}, opts...)
	application, err := New(cfg, settings, opts...)
	require.NoError(t, err)

	application.RegisterProvider(NewStorageProvider())
	application.RegisterProvider(NewMetricsProvider())
	require.NoError(t, application.Boot())
	t.Cleanup(func() {
		_ = application.Shutdown(context.Background())
	})
	return application
}

func TestApplicationBootLocalGateway(t *testing.T) {
	cfg, settings := newTestSettings(t, "local")
	application := bootApplication(t, cfg, settings)

	var gateway *storage.Gateway
	require.NoError(t, application.Container().Extract(&gateway))

	assert.Equal(t, storage.ProviderLocal, gateway.GetProvider())
	assert.False(t, gateway.HasInvalidator())

	ctx := context.Background()
	result, err := gateway.Upload(ctx, []byte("hello"), "hello.txt", &storage.UploadOptions{Directory: "docs"})
	require.NoError(t, err)
	assert.True(t, gateway.Exists(ctx, result.Key))
	assert.Equal(t, "https://assets.example.com/"+result.Key, result.URL)

	assert.True(t, application.providers.IsBooted("storage"))
	assert.True(t, application.providers.IsBooted("metrics"))
	assert.Equal(t, "metrics", application.providers.Providers()[0].Name(), "优先级小的提供者先启动")
}

func TestApplicationProviderInvalidator(t *testing.T) {
	cfg, settings := newTestSettings(t, "local")
	settings.Storage.CDN.Driver = "provider"
	application := bootApplication(t, cfg, settings)

	var gateway *storage.Gateway
	require.NoError(t, application.Container().Extract(&gateway))
	assert.False(t, gateway.HasInvalidator(), "本地存储不提供缓存刷新能力")
}

func TestApplicationMetrics(t *testing.T) {
	cfg, settings := newTestSettings(t, "local")
	settings.Metrics.Enabled = true
	application := bootApplication(t, cfg, settings)

	var gateway *storage.Gateway
	var reg *prometheus.Registry
	require.NoError(t, application.Container().Extract(&gateway))
	require.NoError(t, application.Container().Extract(&reg))

	_, err := gateway.Upload(context.Background(), []byte("data"), "a.bin", nil)
	require.NoError(t, err)

	server := httptest.NewServer(MetricsHandler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `assetgate_storage_operations_total{operation="upload",provider="local",result="success"} 1`)
}

func TestApplicationTracing(t *testing.T) {
	cfg, settings := newTestSettings(t, "local")
	settings.Tracing.Enabled = true

	var traces bytes.Buffer
	application := bootApplication(t, cfg, settings, WithTraceOutput(&traces))

	var gateway *storage.Gateway
	require.NoError(t, application.Container().Extract(&gateway))

	assert.False(t, gateway.Exists(context.Background(), "missing.txt"))
	assert.Contains(t, traces.String(), "storage.exists")
	assert.Contains(t, traces.String(), "assetgate-test")
}

func TestApplicationBootErrors(t *testing.T) {
	t.Run("测试缺少云存储配置", func(t *testing.T) {
		cfg, settings := newTestSettings(t, "aliyun-oss")
		application, err := New(cfg, settings, WithLogOutput(io.Discard))
		require.NoError(t, err)
		application.RegisterProvider(NewMetricsProvider())
		application.RegisterProvider(NewStorageProvider())

		err = application.Boot()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.oss")
	})

	t.Run("测试无效的日志级别", func(t *testing.T) {
		cfg, settings := newTestSettings(t, "local")
		settings.Log.Level = "verbose"
		_, err := New(cfg, settings)
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	logger.Info("ignored")
	logger.WithField("key", "a.txt").Warn("刷新失败")

	assert.NotContains(t, buf.String(), "ignored")
	assert.Contains(t, buf.String(), `"key":"a.txt"`)

	logger, err = NewLogger(config.LogConfig{}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestApplicationShutdown(t *testing.T) {
	cfg, settings := newTestSettings(t, "local")
	application, err := New(cfg, settings, WithLogOutput(io.Discard))
	require.NoError(t, err)

	var order []int
	application.OnShutdown(func(context.Context) error {
		order = append(order, 1)
		return nil
	})
	application.OnShutdown(func(context.Context) error {
		order = append(order, 2)
		return assert.AnError
	})

	assert.ErrorIs(t, application.Shutdown(context.Background()), assert.AnError)
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, application.Shutdown(context.Background()))
}
