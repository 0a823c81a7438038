package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/zzliekkas/assetgate/app"
	"github.com/zzliekkas/assetgate/storage"
)

// runtime 单次命令执行所需的网关和应用
type runtime struct {
	app     *app.Application
	gateway *storage.Gateway
}

// bootstrap 读取全局标志加载配置，启动应用并取出存储网关
func bootstrap(cmd *cobra.Command) (*runtime, error) {
	cfg, settings, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	application, err := app.New(cfg, settings,
		app.WithLogOutput(cmd.ErrOrStderr()),
		app.WithTraceOutput(cmd.ErrOrStderr()),
	)
	if err != nil {
		return nil, err
	}

	application.RegisterProvider(app.NewMetricsProvider())
	application.RegisterProvider(app.NewStorageProvider())
	if err := application.Boot(); err != nil {
		_ = application.Shutdown(context.Background())
		return nil, err
	}

	var gateway *storage.Gateway
	if err := application.Container().Extract(&gateway); err != nil {
		_ = application.Shutdown(context.Background())
		return nil, err
	}

	return &runtime{app: application, gateway: gateway}, nil
}

// withGateway 启动网关并执行fn，结束后关闭应用
func withGateway(fn func(cmd *cobra.Command, args []string, gateway *storage.Gateway) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer func() {
			_ = rt.app.Shutdown(context.Background())
		}()

		return fn(cmd, args, rt.gateway)
	}
}
