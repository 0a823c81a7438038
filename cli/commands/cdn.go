package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/zzliekkas/assetgate/cli"
	"github.com/zzliekkas/assetgate/storage"
)

// ErrNoInvalidator 未配置缓存刷新驱动
var ErrNoInvalidator = errors.New("未配置CDN缓存刷新驱动 (storage.cdn.driver)")

// ErrPurgeFailed 缓存刷新失败
var ErrPurgeFailed = errors.New("CDN缓存刷新失败")

// NewPurgeCommand 创建单对象缓存刷新命令
func NewPurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <key>",
		Short: "刷新单个对象的CDN缓存",
		Args:  cobra.ExactArgs(1),
		RunE: withGateway(func(cmd *cobra.Command, args []string, gateway *storage.Gateway) error {
			return purge(cmd, gateway, args[0], gateway.InvalidateCache)
		}),
	}
}

// NewPurgeDirCommand 创建目录缓存刷新命令
func NewPurgeDirCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-dir <directory>",
		Short: "按目录前缀刷新CDN缓存",
		Args:  cobra.ExactArgs(1),
		RunE: withGateway(func(cmd *cobra.Command, args []string, gateway *storage.Gateway) error {
			return purge(cmd, gateway, args[0], gateway.InvalidateDirectory)
		}),
	}
}

func purge(cmd *cobra.Command, gateway *storage.Gateway, target string, fn func(ctx context.Context, target string) bool) error {
	if !gateway.HasInvalidator() {
		return ErrNoInvalidator
	}
	if !fn(cmd.Context(), target) {
		return ErrPurgeFailed
	}
	cli.PrintSuccess(cmd.OutOrStdout(), "已刷新: %s", target)
	return nil
}
