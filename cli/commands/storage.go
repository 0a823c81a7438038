package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/zzliekkas/assetgate/cli"
	"github.com/zzliekkas/assetgate/storage"
	"github.com/zzliekkas/assetgate/storage/cloud"
)

// NewUploadCommand 创建上传命令
func NewUploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "上传文件",
		Long:  `上传本地文件到配置的存储后端，成功后按配置刷新CDN缓存。`,
		Args:  cobra.ExactArgs(1),
		RunE:  withGateway(uploadFile),
	}

	cmd.Flags().StringP("dir", "d", "", "对象键前缀")
	cmd.Flags().StringP("name", "n", "", "文件名（不含扩展名），为空时自动生成")
	cmd.Flags().String("content-type", "", "覆盖按扩展名推断的内容类型")
	cmd.Flags().Bool("private", false, "上传为私有对象")
	cmd.Flags().StringToString("meta", nil, "自定义元数据，格式 key=value")
	cmd.Flags().Bool("json", false, "以JSON格式输出结果")

	return cmd
}

// NewDeleteCommand 创建删除命令
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <key>",
		Aliases: []string{"rm"},
		Short:   "删除对象",
		Long:    `删除对象，对象不存在时同样视为成功。`,
		Args:    cobra.ExactArgs(1),
		RunE: withGateway(func(cmd *cobra.Command, args []string, gateway *storage.Gateway) error {
			if err := gateway.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "已删除: %s", args[0])
			return nil
		}),
	}
}

// NewExistsCommand 创建存在性检查命令
func NewExistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <key>",
		Short: "检查对象是否存在",
		Args:  cobra.ExactArgs(1),
		RunE: withGateway(func(cmd *cobra.Command, args []string, gateway *storage.Gateway) error {
			if gateway.Exists(cmd.Context(), args[0]) {
				cli.PrintSuccess(cmd.OutOrStdout(), "存在: %s", args[0])
			} else {
				cli.PrintWarning(cmd.OutOrStdout(), "不存在: %s", args[0])
			}
			return nil
		}),
	}
}

// NewURLCommand 创建获取URL命令
func NewURLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url <key>",
		Short: "获取对象访问URL",
		Long:  `获取对象访问URL，--expires大于0时返回签名URL；配置了CDN域名时始终返回CDN地址。`,
		Args:  cobra.ExactArgs(1),
		RunE: withGateway(func(cmd *cobra.Command, args []string, gateway *storage.Gateway) error {
			expires, _ := cmd.Flags().GetDuration("expires")
			url, err := gateway.GetURL(cmd.Context(), args[0], expires)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		}),
	}

	cmd.Flags().Duration("expires", 0, "签名URL有效期，例如 15m")

	return cmd
}

// NewProvidersCommand 创建后端列表命令，不需要加载配置
func NewProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "列出支持的存储后端",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, provider := range storage.Providers() {
				section, ok := cloud.Section(provider)
				if !ok {
					section = "storage.local"
				}
				fmt.Fprintf(out, "%-12s %s\n", provider, section)
			}
			return nil
		},
	}
}

func uploadFile(cmd *cobra.Command, args []string, gateway *storage.Gateway) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}

	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	name, _ := flags.GetString("name")
	contentType, _ := flags.GetString("content-type")
	private, _ := flags.GetBool("private")
	meta, _ := flags.GetStringToString("meta")
	asJSON, _ := flags.GetBool("json")

	opts := &storage.UploadOptions{
		FileName:    name,
		Directory:   dir,
		ContentType: contentType,
		Metadata:    meta,
	}
	if private {
		opts.IsPublic = storage.Bool(false)
	}

	start := time.Now()
	result, err := gateway.Upload(cmd.Context(), data, filepath.Base(path), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	cli.PrintSuccess(out, "上传完成 (%s)", time.Since(start).Round(time.Millisecond))
	cli.PrintInfo(out, "键: %s", result.Key)
	cli.PrintInfo(out, "URL: %s", result.URL)
	cli.PrintInfo(out, "大小: %d 字节, 类型: %s", result.Size, result.ContentType)
	return nil
}
