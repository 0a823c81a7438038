package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zzliekkas/assetgate/cli"
	"github.com/zzliekkas/assetgate/config"
)

// sensitivePatterns 包含这些片段的键视为敏感配置
var sensitivePatterns = []string{"password", "secret", "token", "key"}

// NewConfigCommand 创建配置查看命令
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"conf", "cfg"},
		Short:   "查看生效的配置",
		Long:    `查看合并默认值、配置文件、环境配置和环境变量之后的生效配置。`,
	}

	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigListCommand())

	return cmd
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "获取配置值",
		Long:  `获取指定键的配置值，支持点号表示法访问嵌套配置，如 "storage.default"。`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			key := args[0]
			if !cfg.Has(key) {
				return fmt.Errorf("配置 '%s' 不存在", key)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Get(key))
			return nil
		},
	}
}

func newConfigListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "列出所有配置",
		Args:    cobra.NoArgs,
		RunE:    listConfig,
	}

	cmd.Flags().StringP("filter", "f", "", "按键名筛选（支持部分匹配）")
	cmd.Flags().BoolP("hide-sensitive", "s", true, "隐藏敏感信息（如密钥和令牌）")

	return cmd
}

func listConfig(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	filter, _ := cmd.Flags().GetString("filter")
	hideSensitive, _ := cmd.Flags().GetBool("hide-sensitive")

	keys := cfg.AllKeys()
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	if used := cfg.ConfigFileUsed(); used != "" {
		cli.PrintInfo(out, "配置文件: %s", used)
	}
	for _, key := range keys {
		if filter != "" && !strings.Contains(key, filter) {
			continue
		}
		value := fmt.Sprint(cfg.Get(key))
		if hideSensitive && isSensitiveKey(key) && value != "" {
			value = "******"
		}
		fmt.Fprintf(out, "%s = %s\n", key, value)
	}
	return nil
}

// loadConfig 按全局标志加载配置，不启动存储网关
func loadConfig(cmd *cobra.Command) (*config.Config, *config.AppConfig, error) {
	configFile, _ := cmd.Flags().GetString("config")
	env, _ := cmd.Flags().GetString("env")

	options := []config.ConfigOption{config.WithEnvironment(env)}
	if configFile != "" {
		options = append(options, config.WithConfigFile(configFile))
	}

	return config.Load(options...)
}

func isSensitiveKey(key string) bool {
	lowKey := strings.ToLower(key)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lowKey, pattern) {
			return true
		}
	}
	return false
}
