package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zzliekkas/assetgate/cli/banner"
)

// App 命令行应用
type App struct {
	// 应用名称
	Name string

	// 应用版本
	Version string

	// 应用描述
	Description string

	rootCmd  *cobra.Command
	commands []*cobra.Command
}

// NewApp 创建命令行应用，注册全局的--config和--env标志
func NewApp(name, version, description string) *App {
	app := &App{
		Name:        name,
		Version:     version,
		Description: description,
		commands:    make([]*cobra.Command, 0),
	}

	app.rootCmd = &cobra.Command{
		Use:           app.Name,
		Short:         app.Description,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := app.rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "配置文件路径，默认读取 ./config/config.yaml")
	flags.StringP("env", "e", "development", "运行环境，存在 config.<env>.yaml 时合并到基础配置")

	return app
}

// NewAssetGateCLI 创建默认的命令行应用
func NewAssetGateCLI() *App {
	return NewApp("assetgate", "0.1.0", "对象存储网关命令行工具")
}

// AddCommand 添加一个命令到应用
func (a *App) AddCommand(cmd *cobra.Command) {
	a.commands = append(a.commands, cmd)
	a.rootCmd.AddCommand(cmd)
}

// Root 返回根命令
func (a *App) Root() *cobra.Command {
	return a.rootCmd
}

// Commands 返回已添加的命令
func (a *App) Commands() []*cobra.Command {
	return a.commands
}

// SetOutput 设置标准输出和错误输出
func (a *App) SetOutput(out, errOut io.Writer) {
	a.rootCmd.SetOut(out)
	a.rootCmd.SetErr(errOut)
}

// Execute 使用给定参数执行命令
func (a *App) Execute(args []string) error {
	a.rootCmd.SetArgs(args)
	return a.rootCmd.Execute()
}

// Run 运行命令行应用，标志大小由ASSETGATE_BANNER_SIZE控制，none表示不打印
func (a *App) Run() error {
	banner.PrintWithSize(os.Stderr, a.Version, a.Description, os.Getenv("ASSETGATE_BANNER_SIZE"))

	if err := a.rootCmd.Execute(); err != nil {
		PrintError(os.Stderr, "%v", err)
		return err
	}
	return nil
}

// PrintError 打印错误信息
func PrintError(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(w, "✗ "+format+"\n", args...)
}

// PrintSuccess 打印成功信息
func PrintSuccess(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintInfo 打印信息
func PrintInfo(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "→ "+format+"\n", args...)
}

// PrintWarning 打印警告信息
func PrintWarning(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(w, "⚠ "+format+"\n", args...)
}
