package commands

import "github.com/zzliekkas/assetgate/cli"

// RegisterCommands 将所有命令注册到CLI应用
func RegisterCommands(app *cli.App) {
	// 对象操作
	app.AddCommand(NewUploadCommand())
	app.AddCommand(NewDeleteCommand())
	app.AddCommand(NewExistsCommand())
	app.AddCommand(NewURLCommand())

	// 缓存刷新
	app.AddCommand(NewPurgeCommand())
	app.AddCommand(NewPurgeDirCommand())

	// 配置与后端信息
	app.AddCommand(NewConfigCommand())
	app.AddCommand(NewProvidersCommand())
}
