package main

import (
	"os"

	"github.com/zzliekkas/assetgate/cli"
	"github.com/zzliekkas/assetgate/cli/commands"
)

func main() {
	app := cli.NewAssetGateCLI()
	commands.RegisterCommands(app)

	if err := app.Run(); err != nil {
		os.Exit(1)
	}
}
