package banner

import (
	"io"
	"strings"

	"github.com/fatih/color"
)

// Banner 标准大小的AssetGate标志
const Banner = `
    _                   _    ____       _
   / \   ___ ___  ___  | |_ / ___| __ _| |_ ___
  / _ \ / __/ __|/ _ \ | __| |  _ / _' | __/ _ \
 / ___ \\__ \__ \  __/ | |_| |_| | (_| | ||  __/
/_/   \_\___/___/\___|  \__|\____|\__,_|\__\___|  %s
                                     %s
`

// SmallBanner 紧凑的标志
const SmallBanner = `
  ┌─┐┌─┐┌─┐┌─┐┌┬┐┌─┐┌─┐┌┬┐┌─┐
  ├─┤└─┐└─┐├┤  │ │ ┬├─┤ │ ├┤
  ┴ ┴└─┘└─┘└─┘ ┴ └─┘┴ ┴ ┴ └─┘
  %s - %s
`

// PrintWithSize 打印指定大小的标志
// size可以是："none", "small", "normal"
func PrintWithSize(w io.Writer, version, description, size string) {
	var banner string

	switch strings.ToLower(size) {
	case "none":
		return
	case "normal":
		banner = Banner
	default:
		banner = SmallBanner
	}

	color.New(color.FgCyan).Fprintf(w, banner, version, description)
}
