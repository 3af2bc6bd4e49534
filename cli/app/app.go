package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/plasmacash/plasma-go/cli/server"
	"github.com/plasmacash/plasma-go/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "PlasmaGo\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a PlasmaGo instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "plasma-go"
	ctl.Version = config.Version
	ctl.Usage = "Plasma Cash root authority node"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, server.NewCommands()...)
	return ctl
}
