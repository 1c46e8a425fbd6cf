package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/wpphist/internal/daemon"
	"github.com/matheus3301/wpphist/internal/session"
	"go.uber.org/fx"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	configFlag := flag.String("config", "", "config file path (default: "+session.ConfigPath()+")")
	socketFlag := flag.String("socket", "", "unix socket path (default: inside the session directory)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{
			SessionName: sessionName,
			SocketPath:  *socketFlag,
			ConfigPath:  *configFlag,
		}),
	)

	app.Run()
}
