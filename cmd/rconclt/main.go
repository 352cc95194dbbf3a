// Command rconclt is a one-shot Source RCON client: connect, run a
// single command, print its reply, disconnect.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/go-rcon/rcon"
	"github.com/go-rcon/rcon/rconshell"
	"github.com/go-rcon/rcon/source"
)

var (
	configFile string
	debug      bool
	timeout    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "rconclt <server> <command> [args...]",
		Short: "A Source RCON client.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  run,
	}

	flags := root.Flags()
	flags.StringVarP(&configFile, "config", "c", rcon.DefaultConfigFile, "the configuration file")
	flags.BoolVarP(&debug, "debug", "d", false, "print additional debug information")
	flags.DurationVarP(&timeout, "timeout", "t", 0, "connection timeout")

	if err := root.Execute(); err != nil {
		os.Exit(rconshell.ExitUserAbort)
	}
}

func run(_ *cobra.Command, args []string) error {
	logrus.SetLevel(logrus.InfoLevel)
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	server, command, cmdArgs := args[0], args[1], args[2:]

	cfg, err := rcon.ResolveServer(server, configFile)
	if err != nil {
		logrus.WithError(err).Error("invalid server reference")
		os.Exit(rconshell.ExitConfigError)
	}

	var opts []source.Option
	if timeout > 0 {
		opts = append(opts, source.WithTimeout(timeout), source.WithDialTimeout(timeout))
	}

	passwd := ""
	if cfg.Passwd != nil {
		passwd = *cfg.Passwd
	}

	client, err := source.Dial(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), passwd, opts...)
	if err != nil {
		if code, ok := rconshell.ConnectErrorExitCode(err); ok {
			logrus.WithError(err).Error("connection failed")
			os.Exit(code)
		}
		return err
	}
	defer client.Close() // nolint: errcheck

	result, err := client.Run(command, cmdArgs...)
	if err != nil {
		if errors.Is(err, rcon.ErrSessionTimeout) {
			logrus.WithError(err).Error("session timed out")
			os.Exit(rconshell.ExitSessionTimeout)
		}
		return err
	}

	fmt.Println(result)
	return nil
}
