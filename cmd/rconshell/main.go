// Command rconshell is an interactive Source RCON shell: it connects
// once, then repeatedly reads a line, runs it as a command, and prints
// the reply, until the user exits.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/go-rcon/rcon"
	"github.com/go-rcon/rcon/rconshell"
)

var (
	configFile string
	prompt     string
)

func main() {
	root := &cobra.Command{
		Use:   "rconshell [server]",
		Short: "An interactive Source RCON shell.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}

	flags := root.Flags()
	flags.StringVarP(&configFile, "config", "c", rcon.DefaultConfigFile, "the configuration file")
	flags.StringVarP(&prompt, "prompt", "p", rcon.DefaultPrompt, "the shell prompt")

	if err := root.Execute(); err != nil {
		os.Exit(rconshell.ExitUserAbort)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logrus.SetLevel(logrus.InfoLevel)

	cfg, err := resolveConfig(args)
	if err != nil {
		logrus.WithError(err).Error("invalid server reference")
		os.Exit(rconshell.ExitConfigError)
	}

	if cfg.Prompt == "" || cmd.Flags().Changed("prompt") {
		cfg.Prompt = prompt
	}

	passwd, err := resolvePassword(cfg)
	if err != nil {
		logrus.WithError(err).Error("reading password")
		os.Exit(rconshell.ExitUserAbort)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	sh, err := rconshell.New(addr, passwd, os.Stdout)
	if err != nil {
		if code, ok := rconshell.ConnectErrorExitCode(err); ok {
			logrus.WithError(err).Error("connection failed")
			os.Exit(code)
		}
		return err
	}
	defer sh.Close() // nolint: errcheck

	os.Exit(sh.Run(cfg.Prompt, rconshell.HistoryFile()))
	return nil
}

// resolveConfig builds a Config either from the positional server
// reference or, when none was given, by prompting for host and port
// directly, mirroring the interactive fallback of the shell this
// command is modeled on.
func resolveConfig(args []string) (rcon.Config, error) {
	if len(args) == 1 {
		return rcon.ResolveServer(args[0], configFile)
	}

	var cfg rcon.Config
	fmt.Print("Host: ")
	if _, err := fmt.Scanln(&cfg.Host); err != nil {
		return rcon.Config{}, err
	}
	fmt.Print("Port: ")
	if _, err := fmt.Scanln(&cfg.Port); err != nil {
		return rcon.Config{}, err
	}
	return cfg, nil
}

// resolvePassword returns cfg's configured password, prompting on the
// terminal (without echo) when none was configured.
func resolvePassword(cfg rcon.Config) (string, error) {
	if cfg.Passwd != nil {
		return *cfg.Passwd, nil
	}

	fmt.Print("Password: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
