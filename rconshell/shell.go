// Package rconshell implements the interactive RCON shell: a thin
// composition of a Source client, line editing with persisted history,
// and the session's one automatic recovery policy — retry once after
// re-authenticating when a command reply no longer correlates with its
// request.
package rconshell

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"

	"github.com/go-rcon/rcon"
	"github.com/go-rcon/rcon/source"
)

// Exit codes returned by Run and ConnectErrorExitCode, per the shell's
// documented external contract.
const (
	ExitOK                = 0
	ExitUserAbort         = 1
	ExitConfigError       = 2
	ExitConnectionRefused = 3
	ExitTimeout           = 4
	ExitWrongPassword     = 5
	ExitSessionTimeout    = 6
)

var exitCommands = map[string]bool{"exit": true, "quit": true}

// HistoryFile returns the default persisted history file location,
// $HOME/.rconshell_history, or "" if $HOME can't be resolved — in which
// case the shell runs without history, same as the non-POSIX fallback
// it's modeled on.
func HistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rconshell_history")
}

// Shell is one interactive RCON session: a live Source connection, a
// line editor, and the retry-once-on-session-timeout policy.
type Shell struct {
	passwd string
	client *source.Client
	out    io.Writer
	log    logrus.FieldLogger
}

// New dials addr and authenticates with passwd, returning a Shell ready
// for Run. On failure, translate err with ConnectErrorExitCode.
func New(addr, passwd string, out io.Writer, opts ...source.Option) (*Shell, error) {
	client, err := source.Dial(addr, passwd, opts...)
	if err != nil {
		return nil, err
	}

	return &Shell{
		passwd: passwd,
		client: client,
		out:    out,
		log:    logrus.WithField("component", "rconshell"),
	}, nil
}

// Close releases the underlying connection.
func (s *Shell) Close() error {
	return s.client.Close()
}

// ConnectErrorExitCode maps a Dial/Login error to its documented exit
// code. ok is false if err doesn't match one of the recognized kinds.
func ConnectErrorExitCode(err error) (code int, ok bool) {
	switch {
	case errors.Is(err, rcon.ErrWrongPassword):
		return ExitWrongPassword, true
	case errors.Is(err, syscall.ECONNREFUSED):
		return ExitConnectionRefused, true
	case isNetTimeout(err):
		return ExitTimeout, true
	default:
		return 0, false
	}
}

func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Run drives the read-eval-print loop until the user types exit/quit,
// EOF is reached on stdin, or the session fails irrecoverably. history,
// when non-empty, names a file loaded on entry and persisted on exit.
func (s *Shell) Run(prompt, history string) int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		s.log.WithError(err).Error("failed to initialize line editor")
		return ExitConfigError
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(s.out, "Bye.")
			return ExitOK
		case err != nil:
			s.log.WithError(err).Error("reading command")
			return ExitUserAbort
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		command, args := fields[0], fields[1:]
		if exitCommands[command] {
			code, handled := s.handleExit(args)
			if handled {
				return code
			}
			continue
		}

		result, err := s.exec(command, args)
		if err != nil {
			if errors.Is(err, rcon.ErrWrongPassword) {
				fmt.Fprintln(s.out, "Login aborted. Bye.")
				return ExitWrongPassword
			}
			if errors.Is(err, rcon.ErrSessionTimeout) {
				fmt.Fprintln(s.out, "Session timed out. Please login again.")
				return ExitSessionTimeout
			}
			s.log.WithError(err).Error("command failed")
			return ExitSessionTimeout
		}

		fmt.Fprintln(s.out, result)
	}
}

// handleExit parses the exit/quit command's optional exit-code
// argument. handled is false if the argument was malformed, in which
// case the shell prints usage and keeps running.
func (s *Shell) handleExit(args []string) (code int, handled bool) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Bye.")
		return ExitOK, true
	}

	code, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(s.out, "Usage: exit [<exit_code>].")
		return 0, false
	}

	fmt.Fprintln(s.out, "Bye.")
	return code, true
}

// exec runs command against the live session, retrying exactly once
// after re-authenticating if the reply no longer correlates with the
// request (rcon.ErrSessionTimeout): the server may have expired the
// session between commands. A second failure is fatal.
func (s *Shell) exec(command string, args []string) (string, error) {
	result, err := s.client.Run(command, args...)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, rcon.ErrSessionTimeout) {
		return "", err
	}

	s.log.Warn("session timed out, re-authenticating")
	if loginErr := s.client.Login(s.passwd); loginErr != nil {
		return "", loginErr
	}

	return s.client.Run(command, args...)
}
