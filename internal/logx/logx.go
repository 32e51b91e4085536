// Package logx configures the process-wide dspy-go logger from quorum's
// log level setting.
package logx

import (
	"fmt"
	"os"
	"strings"

	"github.com/XiaoConstantine/dspy-go/pkg/logging"
	"github.com/mattn/go-isatty"
)

// Levels lists the accepted level names.
var Levels = []string{"debug", "info", "warn", "error"}

// New builds a logger writing to stderr at the named level. An empty level
// means info.
func New(level string, color bool) (*logging.Logger, error) {
	cfg := logging.Config{
		Severity: logging.INFO,
		Outputs:  []logging.Output{logging.NewConsoleOutput(true, logging.WithColor(color))},
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
	case "debug":
		cfg.Severity = logging.DEBUG
	case "warn", "warning":
		cfg.Severity = logging.WARN
	case "error":
		cfg.Severity = logging.ERROR
	default:
		return nil, fmt.Errorf("unknown log level %q (want one of %s)", level, strings.Join(Levels, ", "))
	}
	return logging.NewLogger(cfg), nil
}

// Setup builds a logger and installs it as the global one returned by
// logging.GetLogger. Color is used only when stderr is a terminal.
func Setup(level string, color bool) (*logging.Logger, error) {
	logger, err := New(level, color && IsTerminal(os.Stderr))
	if err != nil {
		return nil, err
	}
	logging.SetLogger(logger)
	return logger, nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
