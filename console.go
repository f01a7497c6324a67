package rollbar

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Console is the local sink for the verbose echo and for client notices.
// *logrus.Logger satisfies it.
type Console interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

// consoleTagPrefix starts every line the client writes to its Console.
const consoleTagPrefix = "[ROLLBAR "

// IsConsoleLine reports whether msg was written by a Client to its Console.
// Logger integrations drop such messages, so a logger that is both the
// Console and an occurrence source does not report its own echo.
func IsConsoleLine(msg string) bool {
	return strings.HasPrefix(msg, consoleTagPrefix)
}

// Local notices written to the Console.
const (
	noticeSkippingDuplicate = "[ROLLBAR CLIENT] Skipping duplicate error"
	noticeIgnoring          = "[ROLLBAR CLIENT] Ignoring occurrence"
	noticeBeaconFailed      = "[ROLLBAR COMMUNICATION ERROR] sendBeacon() failed; falling back to fetch()"
)

// NewConsole returns the default Console: a logrus text logger on stderr
// that lets every level through.
func NewConsole() Console {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logger
}

// echo mirrors an occurrence at the console method matching its level.
func echo(console Console, o Occurrence) {
	args := []any{o.Title}
	if o.Error != nil {
		args = append(args, o.Error)
	}

	switch o.Level {
	case LevelCritical:
		console.Error(consoleLine("[ROLLBAR CRITICAL]", args...))
	case LevelError:
		console.Error(consoleLine("[ROLLBAR ERROR]", args...))
	case LevelWarning:
		console.Warn(consoleLine("[ROLLBAR WARNING]", args...))
	case LevelInfo:
		console.Info(consoleLine("[ROLLBAR INFO]", args...))
	case LevelDebug:
		console.Debug(consoleLine("[ROLLBAR DEBUG]", args...))
	}
}

// consoleLine joins a tag and its arguments with single spaces.
func consoleLine(tag string, args ...any) string {
	var b strings.Builder
	b.WriteString(tag)
	for _, arg := range args {
		b.WriteByte(' ')
		fmt.Fprint(&b, arg)
	}
	return b.String()
}
