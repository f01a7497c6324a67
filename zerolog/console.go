package rollbarzerolog

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Console writes client notices to a zerolog.Logger.
type Console struct {
	Logger zerolog.Logger
}

// NewConsole returns a Console for logger. The same logger may also carry a
// Writer: the Writer skips the lines the Console emits.
func NewConsole(logger zerolog.Logger) *Console {
	return &Console{Logger: logger}
}

func (c *Console) Debug(args ...any) { c.Logger.Debug().Msg(fmt.Sprint(args...)) }
func (c *Console) Info(args ...any)  { c.Logger.Info().Msg(fmt.Sprint(args...)) }
func (c *Console) Warn(args ...any)  { c.Logger.Warn().Msg(fmt.Sprint(args...)) }
func (c *Console) Error(args ...any) { c.Logger.Error().Msg(fmt.Sprint(args...)) }
