package logging

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var disabled = false

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Disable turns off all logging.
func Disable() {
	disabled = true
}

// Enable turns logging back on.
func Enable() {
	disabled = false
}

// SetDebug raises the global level to debug when on, info otherwise.
func SetDebug(on bool) {
	if on {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func Info(v ...any) {
	if !disabled {
		log.Info().Msg(sprint(v...))
	}
}

func Infof(format string, v ...any) {
	if !disabled {
		log.Info().Msgf(format, v...)
	}
}

func Error(v ...any) {
	if !disabled {
		log.Error().Msg(sprint(v...))
	}
}

func Errorf(format string, v ...any) {
	if !disabled {
		log.Error().Msgf(format, v...)
	}
}

func Warn(v ...any) {
	if !disabled {
		log.Warn().Msg(sprint(v...))
	}
}

func Warnf(format string, v ...any) {
	if !disabled {
		log.Warn().Msgf(format, v...)
	}
}

func Debug(v ...any) {
	if !disabled {
		log.Debug().Msg(sprint(v...))
	}
}

func Debugf(format string, v ...any) {
	if !disabled {
		log.Debug().Msgf(format, v...)
	}
}

func sprint(v ...any) string {
	if len(v) == 1 {
		if s, ok := v[0].(string); ok {
			return s
		}
	}
	out := ""
	for i, x := range v {
		if i > 0 {
			out += " "
		}
		out += toString(x)
	}
	return out
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if e, ok := v.(error); ok {
		return e.Error()
	}
	return fmt.Sprint(v)
}

// Logger is a context-scoped logging handle kept for call-site compatibility
// with code written before request-scoped fields existed.
type Logger struct {
	ctx context.Context
}

// WithContext creates a Logger carrying ctx for future field extraction
// (request ID, conversation ID) by call sites that want it.
func WithContext(ctx context.Context) Logger {
	return Logger{ctx: ctx}
}

func (l Logger) Info(v ...any)                 { Info(v...) }
func (l Logger) Infof(format string, v ...any) { Infof(format, v...) }
func (l Logger) Error(v ...any)                { Error(v...) }
func (l Logger) Errorf(format string, v ...any) { Errorf(format, v...) }
func (l Logger) Warn(v ...any)                  { Warn(v...) }
func (l Logger) Warnf(format string, v ...any)  { Warnf(format, v...) }
func (l Logger) Debug(v ...any)                 { Debug(v...) }
func (l Logger) Debugf(format string, v ...any) { Debugf(format, v...) }
