// Package logging builds the application glog logger and adapts its
// named loggers to the printf style auth.Logger.
package logging

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"

	auth "github.com/goliatone/go-tours-auth"
)

// New returns the root logger. Named loggers come from GetLogger.
func New(name, level string, json bool) *glog.BaseLogger {
	opts := options(
		glog.WithName(name),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)

	if !json {
		opts = append(opts, glog.WithLoggerTypePretty())
	}

	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		opts = append(opts, glog.WithLevel(glog.Trace))
	}

	return glog.NewLogger(opts...)
}

func options[T any](opts ...T) []T {
	return opts
}

// Leveled is the subset of glog.Logger the adapter needs
type Leveled interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type printfLogger struct {
	l Leveled
}

// Printf formats messages before handing them to l
func Printf(l Leveled) auth.Logger {
	return printfLogger{l: l}
}

func (p printfLogger) Debug(format string, args ...any) {
	p.l.Debug(fmt.Sprintf(format, args...))
}

func (p printfLogger) Info(format string, args ...any) {
	p.l.Info(fmt.Sprintf(format, args...))
}

func (p printfLogger) Warn(format string, args ...any) {
	p.l.Warn(fmt.Sprintf(format, args...))
}

func (p printfLogger) Error(format string, args ...any) {
	p.l.Error(fmt.Sprintf(format, args...))
}
