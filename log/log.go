// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides package scoped structured loggers on top of the
// go-ethereum slog based logger. Loggers created at package init resolve
// the root logger on every call, so handlers installed later by the
// command line still apply.
package log

import (
	"context"
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Legacy verbosity levels, as accepted by the --verbosity flag.
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

// Logger writes key/value pairs to the root handler.
type Logger interface {
	With(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

type ctxLogger struct {
	ctx []any
}

// WithContext returns a logger that prepends ctx to every record.
func WithContext(ctx ...any) Logger {
	return &ctxLogger{ctx: ctx}
}

func (l *ctxLogger) With(ctx ...any) Logger {
	return &ctxLogger{ctx: append(l.ctx[:len(l.ctx):len(l.ctx)], ctx...)}
}

func (l *ctxLogger) write(lvl slog.Level, msg string, ctx []any) {
	root := ethlog.Root()
	if !root.Enabled(context.Background(), lvl) {
		return
	}
	root.Log(lvl, msg, append(l.ctx[:len(l.ctx):len(l.ctx)], ctx...)...)
}

func (l *ctxLogger) Trace(msg string, ctx ...any) { l.write(ethlog.LevelTrace, msg, ctx) }
func (l *ctxLogger) Debug(msg string, ctx ...any) { l.write(ethlog.LevelDebug, msg, ctx) }
func (l *ctxLogger) Info(msg string, ctx ...any)  { l.write(ethlog.LevelInfo, msg, ctx) }
func (l *ctxLogger) Warn(msg string, ctx ...any)  { l.write(ethlog.LevelWarn, msg, ctx) }
func (l *ctxLogger) Error(msg string, ctx ...any) { l.write(ethlog.LevelError, msg, ctx) }

var root = WithContext()

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) { root.Info(msg, ctx...) }

// Warn logs at warn level on the root logger.
func Warn(msg string, ctx ...any) { root.Warn(msg, ctx...) }

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }

// Setup installs the root handler. Records above the legacy verbosity are dropped.
func Setup(w io.Writer, verbosity int, json, useColor bool) {
	level := ethlog.FromLegacyLevel(verbosity)

	var h slog.Handler
	if json {
		h = ethlog.JSONHandlerWithLevel(w, level)
	} else {
		h = ethlog.NewTerminalHandlerWithLevel(w, level, useColor)
	}
	ethlog.SetDefault(ethlog.NewLogger(h))
}
