// Copyright 2019 The ethergo Authors
// This file is part of the ethergo library.
//
// The ethergo library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ethergo library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ethergo library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the key-value logger handed out to each module. Context is given
// as alternating key/value pairs, e.g. logger.Info("imported", "number", n).
type Logger interface {
	NewWith(ctx ...interface{}) Logger

	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
}

var (
	baseLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	baseCore  zapcore.Core
)

func init() {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	baseCore = zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		baseLevel,
	)
}

// ChangeGlobalLogLevel adjusts the level for every module logger at once.
// Levels follow the usual verbosity flag: 0=crit .. 4=debug.
func ChangeGlobalLogLevel(verbosity int) {
	switch {
	case verbosity <= 0:
		baseLevel.SetLevel(zapcore.FatalLevel)
	case verbosity == 1:
		baseLevel.SetLevel(zapcore.ErrorLevel)
	case verbosity == 2:
		baseLevel.SetLevel(zapcore.WarnLevel)
	case verbosity == 3:
		baseLevel.SetLevel(zapcore.InfoLevel)
	default:
		baseLevel.SetLevel(zapcore.DebugLevel)
	}
}

type zapLogger struct {
	sl *zap.SugaredLogger
}

// NewModuleLogger returns the logger for the given module. The module name is
// attached to every entry.
func NewModuleLogger(mi ModuleID) Logger {
	zl := zap.New(baseCore).WithOptions(zap.AddCallerSkip(1))
	return &zapLogger{sl: zl.Sugar().With("module", mi.String())}
}

func (l *zapLogger) NewWith(ctx ...interface{}) Logger {
	return &zapLogger{sl: l.sl.With(ctx...)}
}

func (l *zapLogger) Debug(msg string, ctx ...interface{}) {
	l.sl.Debugw(msg, ctx...)
}

func (l *zapLogger) Info(msg string, ctx ...interface{}) {
	l.sl.Infow(msg, ctx...)
}

func (l *zapLogger) Warn(msg string, ctx ...interface{}) {
	l.sl.Warnw(msg, ctx...)
}

func (l *zapLogger) Error(msg string, ctx ...interface{}) {
	l.sl.Errorw(msg, ctx...)
}

// Crit logs the message and terminates the process.
func (l *zapLogger) Crit(msg string, ctx ...interface{}) {
	l.sl.Fatalw(msg, ctx...)
}
