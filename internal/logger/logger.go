// SPDX-License-Identifier: Apache-2.0

// Package logger provides a thin wrapper around zerolog.Logger with
// convenience constructors and context helpers used throughout the SDK.
//
// Logging never records key material, plaintext, or decrypted metadata;
// object uids and operation names are the only identifying fields.
package logger

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger embeds zerolog.Logger so the full zerolog API is available
// directly, while keeping room for SDK-specific helpers.
type Logger struct {
	zerolog.Logger
}

// New constructs a *Logger writing JSON to os.Stderr, tagged with a
// component field for filtering.
func New(component string, level zerolog.Level) *Logger {
	return NewWithOutput(component, level, os.Stderr)
}

// NewWithOutput is New with an explicit output writer, used by tests.
func NewWithOutput(component string, level zerolog.Level, w io.Writer) *Logger {
	l := zerolog.New(w).Level(level).With().
		Str("component", component).
		Timestamp().
		Logger()
	return &Logger{l}
}

// Nop returns a *Logger that discards everything. Intended for tests
// and for embedding the SDK where the host application logs itself.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// WithContext stores the logger in ctx for retrieval by FromContext.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.Logger.WithContext(ctx)
}

// FromContext extracts the logger stored in ctx. When none was
// attached, zerolog.DefaultContextLogger is returned if set, otherwise a
// disabled logger, so the result is never nil.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
