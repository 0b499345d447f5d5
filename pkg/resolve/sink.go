// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"io"

	"github.com/charmbracelet/log"
)

// DiscardSink drops every diagnostic.
var DiscardSink Sink = SinkFunc(func(string) {})

type (
	// Sink receives warn-mode diagnostics: one joined message per call.
	Sink interface {
		Warn(msg string)
	}

	// SinkFunc adapts a function to Sink.
	SinkFunc func(msg string)

	// LogSink writes diagnostics as warnings to a charmbracelet logger.
	LogSink struct {
		Logger *log.Logger
	}
)

// Warn implements Sink.
func (f SinkFunc) Warn(msg string) { f(msg) }

// NewLogSink returns a LogSink writing to w.
func NewLogSink(w io.Writer) *LogSink {
	return &LogSink{Logger: log.NewWithOptions(w, log.Options{Prefix: "argres"})}
}

// Warn implements Sink.
func (s *LogSink) Warn(msg string) {
	s.Logger.Warn(msg)
}
