// Package logger is this module's structured, component-leveled logging
// layer, adapted from the teacher's internal/logger package but scoped down
// to the two components this module has (ComponentTopology,
// ComponentServerSelection) and built directly on github.com/go-logr/logr
// rather than a hand-rolled subset of it.
package logger

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
)

const maxDocumentLengthEnvVar = "SDAM_LOG_MAX_DOCUMENT_LENGTH"

// DefaultMaxDocumentLength bounds how much of a spew-dumped description is
// included in a single log line.
const DefaultMaxDocumentLength = 2000

// TruncationSuffix is appended when a rendered document is cut short.
const TruncationSuffix = "..."

// ComponentMessage is one loggable event. Concrete types live in
// messages.go.
type ComponentMessage interface {
	Component() Component
	Message() string
	KeysAndValues() []interface{}
}

type job struct {
	level Level
	msg   ComponentMessage
}

// Logger is this module's logger. It forwards accepted messages to a
// go-logr/logr.LogSink, either one supplied by the caller (zapr, zerologr,
// ...) or the stdlib-backed default from NewStdSink.
type Logger struct {
	ComponentLevels   map[Component]Level
	Sink              logr.LogSink
	MaxDocumentLength uint

	jobs chan job
}

// New constructs a Logger. A nil sink defaults to a stderr-backed sink. A
// nil componentLevels defaults to the environment (SDAM_LOG_ALL,
// SDAM_LOG_COMPONENT_TOPOLOGY, SDAM_LOG_COMPONENT_SERVER_SELECTION).
func New(sink logr.LogSink, componentLevels map[Component]Level) *Logger {
	if sink == nil {
		sink = NewStdSink(os.Stderr)
	}
	if componentLevels == nil {
		componentLevels = getEnvComponentLevels()
	}

	l := &Logger{
		ComponentLevels:   componentLevels,
		Sink:              sink,
		MaxDocumentLength: selectMaxDocumentLength(),
		jobs:              make(chan job, 100),
	}
	l.startPrintListener()
	return l
}

func selectMaxDocumentLength() uint {
	v := os.Getenv(maxDocumentLengthEnvVar)
	if v == "" {
		return DefaultMaxDocumentLength
	}
	var n uint
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n == 0 {
		return DefaultMaxDocumentLength
	}
	return n
}

// Close stops the printer goroutine. Subsequent Print calls panic, matching
// a closed channel send; callers must not call Close while notifications
// may still be in flight.
func (l *Logger) Close() {
	close(l.jobs)
}

// Is reports whether level is enabled for component.
func (l *Logger) Is(level Level, component Component) bool {
	return l.ComponentLevels[component] >= level
}

// Print enqueues msg for asynchronous delivery to the sink, dropping it
// silently if the queue is full rather than blocking the caller (which, for
// this module, is always the topology critical section).
func (l *Logger) Print(level Level, msg ComponentMessage) {
	if l == nil {
		return
	}
	select {
	case l.jobs <- job{level, msg}:
	default:
	}
}

func (l *Logger) startPrintListener() {
	go func() {
		for j := range l.jobs {
			if !l.Is(j.level, j.msg.Component()) {
				continue
			}
			if l.Sink == nil {
				continue
			}
			l.Sink.Info(int(j.level)-DiffToInfo, j.msg.Message(), j.msg.KeysAndValues()...)
		}
	}()
}

func truncate(s string, width uint) string {
	if uint(len(s)) <= width {
		return s
	}
	return s[:width] + TruncationSuffix
}
