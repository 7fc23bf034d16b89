package logger

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
)

// stdSink is a minimal logr.LogSink backed by an io.Writer, used as the
// default when a caller doesn't plug in zapr/zerologr/etc. (mirrors the
// teacher's internal/logger newOSSink, adapted to the real logr.LogSink
// interface rather than the teacher's ad hoc one-method subset).
type stdSink struct {
	w    io.Writer
	name string
}

// NewStdSink returns a logr.LogSink that writes one line per message to w.
func NewStdSink(w io.Writer) logr.LogSink {
	return &stdSink{w: w}
}

func (s *stdSink) Init(logr.RuntimeInfo) {}

func (s *stdSink) Enabled(int) bool { return true }

func (s *stdSink) Info(level int, msg string, keysAndValues ...interface{}) {
	fmt.Fprintf(s.w, "[%s] level=%d %s %s\n", s.name, level, msg, formatKV(keysAndValues))
}

func (s *stdSink) Error(err error, msg string, keysAndValues ...interface{}) {
	fmt.Fprintf(s.w, "[%s] error=%v %s %s\n", s.name, err, msg, formatKV(keysAndValues))
}

func (s *stdSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return s
}

func (s *stdSink) WithName(name string) logr.LogSink {
	cp := *s
	if cp.name != "" {
		cp.name = cp.name + "." + name
	} else {
		cp.name = name
	}
	return &cp
}

func formatKV(kv []interface{}) string {
	out := ""
	for i := 0; i+1 < len(kv); i += 2 {
		out += fmt.Sprintf("%v=%v ", kv[i], kv[i+1])
	}
	return out
}
