//go:build !(rp2040 || rp2350)

// Package logx is a tiny structured-logging facade: a no-alloc builtin
// println shim on the MCU build, a logrus.Logger on the host build. The
// split follows the teacher's x/fmtx dual-build convention exactly.
package logx

import "github.com/sirupsen/logrus"

// Logger is the minimal surface both builds implement.
type Logger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type hostLogger struct {
	entry *logrus.Entry
}

// Default is the process-wide logger, backed by logrus with a text
// formatter suitable for a daemon's stdout/journal.
var Default Logger = NewLogrus(logrus.StandardLogger())

// NewLogrus wraps an existing *logrus.Logger as a Logger.
func NewLogrus(l *logrus.Logger) Logger {
	return hostLogger{entry: logrus.NewEntry(l)}
}

func (h hostLogger) Info(msg string, kv ...any)  { h.fields(kv).Info(msg) }
func (h hostLogger) Warn(msg string, kv ...any)  { h.fields(kv).Warn(msg) }
func (h hostLogger) Error(msg string, kv ...any) { h.fields(kv).Error(msg) }

func (h hostLogger) fields(kv []any) *logrus.Entry {
	if len(kv) == 0 {
		return h.entry
	}
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return h.entry.WithFields(f)
}
