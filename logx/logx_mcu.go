//go:build rp2040 || rp2350

// Package logx is a tiny structured-logging facade: a no-alloc x/fmtx
// formatter over builtin println on the MCU build, a logrus.Logger on
// the host build. The split follows the teacher's x/fmtx dual-build
// convention exactly, and the MCU build leans on x/fmtx/x/strconvx for
// the same reason the teacher wrote them: fmt.Sprintf pulls in
// reflection the linker can't shake off a TinyGo binary.
package logx

import "eeprombridge/x/fmtx"

// Logger is the minimal surface both builds implement.
type Logger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type mcuLogger struct{}

// Default is the process-wide logger. The MCU build has no sinks to
// configure, so Default is simply a mcuLogger value.
var Default Logger = mcuLogger{}

func (mcuLogger) Info(msg string, kv ...any)  { printKV("INFO", msg, kv) }
func (mcuLogger) Warn(msg string, kv ...any)  { printKV("WARN", msg, kv) }
func (mcuLogger) Error(msg string, kv ...any) { printKV("ERROR", msg, kv) }

func printKV(level, msg string, kv []any) {
	line := fmtx.Sprintf("%s: %s", level, msg)
	for i := 0; i+1 < len(kv); i += 2 {
		line = fmtx.Sprintf("%s %v=%v", line, kv[i], kv[i+1])
	}
	println(line)
}
