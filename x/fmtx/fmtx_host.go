//go:build !(rp2040 || rp2350)

// Host build: delegates to fmt. logx's printKV calls fmtx.Sprintf on
// every build; only the MCU build (fmtx_mcu.go) pays for a hand-rolled
// formatter instead of fmt's reflection-based one. Sprint, Fprint and
// Print put a space between every pair of operands, as the MCU build
// does, rather than fmt.Sprint's rule of spacing only non-string
// neighbours.
package fmtx

import (
	"fmt"
	"io"
	"os"
)

// DefaultOutput is where Print/Printf write on the host build, mirroring
// the MCU build's DefaultOutput so callers (and fmtx_test.go) can
// redirect it without a build-tag split.
var DefaultOutput io.Writer = os.Stdout

func Sprintf(format string, a ...any) string                    { return fmt.Sprintf(format, a...) }
func Printf(format string, a ...any) (int, error)               { return fmt.Fprintf(DefaultOutput, format, a...) }
func Fprintf(w io.Writer, format string, a ...any) (int, error) { return fmt.Fprintf(w, format, a...) }
func Errorf(format string, a ...any) error                      { return fmt.Errorf(format, a...) }
func Fprint(w io.Writer, a ...any) (int, error)                 { return io.WriteString(w, Sprint(a...)) }
func Print(a ...any) (int, error)                               { return Fprint(DefaultOutput, a...) }

func Sprint(a ...any) string {
	s := fmt.Sprintln(a...)
	return s[:len(s)-1]
}
