package protocol_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"eeprombridge/backend/simprog"
	"eeprombridge/backend/simtransport"
	"eeprombridge/protocol"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func newSession(t *testing.T, rxCap, txCap int, prog *simprog.Programmer, mask uint8) *protocol.Session {
	t.Helper()
	s, err := protocol.NewSession(make([]byte, rxCap), make([]byte, txCap), prog, mask)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

// tick feeds rx through a simtransport and returns the full reply written
// to the transport.
func tick(t *testing.T, s *protocol.Session, rx []byte) []byte {
	t.Helper()
	var txOut bytes.Buffer
	tr := simtransport.New(bytes.NewReader(rx), &txOut)
	if _, err := protocol.Tick(s, tr); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	return txOut.Bytes()
}

func TestScenarios(t *testing.T) {
	t.Run("S1_Nop", func(t *testing.T) {
		prog := simprog.New(4096, 16, 0x0F, 0)
		s := newSession(t, 1024, 1024, prog, 0x03)
		got := tick(t, s, mustHex(t, "00"))
		want := mustHex(t, "05")
		if !bytes.Equal(got, want) {
			t.Fatalf("got % X want % X", got, want)
		}
	})

	t.Run("S2_GetMaxRxSize", func(t *testing.T) {
		prog := simprog.New(4096, 16, 0x0F, 0)
		s := newSession(t, 1024, 1024, prog, 0x03)
		got := tick(t, s, mustHex(t, "03"))
		want := mustHex(t, "0500040000")
		if !bytes.Equal(got, want) {
			t.Fatalf("got % X want % X", got, want)
		}
	})

	t.Run("S3_ToggleIO_enable", func(t *testing.T) {
		prog := simprog.New(4096, 16, 0x0F, 0)
		s := newSession(t, 1024, 1024, prog, 0x03)
		got := tick(t, s, mustHex(t, "0501"))
		want := mustHex(t, "0501")
		if !bytes.Equal(got, want) {
			t.Fatalf("got % X want % X", got, want)
		}
	})

	t.Run("S4_SetAddressBusWidth_ok", func(t *testing.T) {
		prog := simprog.New(4096, 15, 0x0F, 0)
		s := newSession(t, 1024, 1024, prog, 0x03)
		got := tick(t, s, mustHex(t, "070F"))
		want := mustHex(t, "050F")
		if !bytes.Equal(got, want) {
			t.Fatalf("got % X want % X", got, want)
		}
		if s.AddressBusWidth != 0x0F {
			t.Fatalf("AddressBusWidth = %d, want 15", s.AddressBusWidth)
		}
	})

	t.Run("S5_SetAddressBusWidth_over_limit", func(t *testing.T) {
		prog := simprog.New(4096, 15, 0x0F, 0)
		s := newSession(t, 1024, 1024, prog, 0x03)
		got := tick(t, s, mustHex(t, "0720"))
		want := mustHex(t, "06")
		if !bytes.Equal(got, want) {
			t.Fatalf("got % X want % X", got, want)
		}
	})

	t.Run("S6_S7_ParallelWriteThenRead", func(t *testing.T) {
		prog := simprog.New(4096, 16, 0x0F, 0)
		s := newSession(t, 1024, 1024, prog, 0x03)
		s.AddressBusWidth = 16

		gotWrite := tick(t, s, mustHex(t, "0B0000000004000000ABCDEF12"))
		wantWrite := mustHex(t, "05")
		if !bytes.Equal(gotWrite, wantWrite) {
			t.Fatalf("write reply: got % X want % X", gotWrite, wantWrite)
		}
		if !bytes.Equal(prog.Mem[0:4], []byte{0xAB, 0xCD, 0xEF, 0x12}) {
			t.Fatalf("memory after write: % X", prog.Mem[0:4])
		}

		gotRead := tick(t, s, mustHex(t, "0A0000000004000000"))
		wantRead := mustHex(t, "05ABCDEF12")
		if !bytes.Equal(gotRead, wantRead) {
			t.Fatalf("read reply: got % X want % X", gotRead, wantRead)
		}
	})

	t.Run("S8_SpiTransmit", func(t *testing.T) {
		prog := simprog.New(4096, 16, 0x0F, 0)
		s := newSession(t, 1024, 1024, prog, 0x03)
		got := tick(t, s, mustHex(t, "0F04000000DEADBEEF"))
		want := mustHex(t, "05DEADBEEF") // simprog's SPI slave loops back
		if !bytes.Equal(got, want) {
			t.Fatalf("got % X want % X", got, want)
		}
	})
}

func TestInvariant2_OversizeCommandIsRejectedWithoutTouchingBackend(t *testing.T) {
	prog := simprog.New(64, 16, 0x0F, 0)
	s := newSession(t, 16, 16, prog, 0x03) // rx_cap=16: count+9<=16 => count<=7
	rx := make([]byte, 1+8+8)              // ParallelWrite header + 8 bytes of payload (count=8, too big)
	rx[0] = byte(OpParallelWriteForTest)
	// addr=0
	rx[5] = 8 // count = 8 (LE)
	got := tick(t, s, rx)
	if !bytes.Equal(got, []byte{0x06}) {
		t.Fatalf("got % X want NAK", got)
	}
	if s.BusMode != protocol.BusModeNotSet {
		t.Fatalf("BusMode = %v after rejected frame, want NotSet (backend initialized)", s.BusMode)
	}
}

// OpParallelWriteForTest is protocol.OpParallelWrite's wire value (11),
// written out as a literal since opcode values are part of the wire
// format, not an implementation detail.
const OpParallelWriteForTest = 11

func TestInvariant4_LowAddressHoldNsRejectsParallelReadWithoutTouchingBackend(t *testing.T) {
	prog := simprog.New(64, 16, 0x0F, 10) // minimum delay 10ns
	s := newSession(t, 1024, 1024, prog, 0x03)
	s.AddressBusWidth = 16
	s.AddressHoldNs = 5 // below minimum

	got := tick(t, s, mustHex(t, "0A0000000002000000"))
	if !bytes.Equal(got, []byte{0x06}) {
		t.Fatalf("got % X want NAK", got)
	}
	if s.BusMode != protocol.BusModeNotSet {
		t.Fatalf("BusMode = %v after rejected read, want NotSet (backend initialized)", s.BusMode)
	}
}

func TestInvariant5_ToggleIODisableForcesReinitOnNextParallelOp(t *testing.T) {
	prog := simprog.New(64, 16, 0x0F, 0)
	s := newSession(t, 1024, 1024, prog, 0x03)
	s.AddressBusWidth = 16
	s.BusMode = protocol.BusModeParallel // pretend we were already in parallel mode

	tick(t, s, mustHex(t, "0500")) // ToggleIO(0)
	if s.BusMode != protocol.BusModeNotSet {
		t.Fatalf("BusMode after ToggleIO(0) = %v, want NotSet", s.BusMode)
	}

	// Next read must succeed and transition back into Parallel.
	got := tick(t, s, mustHex(t, "0A0000000001000000"))
	if got[0] != 0x05 {
		t.Fatalf("read after re-enable NAK'd: % X", got)
	}
	if s.BusMode != protocol.BusModeParallel {
		t.Fatalf("BusMode after read = %v, want Parallel", s.BusMode)
	}
}

func TestUnsupportedSpiModeLeavesStateUnchanged(t *testing.T) {
	prog := simprog.New(64, 16, 0x01, 0) // only Mode0 supported
	s := newSession(t, 1024, 1024, prog, 0x03)

	got := tick(t, s, mustHex(t, "0D02")) // SetSpiMode(Mode1=2), unsupported
	if !bytes.Equal(got, []byte{0x06}) {
		t.Fatalf("got % X want NAK", got)
	}
	if s.SpiMode != 1 {
		t.Fatalf("SpiMode changed to %d despite NAK", s.SpiMode)
	}
}

func TestAddressWraparound(t *testing.T) {
	prog := simprog.New(16, 4, 0x0F, 0) // 4-bit address bus, 16-byte mem
	s := newSession(t, 1024, 1024, prog, 0x03)
	s.AddressBusWidth = 4

	// Write 3 bytes starting at address 15: addresses 15, 0, 1 (wraps at 2^4).
	rx := make([]byte, 9+3)
	rx[0] = 11 // ParallelWrite
	rx[1] = 15 // addr lo byte
	rx[5] = 3  // count
	rx[9], rx[10], rx[11] = 0xAA, 0xBB, 0xCC
	tick(t, s, rx)

	if prog.Mem[15] != 0xAA || prog.Mem[0] != 0xBB || prog.Mem[1] != 0xCC {
		t.Fatalf("wraparound write landed wrong: mem[15]=%x mem[0]=%x mem[1]=%x", prog.Mem[15], prog.Mem[0], prog.Mem[1])
	}
}

func TestGetSupportedSpiModesReportsBackendMask(t *testing.T) {
	prog := simprog.New(64, 16, 0x05, 0) // Mode0 | Mode2
	s := newSession(t, 1024, 1024, prog, 0x03)
	got := tick(t, s, mustHex(t, "0E"))
	want := mustHex(t, "0505")
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X want % X", got, want)
	}
}

func TestUnknownOpcodeIsInvalid(t *testing.T) {
	prog := simprog.New(64, 16, 0x0F, 0)
	s := newSession(t, 1024, 1024, prog, 0x03)
	got := tick(t, s, []byte{0xFF})
	if !bytes.Equal(got, []byte{0x06}) {
		t.Fatalf("got % X want NAK", got)
	}
}
