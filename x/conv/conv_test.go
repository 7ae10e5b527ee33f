package conv

import "testing"

func TestU32Hex(t *testing.T) {
	var buf [8]byte
	got := string(U32Hex(buf[:], 0xDEAD))
	if want := "0000DEAD"; got != want {
		t.Fatalf("U32Hex(0xDEAD) = %q, want %q", got, want)
	}
}

func TestU32Hex_ShortBuf(t *testing.T) {
	var buf [4]byte
	if got := U32Hex(buf[:], 1); len(got) != 0 {
		t.Fatalf("U32Hex with undersized buf = %q, want empty", got)
	}
}

func TestItoa(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{123, "123"},
		{-123, "-123"},
		{-1, "-1"},
	}
	var buf [20]byte
	for _, c := range cases {
		if got := string(Itoa(buf[:], c.n)); got != c.want {
			t.Fatalf("Itoa(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestUtoa(t *testing.T) {
	cases := []struct {
		n    uint64
		want string
	}{
		{0, "0"},
		{255, "255"},
		{4096, "4096"},
	}
	var buf [20]byte
	for _, c := range cases {
		if got := string(Utoa(buf[:], c.n)); got != c.want {
			t.Fatalf("Utoa(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}
