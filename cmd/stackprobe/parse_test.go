package main

import (
	"testing"

	"github.com/stackprobe/stackprobe/frame"
)

func TestParseVMVersion(t *testing.T) {
	cases := []struct {
		in   string
		want frame.VMVersion
		err  bool
	}{
		{"3.2.0", frame.VMVersion{Major: 3, Minor: 2, Patch: 0}, false},
		{"2.7.8", frame.VMVersion{Major: 2, Minor: 7, Patch: 8}, false},
		{"3.2", frame.VMVersion{}, true},
		{"a.b.c", frame.VMVersion{}, true},
	}

	for _, c := range cases {
		got, err := parseVMVersion(c.in)
		if (err != nil) != c.err {
			t.Fatalf("parseVMVersion(%q): err=%v, want err=%v", c.in, err, c.err)
		}

		if err == nil && got != c.want {
			t.Fatalf("parseVMVersion(%q): got %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseAddress(t *testing.T) {
	cases := []struct {
		in   string
		want frame.Address
		err  bool
	}{
		{"0x1000", frame.Address(0x1000), false},
		{"1000", frame.Address(0x1000), false},
		{"not-hex", 0, true},
	}

	for _, c := range cases {
		got, err := parseAddress(c.in)
		if (err != nil) != c.err {
			t.Fatalf("parseAddress(%q): err=%v, want err=%v", c.in, err, c.err)
		}

		if err == nil && got != c.want {
			t.Fatalf("parseAddress(%q): got %#x, want %#x", c.in, got, c.want)
		}
	}
}
