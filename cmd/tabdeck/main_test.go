package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"serve": false, "run": false, "init-config": false, "version": false}
	for _, cmd := range root.Commands() {
		name := strings.Fields(cmd.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

func TestVersionCommandOutput(t *testing.T) {
	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "pkt.systems/tabdeck") {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestNewSessionIDIsRandomHex(t *testing.T) {
	a := newSessionID()
	b := newSessionID()
	if len(a) != 16 || a == b {
		t.Fatalf("weak session ids: %q %q", a, b)
	}
}
