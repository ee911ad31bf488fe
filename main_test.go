package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}

	if versionCmd.Use != "version" {
		t.Errorf("Unexpected Use: %s", versionCmd.Use)
	}

	if versionCmd.Short != "Print version information" {
		t.Errorf("Unexpected Short: %s", versionCmd.Short)
	}
}

func TestVersionOutput(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	if !strings.Contains(out.String(), "postmeet") {
		t.Errorf("version output missing binary name: %q", out.String())
	}
	if !strings.Contains(out.String(), version) {
		t.Errorf("version output missing version string: %q", out.String())
	}
}

func TestRootCommandRegistration(t *testing.T) {
	want := []string{"serve", "poll", "status", "auth", "bot", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered on root command", name)
		}
	}
}

func TestRootCommandGlobalFlags(t *testing.T) {
	for _, name := range []string{"config", "output", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("global flag --%s not registered", name)
		}
	}
}
