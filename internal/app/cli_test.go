package app

import (
	"testing"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand("1.2.3", "corpuslex", RunParams{})

	if root.Use != "corpuslex" {
		t.Errorf("Use = %q, want corpuslex", root.Use)
	}
	if root.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", root.Version)
	}

	names := make(map[string]bool)
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"fetch", "index"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestNewRootCommand_Flags(t *testing.T) {
	root := NewRootCommand("dev", "corpuslex", RunParams{})

	fetchCmd, _, err := root.Find([]string{"fetch"})
	if err != nil {
		t.Fatalf("fetch command not found: %v", err)
	}
	for _, flag := range []string{"repo-url", "root-ref", "cache-dir", "log-level", "force-refresh"} {
		if fetchCmd.Flags().Lookup(flag) == nil {
			t.Errorf("fetch missing flag %q", flag)
		}
	}

	indexCmd, _, err := root.Find([]string{"index"})
	if err != nil {
		t.Fatalf("index command not found: %v", err)
	}
	for _, flag := range []string{"repo-url", "root-ref", "output-dir", "window-lines", "overlap-lines", "config"} {
		if indexCmd.Flags().Lookup(flag) == nil {
			t.Errorf("index missing flag %q", flag)
		}
	}
}

func TestNewRootCommand_UnknownSubcommand(t *testing.T) {
	root := NewRootCommand("dev", "corpuslex", RunParams{})
	root.SetArgs([]string{"definitely-not-a-command"})
	if err := root.Execute(); err == nil {
		t.Error("expected error for unknown subcommand")
	}
}
