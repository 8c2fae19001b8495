package main

import (
	"slices"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	if cmd.Use != "ideagraph" || cmd.Short == "" || cmd.Long == "" || cmd.Version == "" {
		t.Errorf("incomplete root command: use=%q version=%q", cmd.Use, cmd.Version)
	}
	if !cmd.SilenceUsage || !cmd.SilenceErrors {
		t.Error("expected usage and errors to be silenced; Execute prints the error once")
	}

	persistent := map[string]string{
		"verbose":      "false",
		"log-format":   "text",
		"metrics-addr": "",
	}
	for name, def := range persistent {
		flag := cmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("missing persistent flag --%s", name)
			continue
		}
		if flag.DefValue != def {
			t.Errorf("--%s: expected default %q, got %q", name, def, flag.DefValue)
		}
	}
	if f := cmd.PersistentFlags().Lookup("verbose"); f != nil && f.Shorthand != "v" {
		t.Errorf("expected -v for --verbose, got %q", f.Shorthand)
	}

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, strings.Fields(sub.Use)[0])
	}
	for _, want := range []string{"scrape", "extract", "crawl", "show", "init", "version"} {
		if !slices.Contains(names, want) {
			t.Errorf("expected %s subcommand, got %v", want, names)
		}
	}
}

func TestRootFlag(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	if err := root.PersistentFlags().Set("log-format", "json"); err != nil {
		t.Fatal(err)
	}
	scrape, _, err := root.Find([]string{"scrape"})
	if err != nil {
		t.Fatal(err)
	}

	if got := rootFlag(scrape, "log-format"); got != "json" {
		t.Errorf("expected json from the root flag set, got %q", got)
	}
	if got := rootFlag(scrape, "no-such-flag"); got != "" {
		t.Errorf("expected empty value for an unknown flag, got %q", got)
	}
}
