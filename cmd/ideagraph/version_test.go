package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildInfoGetters(t *testing.T) {
	t.Parallel()

	for name, get := range map[string]func() string{
		"version": getVersion,
		"commit":  getCommit,
		"date":    getDate,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if get() == "" {
				t.Errorf("%s getter returned empty string", name)
			}
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	if got := firstNonEmpty("x", "", "b", "c"); got != "b" {
		t.Errorf("expected 'b', got %q", got)
	}
	if got := firstNonEmpty("x", "", ""); got != "x" {
		t.Errorf("expected fallback 'x', got %q", got)
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd := NewVersionCmd(); cmd.Use != "version" {
			t.Errorf("expected Use to be 'version', got %q", cmd.Use)
		}
	})

	t.Run("command outputs version info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"ideagraph version", "commit:", "built:"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})
}
