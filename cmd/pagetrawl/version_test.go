package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestGetVersion tests version string resolution.
func TestGetVersion(t *testing.T) {
	t.Run("returns ldflags version when set", func(t *testing.T) {
		original := version
		defer func() { version = original }()

		version = "v1.2.3"
		if got := getVersion(); got != "v1.2.3" {
			t.Errorf("expected 'v1.2.3', got %q", got)
		}
	})

	t.Run("returns non-empty version without ldflags", func(t *testing.T) {
		original := version
		defer func() { version = original }()

		version = ""
		if got := getVersion(); got == "" {
			t.Error("expected non-empty version")
		}
	})
}

// TestGetCommit tests commit string resolution.
func TestGetCommit(t *testing.T) {
	t.Run("returns ldflags commit when set", func(t *testing.T) {
		original := commit
		defer func() { commit = original }()

		commit = "abc1234"
		if got := getCommit(); got != "abc1234" {
			t.Errorf("expected 'abc1234', got %q", got)
		}
	})

	t.Run("returns non-empty commit without ldflags", func(t *testing.T) {
		original := commit
		defer func() { commit = original }()

		commit = ""
		if got := getCommit(); got == "" {
			t.Error("expected non-empty commit")
		}
	})
}

// TestNewVersionCmd tests the version command.
func TestNewVersionCmd(t *testing.T) {
	t.Run("has correct use", func(t *testing.T) {
		cmd := NewVersionCmd()
		if cmd.Use != "version" {
			t.Errorf("expected use 'version', got %q", cmd.Use)
		}
	})

	t.Run("prints version information", func(t *testing.T) {
		cmd := NewVersionCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.HasPrefix(output, "pagetrawl ") {
			t.Errorf("expected output to start with 'pagetrawl ', got %q", output)
		}
		if !strings.Contains(output, "commit") {
			t.Errorf("expected output to mention commit, got %q", output)
		}
	})
}
