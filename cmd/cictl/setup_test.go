package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/cictl/internal/testutil/testlog"
)

func TestLoadConfigDefaultsWhenFileAbsent(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadConfig(t.TempDir(), "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Toolchain != "ruby" || cfg.Manifest != "Gemfile" {
		t.Fatalf("cfg = %+v, want compiled-in defaults", cfg)
	}
}

func TestLoadConfigReadsRootFile(t *testing.T) {
	testlog.Start(t)
	root := t.TempDir()
	path := filepath.Join(root, "cictl.toml")
	if err := os.WriteFile(path, []byte("toolchain = \"ruby3.1\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(root, "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Toolchain != "ruby3.1" {
		t.Fatalf("toolchain = %q, want the file's value", cfg.Toolchain)
	}
	if cfg.Manifest != "Gemfile" {
		t.Fatalf("manifest = %q, want the default preserved", cfg.Manifest)
	}
}

func TestLoadConfigExplicitPathMustExist(t *testing.T) {
	testlog.Start(t)
	if _, err := loadConfig(t.TempDir(), filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("explicit missing config should fail, not fall back")
	}
}

func TestEventLabel(t *testing.T) {
	testlog.Start(t)
	if got := eventLabel(""); got != "local" {
		t.Fatalf("label = %q, want local", got)
	}
	if got := eventLabel("push"); got != "push" {
		t.Fatalf("label = %q, want push", got)
	}
}
