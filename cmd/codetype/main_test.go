package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/codetype/internal/config"
	"github.com/verte-zerg/codetype/internal/model"
)

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Practice.Lang != nil {
		t.Fatalf("expected commented values to stay unset")
	}
	if _, err := config.LoadServerConfig(path); err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.Flags().Set("lang", "go"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	fromFile := "java"
	lang := "go"
	applyStringConfig(cmd, "lang", &lang, &fromFile)
	if lang != "go" {
		t.Fatalf("expected flag to win, got %q", lang)
	}

	duration := defaultDuration
	fileDuration := 60
	applyIntConfig(cmd, "duration", &duration, &fileDuration)
	if duration != 60 {
		t.Fatalf("expected file value, got %d", duration)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := model.Config{Lang: "python", Duration: time.Minute}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
	bad := []model.Config{
		{Duration: time.Minute},
		{Lang: "python"},
		{Lang: "python", Duration: time.Minute, Difficulty: "expert"},
		{Lang: "python", Duration: time.Minute, WeakTop: -1},
		{Lang: "python", Duration: time.Minute, WeakFactor: -1},
	}
	for i, cfg := range bad {
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestLocalUsername(t *testing.T) {
	name := "  ada "
	if got := localUsername(&name); got != "ada" {
		t.Fatalf("expected configured name, got %q", got)
	}
	t.Setenv("USER", "grace")
	if got := localUsername(nil); got != "grace" {
		t.Fatalf("expected $USER, got %q", got)
	}
	t.Setenv("USER", "")
	if got := localUsername(nil); got != localUserID {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestParseCharList(t *testing.T) {
	got := parseCharList("a,:b")
	if len(got) != 3 || got[0] != "a" || got[1] != ":" || got[2] != "b" {
		t.Fatalf("unexpected %v", got)
	}
}
