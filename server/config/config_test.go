package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"lockstep/server/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lockstep.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want %+v", cfg, Default())
	}
	side, err := cfg.Side()
	if err != nil || side != domain.SideYellow {
		t.Errorf("Side = %s, %v", side, err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
input_delay_frames: 5
schedule_horizon_frames: 20
record_dir: /tmp/records
controllable_side: blue
bot_count: 3
username: Greph
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Config{
		LogLevel:              "debug",
		InputDelayFrames:      5,
		ScheduleHorizonFrames: 20,
		RecordDir:             "/tmp/records",
		ControllableSide:      "blue",
		BotCount:              3,
		Username:              "Greph",
	}
	if cfg != want {
		t.Errorf("Load = %+v, want %+v", cfg, want)
	}
	level, err := cfg.Level()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("Level = %v, %v", level, err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "controllable_side: blue\ninput_delay_frames: 5\n")
	t.Setenv("LOCKSTEP_SIDE", "green")
	t.Setenv("LOCKSTEP_INPUT_DELAY", "2")
	t.Setenv("LOCKSTEP_USERNAME", "Tao")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ControllableSide != "green" || cfg.InputDelayFrames != 2 || cfg.Username != "Tao" {
		t.Errorf("Load = %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad side", "controllable_side: purple\n"},
		{"bad level", "log_level: loud\n"},
		{"too many bots", "bot_count: 4\n"},
		{"delay beyond horizon", "input_delay_frames: 10\nschedule_horizon_frames: 5\n"},
		{"malformed yaml", "bot_count: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEnvFramesOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative input delay", "LOCKSTEP_INPUT_DELAY", "-1"},
		{"negative horizon", "LOCKSTEP_SCHEDULE_HORIZON", "-1"},
		{"horizon above u32", "LOCKSTEP_SCHEDULE_HORIZON", "4294967296"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(""); err == nil {
				t.Errorf("%s=%s: expected error", tt.key, tt.value)
			}
		})
	}

	t.Run("both negative", func(t *testing.T) {
		t.Setenv("LOCKSTEP_INPUT_DELAY", "-1")
		t.Setenv("LOCKSTEP_SCHEDULE_HORIZON", "-1")
		cfg, err := Load("")
		if err == nil {
			t.Fatalf("expected error, got %+v", cfg)
		}
	})
}

func TestLoadYAMLNegativeFrames(t *testing.T) {
	if _, err := Load(writeConfig(t, "input_delay_frames: -1\n")); err == nil {
		t.Fatal("expected error for negative input_delay_frames")
	}
}
