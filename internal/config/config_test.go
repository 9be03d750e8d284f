package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Bus.MaxQueueSize != 1000 || cfg.Bus.MaxHistorySize != 100 {
		t.Errorf("bus defaults = %+v", cfg.Bus)
	}
	if cfg.Scheduler.TargetFPS != 60 || cfg.Scheduler.MaxTasksPerFrame != 10 {
		t.Errorf("scheduler defaults = %+v", cfg.Scheduler)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() on a missing file failed: %v", err)
	}
	if cfg.Scheduler.TargetFPS != 60 {
		t.Errorf("TargetFPS = %d, want default 60", cfg.Scheduler.TargetFPS)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glint.yaml")
	body := `
bus:
  max_queue_size: 250
  max_history_size: 20
scheduler:
  target_fps: 90
  max_tasks_per_frame: 4
  adaptive_fps: false
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Bus.MaxQueueSize != 250 || cfg.Bus.MaxHistorySize != 20 {
		t.Errorf("bus = %+v", cfg.Bus)
	}
	if cfg.Scheduler.TargetFPS != 90 || cfg.Scheduler.MaxTasksPerFrame != 4 {
		t.Errorf("scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.AdaptiveFPS {
		t.Error("adaptive_fps: false not honored")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glint.yaml")
	if err := os.WriteFile(path, []byte("bus: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should reject malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GLINT_SCHEDULER_TARGET_FPS", "120")
	t.Setenv("GLINT_BUS_MAX_QUEUE_SIZE", "64")
	t.Setenv("GLINT_SCHEDULER_ADAPTIVE_FPS", "false")
	t.Setenv("GLINT_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Scheduler.TargetFPS != 120 {
		t.Errorf("TargetFPS = %d, want 120", cfg.Scheduler.TargetFPS)
	}
	if cfg.Bus.MaxQueueSize != 64 {
		t.Errorf("MaxQueueSize = %d, want 64", cfg.Bus.MaxQueueSize)
	}
	if cfg.Scheduler.AdaptiveFPS {
		t.Error("AdaptiveFPS override not applied")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Log.Level)
	}
}

func TestEnvOverrideBadValue(t *testing.T) {
	t.Setenv("GLINT_SCHEDULER_TARGET_FPS", "fast")
	if _, err := Load(""); err == nil {
		t.Error("Load() should reject unparseable overrides")
	}
}

func TestValidateClamps(t *testing.T) {
	cfg := &Config{
		Bus:       BusConfig{MaxQueueSize: -1, MaxHistorySize: -5},
		Scheduler: SchedulerConfig{TargetFPS: 500, MaxTasksPerFrame: 0, AdaptiveThreshold: 0.2},
		Log:       LogConfig{Level: "INFO"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cfg.Bus.MaxQueueSize != 1000 {
		t.Errorf("MaxQueueSize = %d, want default", cfg.Bus.MaxQueueSize)
	}
	if cfg.Scheduler.TargetFPS != 120 {
		t.Errorf("TargetFPS = %d, want clamp 120", cfg.Scheduler.TargetFPS)
	}
	if cfg.Scheduler.MaxTasksPerFrame != 10 {
		t.Errorf("MaxTasksPerFrame = %d, want default", cfg.Scheduler.MaxTasksPerFrame)
	}
	if cfg.Scheduler.AdaptiveThreshold != 1.2 {
		t.Errorf("AdaptiveThreshold = %v, want default", cfg.Scheduler.AdaptiveThreshold)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q, want normalized info", cfg.Log.Level)
	}

	low := &Config{Scheduler: SchedulerConfig{TargetFPS: 5}}
	if err := low.Validate(); err != nil {
		t.Fatal(err)
	}
	if low.Scheduler.TargetFPS != 30 {
		t.Errorf("TargetFPS = %d, want clamp 30", low.Scheduler.TargetFPS)
	}
}

func TestValidateRejectsUnknownLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject an unknown log level")
	}
}

func TestLoaderReloadNotifiesSubscribers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glint.yaml")
	if err := os.WriteFile(path, []byte("scheduler:\n  target_fps: 60\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader() failed: %v", err)
	}
	defer l.Stop()

	got := make(chan int, 1)
	l.OnChange(func(c *Config) { got <- c.Scheduler.TargetFPS })

	if err := os.WriteFile(path, []byte("scheduler:\n  target_fps: 90\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}

	select {
	case fps := <-got:
		if fps != 90 {
			t.Errorf("reloaded fps = %d, want 90", fps)
		}
	case <-time.After(time.Second):
		t.Fatal("OnChange callback never fired")
	}
	if l.Config().Scheduler.TargetFPS != 90 {
		t.Errorf("Config() fps = %d, want 90", l.Config().Scheduler.TargetFPS)
	}
}

func TestLoaderWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glint.yaml")
	if err := os.WriteFile(path, []byte("scheduler:\n  target_fps: 60\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader() failed: %v", err)
	}
	defer l.Stop()

	got := make(chan int, 4)
	l.OnChange(func(c *Config) { got <- c.Scheduler.TargetFPS })

	if err := l.Watch(); err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("scheduler:\n  target_fps: 45\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case fps := <-got:
		if fps != 45 {
			t.Errorf("watched fps = %d, want 45", fps)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("file watcher never delivered the reload")
	}
}
