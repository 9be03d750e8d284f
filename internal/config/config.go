// Package config defines the runtime configuration for the event bus and
// the frame scheduler, loaded from YAML with environment overrides and
// optional hot reload.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the root configuration document.
type Config struct {
	Bus       BusConfig       `yaml:"bus"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

// BusConfig tunes the event bus.
type BusConfig struct {
	// MaxQueueSize bounds the pending event queue; events past the bound
	// are dropped and counted.
	MaxQueueSize int `yaml:"max_queue_size"`

	// MaxHistorySize bounds the processed-event history ring.
	MaxHistorySize int `yaml:"max_history_size"`
}

// SchedulerConfig tunes the frame scheduler.
type SchedulerConfig struct {
	TargetFPS         int     `yaml:"target_fps"`
	MaxTasksPerFrame  int     `yaml:"max_tasks_per_frame"`
	AdaptiveFPS       bool    `yaml:"adaptive_fps"`
	AdaptiveThreshold float64 `yaml:"adaptive_threshold"`
}

// LogConfig tunes logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// File is the log file path. Empty logs to stderr.
	File string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			MaxQueueSize:   1000,
			MaxHistorySize: 100,
		},
		Scheduler: SchedulerConfig{
			TargetFPS:         60,
			MaxTasksPerFrame:  10,
			AdaptiveFPS:       true,
			AdaptiveThreshold: 1.2,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration and clamps out-of-range values to
// their nearest sane bound. It returns an error only for values that
// cannot be repaired.
func (c *Config) Validate() error {
	def := Default()

	if c.Bus.MaxQueueSize <= 0 {
		c.Bus.MaxQueueSize = def.Bus.MaxQueueSize
	}
	if c.Bus.MaxHistorySize < 0 {
		c.Bus.MaxHistorySize = def.Bus.MaxHistorySize
	}

	if c.Scheduler.TargetFPS <= 0 {
		c.Scheduler.TargetFPS = def.Scheduler.TargetFPS
	}
	if c.Scheduler.TargetFPS < 30 {
		c.Scheduler.TargetFPS = 30
	}
	if c.Scheduler.TargetFPS > 120 {
		c.Scheduler.TargetFPS = 120
	}
	if c.Scheduler.MaxTasksPerFrame <= 0 {
		c.Scheduler.MaxTasksPerFrame = def.Scheduler.MaxTasksPerFrame
	}
	if c.Scheduler.AdaptiveThreshold <= 1.0 {
		c.Scheduler.AdaptiveThreshold = def.Scheduler.AdaptiveThreshold
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
		c.Log.Level = strings.ToLower(c.Log.Level)
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}

	return nil
}

// envPrefix is the prefix for environment overrides, e.g. GLINT_LOG_LEVEL.
const envPrefix = "GLINT_"

// applyEnv overlays GLINT_* environment variables onto the config.
// Unparseable values are reported, not silently dropped.
func (c *Config) applyEnv() error {
	var errs []string

	setInt := func(key string, dst *int) {
		val, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			return
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s%s=%q", envPrefix, key, val))
			return
		}
		*dst = n
	}
	setBool := func(key string, dst *bool) {
		val, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s%s=%q", envPrefix, key, val))
			return
		}
		*dst = b
	}
	setFloat := func(key string, dst *float64) {
		val, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			return
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s%s=%q", envPrefix, key, val))
			return
		}
		*dst = f
	}
	setString := func(key string, dst *string) {
		if val, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = val
		}
	}

	setInt("BUS_MAX_QUEUE_SIZE", &c.Bus.MaxQueueSize)
	setInt("BUS_MAX_HISTORY_SIZE", &c.Bus.MaxHistorySize)
	setInt("SCHEDULER_TARGET_FPS", &c.Scheduler.TargetFPS)
	setInt("SCHEDULER_MAX_TASKS_PER_FRAME", &c.Scheduler.MaxTasksPerFrame)
	setBool("SCHEDULER_ADAPTIVE_FPS", &c.Scheduler.AdaptiveFPS)
	setFloat("SCHEDULER_ADAPTIVE_THRESHOLD", &c.Scheduler.AdaptiveThreshold)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FILE", &c.Log.File)

	if len(errs) > 0 {
		return fmt.Errorf("config: bad environment overrides: %s", strings.Join(errs, ", "))
	}
	return nil
}
