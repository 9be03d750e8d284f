// Package main is a demo for the glint runtime: three gauges animated by
// the frame scheduler, driven by key events flowing through the bus.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/glintui/glint/internal/config"
	"github.com/glintui/glint/internal/easing"
	"github.com/glintui/glint/internal/event"
	"github.com/glintui/glint/internal/log"
	"github.com/glintui/glint/internal/sched"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// Event types flowing through the demo.
const (
	evKey    = event.Type("input.key")
	evResize = event.Type("screen.resize")
	evQuit   = event.Type("app.quit")
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		logLevel    string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("glint %s (%s)\n", version, commit)
		return 0
	}

	loader, err := config.NewLoader(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer loader.Stop()

	cfg := loader.Config()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := log.New(log.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if err := runUI(loader, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runUI(loader *config.Loader, logger *zap.Logger) error {
	cfg := loader.Config()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	bus := event.NewBus(
		event.WithMaxQueueSize(cfg.Bus.MaxQueueSize),
		event.WithMaxHistorySize(cfg.Bus.MaxHistorySize),
		event.WithLogger(logger),
	)

	schedOpts := []sched.Option{
		sched.WithTargetFPS(cfg.Scheduler.TargetFPS),
		sched.WithMaxTasksPerFrame(cfg.Scheduler.MaxTasksPerFrame),
		sched.WithLogger(logger),
	}
	if cfg.Scheduler.AdaptiveFPS {
		schedOpts = append(schedOpts, sched.WithAdaptiveFPS(cfg.Scheduler.AdaptiveThreshold))
	}
	scheduler := sched.New(schedOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gauges := []*gauge{
		newGauge("linear", easing.Linear),
		newGauge("ease-in-out", easing.EaseInOut),
		newGauge("elastic", easing.Elastic),
	}

	quit := make(chan struct{})
	bus.SubscribeFunc(evQuit, func(context.Context, *event.Event) error {
		cancel()
		close(quit)
		return nil
	}, event.WithOnce())

	bus.SubscribeFunc(evKey, func(ctx context.Context, ev *event.Event) error {
		key, _ := ev.Data.(*tcell.EventKey)
		if key == nil {
			return nil
		}
		switch {
		case key.Key() == tcell.KeyEscape, key.Rune() == 'q':
			bus.Emit(ctx, evQuit, nil, event.WithSource("keyboard"))
		case key.Rune() == ' ':
			// Gauge state belongs to the frame goroutine; mutate it there.
			scheduler.ScheduleTask(func(context.Context) error {
				for _, g := range gauges {
					g.restart(scheduler)
				}
				return nil
			}, sched.TaskImmediate, 0)
		}
		return nil
	})

	bus.SubscribeFunc(evResize, func(context.Context, *event.Event) error {
		screen.Sync()
		return nil
	})

	// Terminal input feeds the bus; everything downstream subscribes.
	go func() {
		for {
			switch tev := screen.PollEvent().(type) {
			case *tcell.EventKey:
				bus.Emit(ctx, evKey, tev, event.WithSource("terminal"))
			case *tcell.EventResize:
				bus.Emit(ctx, evResize, tev, event.WithSource("terminal"))
			case nil:
				return
			}
		}
	}()

	scheduler.SetFrameCallbacks(nil, func() {
		draw(screen, scheduler, gauges)
	})
	for _, g := range gauges {
		g.restart(scheduler)
	}

	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = scheduler.Stop() }()

	// Hot reload: a rewritten config file retunes the pump in place.
	loader.OnChange(func(c *config.Config) {
		scheduler.SetTargetFPS(c.Scheduler.TargetFPS)
		logger.Info("config reloaded", zap.Int("target_fps", c.Scheduler.TargetFPS))
	})
	if err := loader.Watch(); err != nil {
		logger.Debug("config watch unavailable", zap.Error(err))
	}

	logger.Info("glint demo started",
		zap.Int("target_fps", cfg.Scheduler.TargetFPS),
		zap.Bool("adaptive", cfg.Scheduler.AdaptiveFPS))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-signals:
	case <-ctx.Done():
	}
	return nil
}

// gauge is one animated progress bar. It implements sched.Animatable so
// the scheduler writes interpolated progress straight into it.
type gauge struct {
	label  string
	name   easing.Name
	value  float64 // 0..1, owned by the frame goroutine
	animID string
}

func newGauge(label string, name easing.Name) *gauge {
	return &gauge{label: label, name: name}
}

// SetProperty receives interpolated values from the scheduler.
func (g *gauge) SetProperty(_ string, value float64) {
	g.value = value
}

// restart re-runs the gauge's fill animation from zero.
func (g *gauge) restart(s *sched.Scheduler) {
	if g.animID != "" {
		s.CancelAnimation(g.animID)
	}
	g.value = 0
	g.animID = s.Animate(g, "progress", 0, 1, animDuration, g.name)
}

const (
	animDuration = 2500 * time.Millisecond
	barWidth     = 40
)

var (
	coldColor, _ = colorful.Hex("#2f6fed")
	hotColor, _  = colorful.Hex("#ed4f2f")
)

// draw renders the gauges and the pacing readout.
func draw(screen tcell.Screen, s *sched.Scheduler, gauges []*gauge) {
	screen.Clear()

	putString(screen, 2, 1, tcell.StyleDefault.Bold(true),
		"glint scheduler demo  (space: replay, q: quit)")

	for i, g := range gauges {
		y := 3 + i*2
		putString(screen, 2, y, tcell.StyleDefault, fmt.Sprintf("%-12s", g.label))

		filled := int(g.value * barWidth)
		if filled > barWidth {
			filled = barWidth
		}
		blend := coldColor.BlendHcl(hotColor, g.value).Clamped()
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(rgb(blend)))
		for x := 0; x < barWidth; x++ {
			ch := ' '
			if x < filled {
				ch = '█'
			}
			screen.SetContent(16+x, y, ch, nil, style)
		}
	}

	m := s.Metrics()
	putString(screen, 2, 3+len(gauges)*2+1, tcell.StyleDefault.Dim(true),
		fmt.Sprintf("fps %.1f  target %d  frames %d  dropped %d",
			m.FPS, s.TargetFPS(), m.TotalFrames, m.DroppedFrames))

	screen.Show()
}

func putString(screen tcell.Screen, x, y int, style tcell.Style, s string) {
	for i, r := range s {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

func rgb(c colorful.Color) (int32, int32, int32) {
	r, g, b := c.RGB255()
	return int32(r), int32(g), int32(b)
}
