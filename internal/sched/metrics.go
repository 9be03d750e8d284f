package sched

import "time"

// frameWindow is the rolling sample count driving the frame-time average.
const frameWindow = 60

// Metrics is a point-in-time snapshot of frame pacing.
type Metrics struct {
	// FPS is derived from the rolling average frame time.
	FPS float64

	// FrameTime is the most recent inter-frame delta.
	FrameTime time.Duration

	// TotalFrames counts every pump tick since start or reset.
	TotalFrames uint64

	// DroppedFrames counts frames whose delta exceeded 1.5x the target
	// interval.
	DroppedFrames uint64

	// AverageFrameTime is the rolling-window average inter-frame delta.
	AverageFrameTime time.Duration

	// LastFrameTime is when the most recent frame ran.
	LastFrameTime time.Time
}

// frameStats accumulates pacing samples. Guarded by the scheduler mutex.
type frameStats struct {
	samples     [frameWindow]time.Duration
	sampleCount int
	sampleNext  int

	totalFrames   uint64
	droppedFrames uint64
	lastDelta     time.Duration
	lastFrame     time.Time
}

// record adds one inter-frame delta.
func (f *frameStats) record(now time.Time, delta time.Duration, target time.Duration) {
	f.totalFrames++
	f.lastFrame = now

	if delta <= 0 {
		return
	}
	f.lastDelta = delta
	f.samples[f.sampleNext] = delta
	f.sampleNext = (f.sampleNext + 1) % frameWindow
	if f.sampleCount < frameWindow {
		f.sampleCount++
	}

	if target > 0 && delta > target+target/2 {
		f.droppedFrames++
	}
}

// average returns the rolling average frame time, or zero without samples.
func (f *frameStats) average() time.Duration {
	if f.sampleCount == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < f.sampleCount; i++ {
		sum += f.samples[i]
	}
	return sum / time.Duration(f.sampleCount)
}

// snapshot builds an externally visible Metrics value.
func (f *frameStats) snapshot() Metrics {
	avg := f.average()
	m := Metrics{
		FrameTime:        f.lastDelta,
		TotalFrames:      f.totalFrames,
		DroppedFrames:    f.droppedFrames,
		AverageFrameTime: avg,
		LastFrameTime:    f.lastFrame,
	}
	if avg > 0 {
		m.FPS = float64(time.Second) / float64(avg)
	}
	return m
}

// reset clears all samples and counters.
func (f *frameStats) reset() {
	*f = frameStats{}
}
