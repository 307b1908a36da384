package session

import (
	"sync"
	"time"
)

// DefaultPlaybackPeriod is how often the preview position is sampled.
const DefaultPlaybackPeriod = 50 * time.Millisecond

// Playback is a media element whose progress can be sampled.
type Playback interface {
	Position() (cur, dur time.Duration, playing bool)
}

// PlaybackPoller copies the progress of a Playback into a Tracker. The position is unset
// whenever nothing is playing.
type PlaybackPoller struct {
	clock   Clock
	period  time.Duration
	tracker *Tracker

	mu   sync.Mutex
	task *Task
}

// NewPlaybackPoller creates a stopped poller.
func NewPlaybackPoller(clock Clock, period time.Duration, tracker *Tracker) *PlaybackPoller {
	return &PlaybackPoller{clock: clock, period: period, tracker: tracker}
}

// Start polls pb, replacing any previous target.
func (p *PlaybackPoller) Start(pb Playback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.task.Stop()
	p.task = Repeat(p.clock, p.period, func() { p.poll(pb) })
}

// Stop ends polling and clears the playback position.
func (p *PlaybackPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.task.Stop()
	p.task = nil
	p.tracker.ClearPlayback()
}

func (p *PlaybackPoller) poll(pb Playback) {
	cur, dur, playing := pb.Position()
	if !playing || dur <= 0 {
		p.tracker.ClearPlayback()
		return
	}
	p.tracker.SetPlayback(float64(cur) / float64(dur))
}
