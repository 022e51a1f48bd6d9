//go:build !headless

package audioout

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player streams a Source to the default output device.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	pull   *pull

	mu      sync.Mutex
	started bool
}

// NewPlayer opens a stereo float32 device at sampleRate.
func NewPlayer(sampleRate int, blockFrames int) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(blockFrames) * time.Second / time.Duration(sampleRate) * 4,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	p := &Player{ctx: ctx, pull: newPull(blockFrames * 8)}
	p.player = ctx.NewPlayer(p.pull)
	return p, nil
}

// Attach sets the rendered source. A nil source plays silence.
func (p *Player) Attach(src Source) { p.pull.attach(src) }

// Start begins playback.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

// Stop pauses playback.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started && p.player != nil {
		p.player.Pause()
		p.started = false
	}
}

// IsStarted reports whether playback is running.
func (p *Player) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// Close stops playback and releases the device player.
func (p *Player) Close() error {
	p.Stop()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return err
}
