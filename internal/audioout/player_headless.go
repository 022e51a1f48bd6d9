//go:build headless

package audioout

import "sync"

// Player renders the attached Source on demand without an audio device.
type Player struct {
	pull *pull

	mu      sync.Mutex
	started bool
}

// NewPlayer returns a device-less player.
func NewPlayer(sampleRate int, blockFrames int) (*Player, error) {
	return &Player{pull: newPull(blockFrames * 8)}, nil
}

// Attach sets the rendered source.
func (p *Player) Attach(src Source) { p.pull.attach(src) }

// Read pulls rendered bytes, as the device would.
func (p *Player) Read(b []byte) (int, error) { return p.pull.Read(b) }

func (p *Player) Start() {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
}

func (p *Player) Stop() {
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
}

func (p *Player) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *Player) Close() error {
	p.Stop()
	return nil
}
