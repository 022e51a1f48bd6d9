// Package audioout plays a block renderer through the system audio device.
package audioout

import (
	"sync/atomic"
	"unsafe"
)

// Source renders interleaved stereo float32 frames into out.
type Source interface {
	Process(out []float32)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(out []float32)

// Process calls f.
func (f SourceFunc) Process(out []float32) { f(out) }

type sourceBox struct{ src Source }

// pull adapts a Source to the byte-oriented io.Reader the device pulls from.
type pull struct {
	src     atomic.Pointer[sourceBox]
	samples []float32
}

func newPull(maxFrames int) *pull {
	return &pull{samples: make([]float32, maxFrames*2)}
}

func (p *pull) attach(src Source) {
	if src == nil {
		p.src.Store(nil)
		return
	}
	p.src.Store(&sourceBox{src: src})
}

// Read fills b with little-endian float32 stereo frames. Without a source,
// or for a trailing partial frame, it writes silence.
func (p *pull) Read(b []byte) (int, error) {
	box := p.src.Load()
	frames := len(b) / 8
	if box == nil || frames == 0 {
		clear(b)
		return len(b), nil
	}
	if len(p.samples) < frames*2 {
		p.samples = make([]float32, frames*2)
	}
	samples := p.samples[:frames*2]
	box.src.Process(samples)
	n := copy(b, unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*4))
	clear(b[n:])
	return len(b), nil
}
