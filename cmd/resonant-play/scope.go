package main

import (
	"sync"

	"github.com/cwbudde/algo-resonant/analysis"
)

// scope keeps the most recent mono frames written to the device for the
// dominant-frequency readout.
type scope struct {
	mu         sync.Mutex
	sampleRate int
	ring       []float64
	pos        int
	frame      []float64
	spectrum   *analysis.Spectrum
}

func newScope(sampleRate int) *scope {
	s, err := analysis.NewSpectrum(analysis.DefaultSpectrumSize)
	if err != nil {
		panic(err)
	}
	return &scope{
		sampleRate: sampleRate,
		ring:       make([]float64, s.Size()),
		frame:      make([]float64, s.Size()),
		spectrum:   s,
	}
}

// capture records interleaved stereo frames. It never blocks the audio
// callback: a busy reader makes it skip the block.
func (s *scope) capture(out []float32) {
	if !s.mu.TryLock() {
		return
	}
	defer s.mu.Unlock()
	for i := 0; i+1 < len(out); i += 2 {
		s.ring[s.pos] = 0.5 * float64(out[i]+out[i+1])
		s.pos = (s.pos + 1) % len(s.ring)
	}
}

// peakFrequency returns the dominant frequency of the captured window.
func (s *scope) peakFrequency() float64 {
	s.mu.Lock()
	n := copy(s.frame, s.ring[s.pos:])
	copy(s.frame[n:], s.ring[:s.pos])
	s.mu.Unlock()
	return s.spectrum.PeakFrequency(s.frame, s.sampleRate)
}
