package room

import (
	"fmt"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"

	"github.com/cwbudde/algo-resonant/internal/wavio"
)

const (
	// PartitionSize is the convolution block length and the wet-path latency.
	PartitionSize = 128

	// DefaultGain is the master output gain applied after the mix.
	DefaultGain = float32(0.4)
)

// Reverb is the host output stage: a true-stereo partitioned convolution
// with dry/wet mix followed by master gain. Process does not allocate.
type Reverb struct {
	sampleRate int
	mix        float32
	gain       float32

	left  *dspconv.StreamingOverlapAddT[float32, complex64]
	right *dspconv.StreamingOverlapAddT[float32, complex64]
	irLen int

	inL, inR   []float32
	wetL, wetR []float32
	fill       int
}

// NewReverb creates a dry output stage with DefaultGain and no IR.
func NewReverb(sampleRate int) *Reverb {
	return &Reverb{
		sampleRate: sampleRate,
		gain:       DefaultGain,
		inL:        make([]float32, PartitionSize),
		inR:        make([]float32, PartitionSize),
		wetL:       make([]float32, PartitionSize),
		wetR:       make([]float32, PartitionSize),
	}
}

// SetIR installs left/right impulse responses. Empty channels copy the other.
func (r *Reverb) SetIR(left, right []float32) error {
	if len(left) == 0 && len(right) == 0 {
		return fmt.Errorf("empty impulse response")
	}
	if len(left) == 0 {
		left = right
	}
	if len(right) == 0 {
		right = left
	}
	l, err := dspconv.NewStreamingOverlapAdd32(left, PartitionSize)
	if err != nil {
		return fmt.Errorf("left convolver: %w", err)
	}
	rr, err := dspconv.NewStreamingOverlapAdd32(right, PartitionSize)
	if err != nil {
		return fmt.Errorf("right convolver: %w", err)
	}
	r.left = l
	r.right = rr
	r.irLen = max(len(left), len(right))
	r.Reset()
	return nil
}

// SetIRFromWAV loads a mono or stereo IR, resampled to the stage rate.
func (r *Reverb) SetIRFromWAV(path string) error {
	st, err := wavio.ReadStereo(path)
	if err != nil {
		return err
	}
	left, err := wavio.Resample32(st.Left, st.SampleRate, r.sampleRate)
	if err != nil {
		return err
	}
	right, err := wavio.Resample32(st.Right, st.SampleRate, r.sampleRate)
	if err != nil {
		return err
	}
	return r.SetIR(left, right)
}

// SetGenerated synthesizes and installs a room IR from cfg.
func (r *Reverb) SetGenerated(cfg Config) error {
	cfg.SampleRate = r.sampleRate
	left, right, err := Generate(cfg)
	if err != nil {
		return err
	}
	return r.SetIR(left, right)
}

// ClearIR returns the stage to dry output.
func (r *Reverb) ClearIR() {
	r.left = nil
	r.right = nil
	r.irLen = 0
	r.Reset()
}

// HasIR reports whether a convolution path is installed.
func (r *Reverb) HasIR() bool { return r.left != nil }

// IRLength returns the installed IR length in samples.
func (r *Reverb) IRLength() int { return r.irLen }

// SetMix sets the wet proportion in [0, 1].
func (r *Reverb) SetMix(mix float32) {
	r.mix = min(max(mix, 0), 1)
}

// Mix returns the wet proportion.
func (r *Reverb) Mix() float32 { return r.mix }

// SetGain sets the master output gain. Negative values clamp to 0.
func (r *Reverb) SetGain(g float32) {
	r.gain = max(g, 0)
}

// Gain returns the master output gain.
func (r *Reverb) Gain() float32 { return r.gain }

// Process applies the stage in place to interleaved stereo frames.
func (r *Reverb) Process(buf []float32) {
	frames := len(buf) / 2
	if r.left == nil || r.mix == 0 {
		for i := range buf[:frames*2] {
			buf[i] *= r.gain
		}
		return
	}
	dry := 1 - r.mix
	for f := 0; f < frames; f++ {
		l, rr := buf[f*2], buf[f*2+1]
		wl, wr := r.wetL[r.fill], r.wetR[r.fill]
		r.inL[r.fill] = l
		r.inR[r.fill] = rr
		r.fill++
		if r.fill == PartitionSize {
			r.convolve()
		}
		buf[f*2] = r.gain * (dry*l + r.mix*wl)
		buf[f*2+1] = r.gain * (dry*rr + r.mix*wr)
	}
}

func (r *Reverb) convolve() {
	r.fill = 0
	errL := r.left.ProcessBlockTo(r.wetL, r.inL)
	errR := r.right.ProcessBlockTo(r.wetR, r.inR)
	if errL != nil || errR != nil {
		clear(r.wetL)
		clear(r.wetR)
	}
}

// Reset clears convolution history and the partition buffers.
func (r *Reverb) Reset() {
	if r.left != nil {
		r.left.Reset()
		r.right.Reset()
	}
	clear(r.inL)
	clear(r.inR)
	clear(r.wetL)
	clear(r.wetR)
	r.fill = 0
}
