package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
	stats "github.com/cwbudde/algo-dsp/stats/time"
)

// DefaultSpectrumSize matches the host analyser resolution.
const DefaultSpectrumSize = 1024

// Spectrum is a Hann-windowed FFT magnitude analyser with reusable buffers.
// It is not safe for concurrent use.
type Spectrum struct {
	size   int
	plan   *algofft.Plan[complex128]
	window []float64
	frame  []complex128
	bins   []complex128
}

// NewSpectrum creates an analyser for frames of size samples (a power of two).
func NewSpectrum(size int) (*Spectrum, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("spectrum size must be a power of two >= 2, got %d", size)
	}
	w, err := window.Hann(size, window.WithPeriodic())
	if err != nil {
		return nil, err
	}
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	return &Spectrum{
		size:   size,
		plan:   plan,
		window: w,
		frame:  make([]complex128, size),
		bins:   make([]complex128, size),
	}, nil
}

// Size returns the frame length.
func (s *Spectrum) Size() int { return s.size }

// Bins returns the number of magnitude bins (size/2 + 1).
func (s *Spectrum) Bins() int { return s.size/2 + 1 }

func (s *Spectrum) transform(src []float64) bool {
	n := min(len(src), s.size)
	for i := 0; i < n; i++ {
		s.frame[i] = complex(src[i]*s.window[i], 0)
	}
	for i := n; i < s.size; i++ {
		s.frame[i] = 0
	}
	return s.plan.Forward(s.bins, s.frame) == nil
}

// Magnitudes writes linear bin magnitudes of the head of src into dst,
// growing dst when needed. Short input is zero padded.
func (s *Spectrum) Magnitudes(dst []float64, src []float64) []float64 {
	bins := s.Bins()
	if cap(dst) < bins {
		dst = make([]float64, bins)
	}
	dst = dst[:bins]
	if !s.transform(src) {
		clear(dst)
		return dst
	}
	for k := range dst {
		dst[k] = cmplx.Abs(s.bins[k])
	}
	return dst
}

// MagnitudesDB is Magnitudes in dB, floored at -240.
func (s *Spectrum) MagnitudesDB(dst []float64, src []float64) []float64 {
	dst = s.Magnitudes(dst, src)
	for k, v := range dst {
		dst[k] = linToDB(v)
	}
	return dst
}

// PeakFrequency returns the frequency of the strongest non-DC bin of src,
// refined by parabolic interpolation. Silence returns 0.
func (s *Spectrum) PeakFrequency(src []float64, sampleRate int) float64 {
	mags := s.Magnitudes(nil, src)
	best := 1
	for k := 2; k < len(mags); k++ {
		if mags[k] > mags[best] {
			best = k
		}
	}
	if mags[best] <= 1e-12 {
		return 0
	}
	offset := 0.0
	if best > 1 && best < len(mags)-1 {
		a := linToDB(mags[best-1])
		b := linToDB(mags[best])
		c := linToDB(mags[best+1])
		if den := a - 2*b + c; math.Abs(den) > 1e-12 {
			offset = 0.5 * (a - c) / den
		}
	}
	return (float64(best) + offset) * float64(sampleRate) / float64(s.size)
}

// SignalStats summarizes a rendered signal.
type SignalStats struct {
	Frames        int     `json:"frames"`
	RMS           float64 `json:"rms"`
	RMSDB         float64 `json:"rms_db"`
	Peak          float64 `json:"peak"`
	PeakDB        float64 `json:"peak_db"`
	CrestFactor   float64 `json:"crest_factor"`
	ZeroCrossings int     `json:"zero_crossings"`
}

// Describe computes time-domain statistics of x.
func Describe(x []float64) SignalStats {
	st := stats.Calculate(x)
	return SignalStats{
		Frames:        st.Length,
		RMS:           st.RMS,
		RMSDB:         linToDB(st.RMS),
		Peak:          st.Peak,
		PeakDB:        linToDB(st.Peak),
		CrestFactor:   st.CrestFactor,
		ZeroCrossings: st.ZeroCrossings,
	}
}
