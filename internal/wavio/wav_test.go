package wavio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWriteReadStereoRoundTrip(t *testing.T) {
	const sr = 44100
	frames := 512
	data := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/sr))
		data[i*2+1] = -data[i*2]
	}
	path := filepath.Join(t.TempDir(), "nested", "out.wav")
	if err := WriteStereo(path, data, sr); err != nil {
		t.Fatalf("WriteStereo: %v", err)
	}

	st, err := ReadStereo(path)
	if err != nil {
		t.Fatalf("ReadStereo: %v", err)
	}
	if st.SampleRate != sr || len(st.Left) != frames || len(st.Right) != frames {
		t.Fatalf("unexpected shape: sr=%d left=%d right=%d", st.SampleRate, len(st.Left), len(st.Right))
	}
	for i := 0; i < frames; i++ {
		if math.Abs(float64(st.Left[i]-data[i*2])) > 1e-3 || math.Abs(float64(st.Right[i]-data[i*2+1])) > 1e-3 {
			t.Fatalf("frame %d mismatch: got=(%f,%f) want=(%f,%f)", i, st.Left[i], st.Right[i], data[i*2], data[i*2+1])
		}
	}

	mono, monoRate, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono: %v", err)
	}
	if monoRate != sr || len(mono) != frames {
		t.Fatalf("unexpected mono shape: sr=%d frames=%d", monoRate, len(mono))
	}
	for i, v := range mono {
		if math.Abs(v) > 1e-3 {
			t.Fatalf("expected cancelling channels at %d: got=%f", i, v)
		}
	}
}

func TestWriteMonoReadStereoDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	if err := WriteMono(path, []float32{0.25, -0.25, 0.5, 0}, 8000); err != nil {
		t.Fatalf("WriteMono: %v", err)
	}
	st, err := ReadStereo(path)
	if err != nil {
		t.Fatalf("ReadStereo: %v", err)
	}
	for i := range st.Left {
		if st.Left[i] != st.Right[i] {
			t.Fatalf("expected duplicated channel at %d: got=(%f,%f)", i, st.Left[i], st.Right[i])
		}
	}
}

func TestWriteStereoRejectsOddLength(t *testing.T) {
	if err := WriteStereo(filepath.Join(t.TempDir(), "x.wav"), []float32{0, 1, 2}, 8000); err == nil {
		t.Fatalf("expected error for odd interleaved length")
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, _, err := ReadMono(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	in := []float64{1, 2, 3}
	out, err := Resample(in, 48000, 48000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if &out[0] != &in[0] {
		t.Fatalf("expected input slice to be returned unchanged")
	}
}

func TestResampleChangesLength(t *testing.T) {
	in := make([]float32, 4800)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 100 * float64(i) / 48000))
	}
	out, err := Resample32(in, 48000, 24000)
	if err != nil {
		t.Fatalf("Resample32: %v", err)
	}
	if math.Abs(float64(len(out))-2400) > 64 {
		t.Fatalf("unexpected resampled length: got=%d want~=%d", len(out), 2400)
	}
}

func TestStereoHelpers(t *testing.T) {
	mono := StereoToMono([]float32{1, 0, 0.5, 0.5})
	if len(mono) != 2 || mono[0] != 0.5 || mono[1] != 0.5 {
		t.Fatalf("unexpected mono mix: %v", mono)
	}
	if got := StereoRMS([]float32{1, -1, 1, -1}); got != 1 {
		t.Fatalf("expected RMS 1: got=%f", got)
	}
	if got := DBFS(0); got != -200 {
		t.Fatalf("expected floor: got=%f want=%f", got, -200.0)
	}
	if got := DBFS(1); got != 0 {
		t.Fatalf("expected 0 dBFS: got=%f", got)
	}
}
