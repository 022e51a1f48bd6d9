package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/cwbudde/algo-resonant/internal/audioout"
	"github.com/cwbudde/algo-resonant/preset"
	"github.com/cwbudde/algo-resonant/resonant"
	"github.com/cwbudde/algo-resonant/room"
)

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Playback sample rate in Hz")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	blockFrames := flag.Int("block", 256, "Device block size in frames")
	roomEnabled := flag.Bool("room", false, "Convolve with a synthetic room IR")
	staggerMs := flag.Int("stagger-ms", 50, "Delay between resonators when bowing all")
	events := flag.Bool("events", true, "Print analysis telemetry")
	flag.Parse()

	p := preset.NewDefaultPreset()
	if *presetPath != "" {
		loaded, err := preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		p = loaded
	}

	engine := resonant.NewEngine(*sampleRate, p.Params)
	proc := resonant.NewProcessor(engine)
	stage := room.NewReverb(*sampleRate)
	stage.SetGain(p.MasterGain)
	if p.RoomIRPath != "" {
		if err := stage.SetIRFromWAV(p.RoomIRPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading room IR: %v\n", err)
			os.Exit(1)
		}
	} else if *roomEnabled {
		if err := stage.SetGenerated(room.DefaultConfig(*sampleRate)); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating room IR: %v\n", err)
			os.Exit(1)
		}
	}
	if stage.HasIR() {
		stage.SetMix(max(p.RoomMix, 0.25))
	}

	player, err := audioout.NewPlayer(*sampleRate, *blockFrames)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	defer player.Close()
	scope := newScope(*sampleRate)
	player.Attach(audioout.SourceFunc(func(out []float32) {
		proc.Process(out)
		stage.Process(out)
		scope.capture(out)
	}))
	player.Start()

	ctrl := resonant.NewController(proc)
	stagger := func(i int) {
		if i > 0 {
			time.Sleep(time.Duration(*staggerMs) * time.Millisecond)
		}
	}
	sess := newSession(ctrl, p.Params, p.Params.Seed+2, stagger)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting raw mode: %v\n", err)
		os.Exit(1)
	}
	restore := func() { _ = term.Restore(fd, oldState) }
	defer restore()

	say := func(s string) {
		// Raw mode needs explicit carriage returns.
		fmt.Print(strings.ReplaceAll(s, "\n", "\r\n") + "\r\n")
	}
	say(fmt.Sprintf("%d resonators at %d Hz", engine.Size(), *sampleRate))
	say(help)

	keys := make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			if n == 1 {
				keys <- buf[0]
			}
		}
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	var ev resonant.Event
	for {
		select {
		case b, ok := <-keys:
			if !ok {
				return
			}
			msg, quit := sess.handleKey(b)
			if msg != "" {
				say(msg)
			}
			if quit {
				ctrl.Close()
				return
			}
		case <-ticker.C:
			for proc.PollEvent(&ev) {
				if *events {
					if line := describeEvent(&ev, scope); line != "" {
						say(line)
					}
				}
			}
		}
	}
}

func describeEvent(ev *resonant.Event, sc *scope) string {
	switch ev.Kind {
	case resonant.EventCouplingUpdate:
		return fmt.Sprintf("coupling strength %.3f", ev.CouplingStrength)
	case resonant.EventAnalysis:
		var b strings.Builder
		fmt.Fprintf(&b, "peak %.3f", ev.Analysis.PeakAmplitude)
		if f := sc.peakFrequency(); f > 0 {
			fmt.Fprintf(&b, " | dominant %.1f Hz", f)
		}
		b.WriteString(" | energy")
		for _, r := range ev.Analysis.Resonators {
			fmt.Fprintf(&b, " %.0f", resonant.LinearToDB(r.Energy))
		}
		return b.String()
	}
	return ""
}
