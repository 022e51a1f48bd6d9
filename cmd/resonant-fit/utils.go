package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

func clamp(v, lo, hi float64) float64 {
	return dspcore.Clamp(v, lo, hi)
}

// parseWorkers accepts an integer >= 1 or "auto" (returned as 0).
func parseWorkers(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return 0, fmt.Errorf("empty value (use integer >= 1 or 'auto')")
	}
	if v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use integer >= 1 or 'auto')", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or 'auto')", n)
	}
	return n, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
