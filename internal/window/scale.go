package window

import (
	"os"
	"strconv"
	"strings"
)

var commonScales = []float32{0.75, 1.0, 1.25, 1.5, 1.75, 2.0, 2.5, 3.0, 4.0}

// envScale returns the first positive scale factor found in the toolkit
// environment variables desktop sessions export, or 0.
func envScale() float32 {
	for _, name := range []string{"GTK_SCALE", "GDK_SCALE", "QT_SCALE_FACTOR"} {
		if scale := getEnvScale(name); scale > 0 {
			return roundScale(scale)
		}
	}
	return 0
}

func getEnvScale(envVar string) float32 {
	val := os.Getenv(envVar)
	if val == "" {
		return 0
	}
	scale, err := strconv.ParseFloat(val, 32)
	if err != nil || scale <= 0 {
		return 0
	}
	return float32(scale)
}

// parseXftDPI extracts the Xft.dpi value from an X resource manager string
// such as "Xft.dpi:\t96\n". It returns 0 when the key is absent or invalid.
func parseXftDPI(resources string) float32 {
	for _, line := range strings.Split(resources, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != "Xft.dpi" {
			continue
		}
		dpi, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
		if err != nil || dpi <= 0 {
			return 0
		}
		return float32(dpi)
	}
	return 0
}

// dpiScale converts a physical DPI measurement into a scale factor, ignoring
// values outside the plausible 72..300 range.
func dpiScale(widthPx, widthMM int32) float32 {
	if widthPx <= 0 || widthMM <= 0 {
		return 0
	}
	dpi := float32(widthPx) / float32(widthMM) * 25.4
	if dpi < 72 || dpi > 300 {
		return 0
	}
	return roundScale(dpi / 96.0)
}

// roundScale snaps a scale factor to the nearest common value when it is
// within 0.1 of it, otherwise clamps it to [0.5, 4].
func roundScale(scale float32) float32 {
	best := float32(1.0)
	minDiff := float32(1000.0)
	for _, cs := range commonScales {
		diff := scale - cs
		if diff < 0 {
			diff = -diff
		}
		if diff < minDiff {
			minDiff = diff
			best = cs
		}
	}
	if minDiff < 0.1 {
		return best
	}
	switch {
	case scale < 0.5:
		return 0.5
	case scale > 4.0:
		return 4.0
	}
	return scale
}
