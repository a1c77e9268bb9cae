package util

import (
	"math"

	"github.com/asecurityteam/rolling"
)

// CreateRollingWindow creates a window of the given size. Buckets that were
// never written hold NaN and are ignored by the GetWindow* functions.
func CreateRollingWindow(size int) *rolling.PointPolicy {
	window := rolling.NewWindow(size)
	for i := range window {
		window[i] = append(window[i], math.NaN())
	}
	return rolling.NewPointPolicy(window)
}

func windowValues(window rolling.Window) []float64 {
	var values []float64
	for _, bucket := range window {
		for _, value := range bucket {
			if !math.IsNaN(value) {
				values = append(values, value)
			}
		}
	}
	return values
}

// GetWindowCount returns the number of values in the window
func GetWindowCount(window *rolling.PointPolicy) int {
	return int(window.Reduce(func(w rolling.Window) float64 {
		return float64(len(windowValues(w)))
	}))
}

// GetWindowMax returns the largest value in the window
func GetWindowMax(window *rolling.PointPolicy) float64 {
	return window.Reduce(func(w rolling.Window) float64 {
		return Max(windowValues(w))
	})
}

// GetWindowMin returns the smallest value in the window
func GetWindowMin(window *rolling.PointPolicy) float64 {
	return window.Reduce(func(w rolling.Window) float64 {
		return Min(windowValues(w))
	})
}

// GetWindowAvg returns the average of all values in the window
func GetWindowAvg(window *rolling.PointPolicy) float64 {
	return window.Reduce(func(w rolling.Window) float64 {
		return Avg(windowValues(w))
	})
}
