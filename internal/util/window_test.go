package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetWindowMax(t *testing.T) {
	// GIVEN
	window := CreateRollingWindow(3)
	window.Append(1)
	window.Append(2)
	window.Append(3)

	// WHEN
	maximum := GetWindowMax(window)

	// THEN
	assert.Equal(t, 3.0, maximum)
}

func TestGetWindowAvg_DropsOldValues(t *testing.T) {
	// GIVEN
	window := CreateRollingWindow(2)
	window.Append(10)
	window.Append(2)
	window.Append(4)

	// WHEN
	avg := GetWindowAvg(window)

	// THEN
	assert.Equal(t, 3.0, avg)
	assert.Equal(t, 2.0, GetWindowMin(window))
}

func TestGetWindow_PartiallyFilled(t *testing.T) {
	// GIVEN
	window := CreateRollingWindow(5)
	window.Append(40)
	window.Append(50)

	// THEN
	assert.Equal(t, 2, GetWindowCount(window))
	assert.Equal(t, 40.0, GetWindowMin(window))
	assert.Equal(t, 45.0, GetWindowAvg(window))
}

func TestGetWindow_Empty(t *testing.T) {
	// GIVEN
	window := CreateRollingWindow(3)

	// THEN
	assert.Equal(t, 0, GetWindowCount(window))
	assert.Equal(t, 0.0, GetWindowMax(window))
}
