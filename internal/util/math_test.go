package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	assert.Equal(t, 5.0, Coerce(5.0, 0, 10))
	assert.Equal(t, 0.0, Coerce(-1.0, 0, 10))
	assert.Equal(t, 10.0, Coerce(11.0, 0, 10))
	assert.Equal(t, 3, Coerce(3, 3, 3))
}

func TestAvg(t *testing.T) {
	assert.Equal(t, 0.0, Avg(nil))
	assert.Equal(t, 2.0, Avg([]float64{1, 2, 3}))
}

func TestMinMax(t *testing.T) {
	// GIVEN
	values := []float64{3, -1, 7, 2}

	// THEN
	assert.Equal(t, -1.0, Min(values))
	assert.Equal(t, 7.0, Max(values))
	assert.Equal(t, 0.0, Min[float64](nil))
	assert.Equal(t, 0.0, Max[float64](nil))
}
