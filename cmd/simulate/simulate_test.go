package simulate

import (
	"testing"

	"github.com/markusressel/thermal2go/internal/simulation"
	"github.com/stretchr/testify/assert"
)

func TestSeries(t *testing.T) {
	// GIVEN
	samples := []simulation.Sample{
		{Temperature: 25.5, Duty: 0},
		{Temperature: 30, Duty: 60},
	}

	// WHEN
	temperatures, duties := series(samples)

	// THEN
	assert.Equal(t, []float64{25.5, 30}, temperatures)
	assert.Equal(t, []float64{0, 60}, duties)
}
