package fan

import (
	"testing"

	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/stretchr/testify/assert"
)

func TestParseDuty(t *testing.T) {
	// WHEN
	valid, validErr := parseDuty("42")
	_, rangeErr := parseDuty("101")
	_, textErr := parseDuty("fast")

	// THEN
	assert.NoError(t, validErr)
	assert.Equal(t, thermal.PWMDuty(42), valid)
	assert.ErrorIs(t, rangeErr, thermal.ErrInvalidPWM)
	assert.ErrorIs(t, textErr, thermal.ErrInvalidPWM)
}
