package history

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/markusressel/thermal2go/internal/persistence"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	// GIVEN
	session := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	transitions := []persistence.Transition{
		{Session: session, Time: time.Now(), From: thermal.Boot, To: thermal.Running, PowerMode: 0b1},
		{Session: session, Time: time.Now(), From: thermal.Running, To: thermal.Overheated, PowerMode: 0b1},
	}

	// WHEN
	result := transitionTable(transitions)

	// THEN
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, "6ba7b810", result.Rows[0][2])
	assert.Equal(t, "Running", result.Rows[1][3])
	assert.Equal(t, "Overheated", result.Rows[1][4])
}
