package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestRoomRegistryExpandsLabsIntoSubSlots(t *testing.T) {
	lab := labSession("CS201", "T1", "R1", "G1", "Monday", "L2", "10:00 - 11:40")
	theory := theorySession("CS101", "T2", "R1", "G2", "monday", "10:00 - 10:50")
	dir := loadedDirectory([]models.Session{lab}, []models.Session{theory})
	registry := dir.Registry()

	assert.Equal(t, 2, registry.Size())
	assert.False(t, registry.IsRoomAvailable("monday", "10:00 - 10:50", "R1"))
	assert.False(t, registry.IsRoomAvailable("MONDAY", "10:50 - 11:40", "R1"))
	assert.True(t, registry.IsRoomAvailable("monday", "11:00 - 11:50", "R1"))
	assert.True(t, registry.IsRoomAvailable("tuesday", "10:00 - 10:50", "R1"))

	clashes := registry.Clashes()
	require.Len(t, clashes, 1)
	assert.Equal(t, "10:00 - 10:50", clashes[0].Slot)
	assert.Len(t, clashes[0].Occupants, 2)
}

func TestOccupiedSubSlotsFallsBackToRange(t *testing.T) {
	lab := labSession("CS201", "T1", "R1", "G1", "monday", "", "1:20 - 3:00")
	assert.Equal(t, []string{"1:20 - 2:10", "2:10 - 3:00"}, OccupiedSubSlots(lab))

	lab.TimeRange = "9:00 - 9:30"
	assert.Empty(t, OccupiedSubSlots(lab))

	theory := theorySession("CS101", "T1", "R1", "G1", "monday", "")
	assert.Empty(t, OccupiedSubSlots(theory))
}
