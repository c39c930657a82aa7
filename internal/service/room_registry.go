package service

import (
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timeslot"
)

type registryKey struct {
	day    string
	slot   string
	roomID string
}

// RoomClash is a sub-slot of a room claimed by more than one session.
type RoomClash struct {
	Day       string
	Slot      string
	RoomID    string
	Occupants []models.IndexedSession
}

// RoomRegistry maps (day, 50-minute sub-slot, room) to the sessions occupying it.
// Labs are expanded into their two sub-slots so lab and theory bookings become comparable.
type RoomRegistry struct {
	entries map[registryKey][]models.IndexedSession
	order   []registryKey
}

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{entries: make(map[registryKey][]models.IndexedSession)}
}

// Register records every sub-slot the session occupies.
func (r *RoomRegistry) Register(index int, session models.Session) {
	if session.RoomID == "" {
		return
	}
	day := timeslot.NormalizeDay(session.Day)
	for _, slot := range OccupiedSubSlots(session) {
		key := registryKey{day: day, slot: slot, roomID: session.RoomID}
		if _, ok := r.entries[key]; !ok {
			r.order = append(r.order, key)
		}
		r.entries[key] = append(r.entries[key], models.IndexedSession{Index: index, Session: session})
	}
}

// IsRoomAvailable reports whether no session holds the room during the sub-slot.
func (r *RoomRegistry) IsRoomAvailable(day, slot, roomID string) bool {
	return len(r.entries[registryKey{day: timeslot.NormalizeDay(day), slot: slot, roomID: roomID}]) == 0
}

// Occupants returns the sessions holding the room during the sub-slot.
func (r *RoomRegistry) Occupants(day, slot, roomID string) []models.IndexedSession {
	return r.entries[registryKey{day: timeslot.NormalizeDay(day), slot: slot, roomID: roomID}]
}

// Size is the number of occupied (day, sub-slot, room) cells.
func (r *RoomRegistry) Size() int {
	return len(r.entries)
}

// Clashes lists every cell with more than one occupant in registration order.
func (r *RoomRegistry) Clashes() []RoomClash {
	clashes := make([]RoomClash, 0)
	for _, key := range r.order {
		occupants := r.entries[key]
		if len(occupants) < 2 {
			continue
		}
		clashes = append(clashes, RoomClash{Day: key.day, Slot: key.slot, RoomID: key.roomID, Occupants: occupants})
	}
	return clashes
}

// OccupiedSubSlots expands a session into the registry slot labels it covers.
func OccupiedSubSlots(session models.Session) []string {
	if !session.IsLab() {
		if session.TimeSlot == "" {
			return nil
		}
		return []string{session.TimeSlot}
	}
	code := session.SessionName
	if !timeslot.IsLabCode(code) {
		derived, ok := timeslot.LabCodeForRange(session.TimeRange)
		if !ok {
			return nil
		}
		code = derived
	}
	subs, _ := timeslot.LabSubSlots(code)
	return subs
}
