// Package telemetry provides danger population tracking, bookmarking, and CSV output.
package telemetry

import "go.uber.org/zap/zapcore"

// EventType identifies telemetry events.
type EventType uint8

const (
	EventDiscover EventType = iota
	EventPromote
	EventRetire
	EventDrop
	EventDespawn
	EventShot
	EventExempt
)

var eventNames = [...]string{
	EventDiscover: "discover",
	EventPromote:  "promote",
	EventRetire:   "retire",
	EventDrop:     "drop",
	EventDespawn:  "despawn",
	EventShot:     "shot",
	EventExempt:   "exempt",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event represents a single lifecycle event for one danger.
type Event struct {
	Type      EventType
	Tick      int32
	EntityID  uint32
	Archetype string

	// Optional fields depending on event type
	X, Y float32
	Flag bool // exempt on/off for EventExempt
}

// NewPromoteEvent creates a promotion event.
func NewPromoteEvent(tick int32, entityID uint32, archetype string, x, y float32) Event {
	return Event{Type: EventPromote, Tick: tick, EntityID: entityID, Archetype: archetype, X: x, Y: y}
}

// NewRetireEvent creates a retirement event.
func NewRetireEvent(tick int32, entityID uint32, archetype string, x, y float32) Event {
	return Event{Type: EventRetire, Tick: tick, EntityID: entityID, Archetype: archetype, X: x, Y: y}
}

// NewDespawnEvent creates an event for a danger removed by the host.
func NewDespawnEvent(tick int32, entityID uint32, archetype string) Event {
	return Event{Type: EventDespawn, Tick: tick, EntityID: entityID, Archetype: archetype}
}

// NewExemptEvent creates a teleport exemption toggle event.
func NewExemptEvent(tick int32, entityID uint32, exempt bool) Event {
	return Event{Type: EventExempt, Tick: tick, EntityID: entityID, Flag: exempt}
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e Event) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", e.Type.String())
	enc.AddInt32("tick", e.Tick)
	enc.AddUint32("entity", e.EntityID)
	if e.Archetype != "" {
		enc.AddString("archetype", e.Archetype)
	}
	switch e.Type {
	case EventPromote, EventRetire:
		enc.AddFloat32("x", e.X)
		enc.AddFloat32("y", e.Y)
	case EventExempt:
		enc.AddBool("exempt", e.Flag)
	}
	return nil
}
