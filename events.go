package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
)

type EventType uint8

const (
	// BeginContact is emitted when two bodies start touching
	BeginContact EventType = iota
	EndContact
	// BeginShapeContact and EndShapeContact are the same transitions for a shape pair
	BeginShapeContact
	EndShapeContact
	// Collide is emitted for the first contact of a body pair that did not touch the step before
	Collide
	Sleepy
	Sleep
	WakeUp
	PreStep
	PostStep
)

func (t EventType) String() string {
	switch t {
	case BeginContact:
		return "beginContact"
	case EndContact:
		return "endContact"
	case BeginShapeContact:
		return "beginShapeContact"
	case EndShapeContact:
		return "endShapeContact"
	case Collide:
		return "collide"
	case Sleepy:
		return "sleepy"
	case Sleep:
		return "sleep"
	case WakeUp:
		return "wakeup"
	case PreStep:
		return "preStep"
	case PostStep:
		return "postStep"
	}
	return "unknown"
}

// Event is a record of something that happened during a step.
// Sleep events only set BodyA; PreStep and PostStep set no body.
type Event struct {
	Type  EventType
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
	// ShapeA and ShapeB are set for shape contacts and Collide
	ShapeA actor.Shape
	ShapeB actor.Shape
	// Contact is a copy of the contact equation that caused a Collide
	Contact *constraint.ContactEquation
	// Step is the world step number the event happened in
	Step int
}

// EventListener is called once the step that produced the event has completed
type EventListener func(event Event)

// Events buffers the records of the running step and dispatches them to the listeners.
type Events struct {
	listeners map[EventType][]EventListener

	buffer []Event
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 64),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// emitSleepTransitions turns the states a body entered during the step into events
func (e *Events) emitSleepTransitions(body *actor.RigidBody, step int) {
	body.ConsumeSleepTransitions(func(state actor.SleepState) {
		event := Event{BodyA: body, Step: step}
		switch state {
		case actor.Sleepy:
			event.Type = Sleepy
		case actor.Sleeping:
			event.Type = Sleep
		default:
			event.Type = WakeUp
		}
		e.emit(event)
	})
}

func (e *Events) reset() {
	clear(e.buffer)
	e.buffer = e.buffer[:0]
}

// flush calls the listeners with every buffered event, in emission order
func (e *Events) flush() []Event {
	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type] {
			listener(event)
		}
	}
	return e.buffer
}
