package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesSubscriber(t *testing.T) {
	bus := NewBus(nil)
	var got []Event

	bus.Subscribe(RoomUpdated, func(ev Event) { got = append(got, ev) })
	bus.Publish(Event{Type: RoomUpdated, RoomID: "r1"})

	assert.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RoomID)
}

func TestPublishOnlyMatchingType(t *testing.T) {
	bus := NewBus(nil)
	var moves, overs int

	bus.Subscribe(GameMove, func(Event) { moves++ })
	bus.Subscribe(GameOver, func(Event) { overs++ })

	bus.Publish(Event{Type: GameMove, RoomID: "r1"})
	bus.Publish(Event{Type: GameMove, RoomID: "r1"})

	assert.Equal(t, 2, moves)
	assert.Equal(t, 0, overs)
}

func TestMultipleSubscribersEachDeliveredOnce(t *testing.T) {
	bus := NewBus(nil)
	var a, b int

	bus.Subscribe(GameStarted, func(Event) { a++ })
	bus.Subscribe(GameStarted, func(Event) { b++ })
	bus.Publish(Event{Type: GameStarted, RoomID: "r1"})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(nil)
	var delivered bool

	bus.Subscribe(GameOver, func(Event) { panic("handler exploded") })
	bus.Subscribe(GameOver, func(Event) { delivered = true })

	assert.NotPanics(t, func() {
		bus.Publish(Event{Type: GameOver, RoomID: "r1"})
	})
	assert.True(t, delivered)
}

func TestPublishWithNoSubscribersIsNoop(t *testing.T) {
	bus := NewBus(nil)
	assert.NotPanics(t, func() {
		bus.Publish(Event{Type: PlayerLeft, RoomID: "r1"})
	})
}
