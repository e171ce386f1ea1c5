package keypad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const selectKey Key = 0

func press(k *Keypad, ticks int) []Event {
	var events []Event
	k.SetInput(selectKey, true)
	for i := 0; i < ticks; i++ {
		k.Periodic(true)
		events = append(events, k.Event(selectKey))
	}
	k.SetInput(selectKey, false)
	k.Periodic(true)
	return append(events, k.Event(selectKey))
}

func TestKeypad_Click(t *testing.T) {
	k := New(1)
	events := press(k, 4)
	assert.Equal(t, Click, events[len(events)-1])
	// the event only lasts one period
	k.Periodic(true)
	assert.Equal(t, None, k.Event(selectKey))
}

func TestKeypad_Bounce(t *testing.T) {
	k := New(1)
	events := press(k, 1)
	for _, e := range events {
		assert.Equal(t, None, e)
	}
}

func TestKeypad_Hold(t *testing.T) {
	k := New(1, WithThresholds(2, 5))
	events := press(k, 10)
	holds := 0
	for _, e := range events {
		if e == Hold {
			holds++
		}
		assert.NotEqual(t, Click, e)
	}
	assert.Equal(t, 1, holds)
}

func TestKeypad_NoTickNoDebounce(t *testing.T) {
	k := New(1)
	k.SetInput(selectKey, true)
	for i := 0; i < 10; i++ {
		k.Periodic(false)
	}
	k.SetInput(selectKey, false)
	k.Periodic(false)
	assert.Equal(t, None, k.Event(selectKey))
}

func TestKeypad_ResetInputs(t *testing.T) {
	k := New(2)
	k.SetInput(0, true)
	k.SetInput(1, true)
	k.ResetInputs()
	assert.False(t, k.Input(0))
	assert.False(t, k.Input(1))
	assert.Equal(t, "click", Click.String())
}
