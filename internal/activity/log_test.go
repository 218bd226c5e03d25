package activity

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyLog(t *testing.T) {
	l := New(4)
	assert.Nil(t, l.List())
}

func TestNewestFirst(t *testing.T) {
	l := New(4)
	l.Add(Event{At: time.Now(), Type: EventSubmit, Name: "a"})
	l.Add(Event{At: time.Now(), Type: EventSave, Name: "b"})

	out := l.List()
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Name)
	assert.Equal(t, "a", out[1].Name)
}

func TestRingWrapsAround(t *testing.T) {
	l := New(3)
	for i := 0; i < 5; i++ {
		l.Add(Event{Type: EventSubmit, Name: strconv.Itoa(i)})
	}

	out := l.List()
	require.Len(t, out, 3)
	assert.Equal(t, "4", out[0].Name)
	assert.Equal(t, "3", out[1].Name)
	assert.Equal(t, "2", out[2].Name)
}

func TestZeroSizeGetsDefault(t *testing.T) {
	l := New(0)
	l.Add(Event{Type: EventClear})
	assert.Len(t, l.List(), 1)
}
