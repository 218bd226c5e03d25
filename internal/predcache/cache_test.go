package predcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcules/gender-form/internal/activity"
	"github.com/mcules/gender-form/internal/genderize"
)

func strPtr(s string) *string { return &s }

func TestGetMissAndHit(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get("Alex")
	assert.False(t, ok)

	c.PutResult("Alex", &genderize.Result{Gender: strPtr("male"), Probability: 0.87})
	e, ok := c.Get("Alex")
	require.True(t, ok)
	require.NotNil(t, e.Result)
	assert.False(t, e.NotFound)
	assert.Equal(t, "male", *e.Result.Gender)
}

func TestNotFoundIsCached(t *testing.T) {
	c := New(time.Minute)

	c.PutNotFound("Zzyzx")
	e, ok := c.Get("Zzyzx")
	require.True(t, ok)
	assert.True(t, e.NotFound)
	assert.Nil(t, e.Result)
}

func TestExpiredEntryIsInvisible(t *testing.T) {
	c := New(10 * time.Millisecond)

	c.PutNotFound("Alex")
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("Alex")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "expired but not yet pruned")
}

func TestPruneRemovesExpired(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Activity = activity.New(5)

	c.PutNotFound("Alex")
	c.PutNotFound("Sam")
	time.Sleep(30 * time.Millisecond)
	c.PutNotFound("Fresh")

	c.prune(time.Now())
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("Fresh")
	assert.True(t, ok)

	events := c.Activity.List()
	require.Len(t, events, 1)
	assert.Equal(t, activity.EventCachePrune, events[0].Type)
}

func TestPruneNothingExpiredNoEvent(t *testing.T) {
	c := New(time.Minute)
	c.Activity = activity.New(5)

	c.PutNotFound("Alex")
	c.prune(time.Now())

	assert.Equal(t, 1, c.Len())
	assert.Empty(t, c.Activity.List())
}
