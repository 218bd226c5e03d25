package form

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mcules/gender-form/internal/activity"
	"github.com/mcules/gender-form/internal/answers"
	"github.com/mcules/gender-form/internal/genderize"
	"github.com/mcules/gender-form/internal/predcache"
	"github.com/mcules/gender-form/internal/state"
	"github.com/mcules/gender-form/internal/validate"
)

// Messages for the three prediction failure outcomes.
const (
	MsgPredictionNotFound = "No prediction is available for this name!"
	MsgPredictionServer   = "Something went wrong! Please try again later."
	MsgPredictionNetwork  = "An error occurred! Please try again later."
)

// Predictor is what the controller needs from the prediction client.
type Predictor interface {
	Predict(ctx context.Context, name string) (*genderize.Result, error)
}

// Controller wires the form actions to the validator, the store and the
// prediction client, and owns all writes to the form state.
type Controller struct {
	State  *state.FormState
	Store  *answers.Store
	Client Predictor

	// Optional. Cache short-circuits repeat fetches; Activity and Logger
	// record what happened.
	Cache    *predcache.Cache
	Activity *activity.Log
	Logger   *zap.Logger
}

// Submit validates the name, refreshes the saved-answer display from the
// store, and kicks off the prediction fetch. The fetch runs detached: it is
// not cancelled when the triggering request ends, and a stale result still
// lands on the prediction surface after a newer submit. Last write wins.
func (c *Controller) Submit(ctx context.Context, name string) {
	if ok, msg := validate.Name(name); !ok {
		c.State.SetError(msg)
		c.record(activity.EventSubmitRejected, name, msg)
		return
	}
	c.State.SetError("")
	c.record(activity.EventSubmit, name, "")

	// Synchronous saved-value lookup; the saved-answer record is re-pointed
	// at the submitted name either way, so a later clear targets it.
	saved, found, err := c.Store.Get(ctx, name)
	if err != nil {
		c.logError("saved-value lookup failed", name, err)
		found = false
	}
	if found {
		c.State.SetAnswer(name, saved.Gender)
		c.State.SetSavedText(fmt.Sprintf("%s is %s", name, saved.Gender))
	} else {
		c.State.SetAnswer(name, "")
		c.State.SetSavedText("")
	}

	if c.Cache != nil {
		if e, ok := c.Cache.Get(name); ok {
			c.applyCached(name, e)
			return
		}
	}

	// Deliberately not the request context: an in-flight fetch is never
	// cancelled, it finishes and writes whenever it resolves.
	go c.fetch(context.Background(), name)
}

// Save validates both inputs and persists the association. Name checks run
// before the gender check, and only the first failure is shown.
func (c *Controller) Save(ctx context.Context, name, gender string) error {
	if ok, msg := validate.Name(name); !ok {
		c.State.SetError(msg)
		c.record(activity.EventSaveRejected, name, msg)
		return nil
	}
	if ok, msg := validate.Gender(gender); !ok {
		c.State.SetError(msg)
		c.record(activity.EventSaveRejected, name, msg)
		return nil
	}
	c.State.SetError("")

	if err := c.Store.Upsert(ctx, name, gender); err != nil {
		c.logError("save failed", name, err)
		return err
	}
	c.State.SetAnswer(name, gender)
	c.State.SetSavedText(fmt.Sprintf("%s is %s", name, gender))
	c.record(activity.EventSave, name, gender)
	return nil
}

// Clear removes the store entry keyed by the record's current name and blanks
// the record. The delete is issued even when the name was never set; the
// store treats an absent key as a no-op.
func (c *Controller) Clear(ctx context.Context) error {
	name := c.State.ClearAnswer()
	if err := c.Store.Delete(ctx, name); err != nil {
		c.logError("clear failed", name, err)
		return err
	}
	c.State.SetSavedText(fmt.Sprintf("Saved answer for %s was cleared!", name))
	c.record(activity.EventClear, name, "")
	return nil
}

func (c *Controller) fetch(ctx context.Context, name string) {
	result, err := c.Client.Predict(ctx, name)
	switch {
	case errors.Is(err, genderize.ErrNotFound):
		if c.Cache != nil {
			c.Cache.PutNotFound(name)
		}
		c.showNotFound(name)
	case errors.Is(err, genderize.ErrUpstream):
		c.State.SetError(MsgPredictionServer)
		c.record(activity.EventPredictionError, name, MsgPredictionServer)
	case err != nil:
		c.State.SetError(MsgPredictionNetwork)
		c.record(activity.EventPredictionError, name, MsgPredictionNetwork)
	default:
		if c.Cache != nil {
			c.Cache.PutResult(name, result)
		}
		c.showResult(name, result)
	}
}

func (c *Controller) applyCached(name string, e predcache.Entry) {
	if e.NotFound {
		c.showNotFound(name)
		return
	}
	c.showResult(name, e.Result)
}

func (c *Controller) showResult(name string, result *genderize.Result) {
	// A 200 without a gender means "no data for this name", not an error.
	if result == nil || result.Gender == nil {
		c.showNotFound(name)
		return
	}
	c.State.SetPrediction(result.Display())
	c.record(activity.EventPredictionOK, name, result.Display())
}

// showNotFound writes the message to both the error and the prediction
// surface.
func (c *Controller) showNotFound(name string) {
	c.State.SetError(MsgPredictionNotFound)
	c.State.SetPrediction(MsgPredictionNotFound)
	c.record(activity.EventPredictionMiss, name, "")
}

func (c *Controller) record(t activity.EventType, name, note string) {
	if c.Activity == nil {
		return
	}
	c.Activity.Add(activity.Event{At: time.Now(), Type: t, Name: name, Note: note})
}

func (c *Controller) logError(msg, name string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, zap.String("name", name), zap.Error(err))
}
