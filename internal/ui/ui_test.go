package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcules/gender-form/internal/activity"
	"github.com/mcules/gender-form/internal/answers"
	"github.com/mcules/gender-form/internal/auth"
	"github.com/mcules/gender-form/internal/form"
	"github.com/mcules/gender-form/internal/genderize"
	"github.com/mcules/gender-form/internal/metrics"
	"github.com/mcules/gender-form/internal/state"
	"github.com/mcules/gender-form/internal/validate"
)

type fakePredictor struct {
	result *genderize.Result
	err    error
}

func (f *fakePredictor) Predict(ctx context.Context, name string) (*genderize.Result, error) {
	return f.result, f.err
}

type fixture struct {
	handler *Handler
	mux     *http.ServeMux
	store   *answers.Store
	auth    *auth.Authenticator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := answers.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	formState := state.New()
	controller := &form.Controller{
		State:    formState,
		Store:    store,
		Client:   &fakePredictor{err: genderize.ErrUnreachable},
		Activity: activity.New(10),
	}
	authenticator := auth.NewAuthenticator(store)

	h, err := NewHandler(formState, controller, store, authenticator, controller.Activity, metrics.NewTracker(0.2), "templates")
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.Register(mux)

	return &fixture{handler: h, mux: mux, store: store, auth: authenticator}
}

func (f *fixture) get(t *testing.T, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) postForm(t *testing.T, target string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func TestFormPageRenders(t *testing.T) {
	f := newFixture(t)

	rr := f.get(t, "/ui/")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `name="name"`)
	assert.Contains(t, body, `value="male"`)
	assert.Contains(t, body, `value="female"`)
}

func TestSubmitInvalidNameShowsError(t *testing.T) {
	f := newFixture(t)

	rr := f.postForm(t, "/ui/submit", url.Values{"name": {"Jordan99"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = f.get(t, "/ui/")
	assert.Contains(t, rr.Body.String(), validate.MsgNameInvalid)
}

func TestSaveAndClearFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rr := f.postForm(t, "/ui/save", url.Values{"name": {"Sam"}, "gender": {"female"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	a, found, err := f.store.Get(ctx, "Sam")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "female", a.Gender)

	rr = f.get(t, "/ui/")
	assert.Contains(t, rr.Body.String(), "Sam is female")

	rr = f.postForm(t, "/ui/clear", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	_, found, err = f.store.Get(ctx, "Sam")
	require.NoError(t, err)
	assert.False(t, found)

	rr = f.get(t, "/ui/")
	assert.Contains(t, rr.Body.String(), "Saved answer for Sam was cleared!")
}

func TestSaveWithoutGenderShowsMessage(t *testing.T) {
	f := newFixture(t)

	f.postForm(t, "/ui/save", url.Values{"name": {"Sam"}})
	rr := f.get(t, "/ui/")
	assert.Contains(t, rr.Body.String(), validate.MsgNoGender)
}

func TestAdminPagesRequireLogin(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/ui/answers", "/ui/activity", "/ui/keys"} {
		rr := f.get(t, target)
		assert.Equal(t, http.StatusFound, rr.Code, target)
		assert.Equal(t, "/ui/login", rr.Header().Get("Location"))
	}
}

func TestLoginFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.CreateUser(ctx, "admin", "secret"))

	rr := f.postForm(t, "/ui/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Ungültiger Benutzername oder Passwort")

	rr = f.postForm(t, "/ui/login", url.Values{"username": {"admin"}, "password": {"secret"}})
	require.Equal(t, http.StatusFound, rr.Code)

	res := rr.Result()
	require.NotEmpty(t, res.Cookies())
	session := res.Cookies()[0]
	assert.Equal(t, "session", session.Name)

	rr = f.get(t, "/ui/answers", session)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAPIKeyPageFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.CreateUser(ctx, "admin", "secret"))
	sess, err := f.auth.CreateSession(ctx, "admin")
	require.NoError(t, err)
	cookie := &http.Cookie{Name: "session", Value: sess.Token}

	rr := f.postForm(t, "/ui/keys/create", url.Values{"name": {"ci"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "new_key=sk-")

	rr = f.get(t, "/ui/keys", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ci")
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rr := f.get(t, "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}
