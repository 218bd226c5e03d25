package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mcules/gender-form/internal/answers"
	"github.com/mcules/gender-form/internal/form"
	"github.com/mcules/gender-form/internal/genderize"
	"github.com/mcules/gender-form/internal/predcache"
	"github.com/mcules/gender-form/internal/validate"
)

// Handler serves the JSON API. It speaks to the store and the prediction
// client directly; the form state belongs to the UI alone.
type Handler struct {
	Store  *answers.Store
	Client form.Predictor
	Cache  *predcache.Cache
	Logger *zap.Logger
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/predict", h.HandlePredict)
	mux.HandleFunc("/v1/answers", h.HandleAnswers)
}

type predictResponse struct {
	Name        string   `json:"name"`
	Gender      *string  `json:"gender"`
	Probability *float64 `json:"probability,omitempty"`
	Display     string   `json:"display,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandlePredict is GET /v1/predict?name=. Unlike the form it reports the
// outcome synchronously; the error taxonomy and messages are the same.
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	name := r.URL.Query().Get("name")
	if ok, msg := validate.Name(name); !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	if h.Cache != nil {
		if e, ok := h.Cache.Get(name); ok {
			h.writeOutcome(w, name, e.Result, e.NotFound)
			return
		}
	}

	result, err := h.Client.Predict(r.Context(), name)
	switch {
	case errors.Is(err, genderize.ErrNotFound):
		if h.Cache != nil {
			h.Cache.PutNotFound(name)
		}
		h.writeOutcome(w, name, nil, true)
	case errors.Is(err, genderize.ErrUpstream):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: form.MsgPredictionServer})
	case err != nil:
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: form.MsgPredictionNetwork})
	default:
		if h.Cache != nil {
			h.Cache.PutResult(name, result)
		}
		h.writeOutcome(w, name, result, false)
	}
}

func (h *Handler) writeOutcome(w http.ResponseWriter, name string, result *genderize.Result, notFound bool) {
	if notFound || result == nil || result.Gender == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: form.MsgPredictionNotFound})
		return
	}
	p := result.Probability
	writeJSON(w, http.StatusOK, predictResponse{
		Name:        name,
		Gender:      result.Gender,
		Probability: &p,
		Display:     result.Display(),
	})
}

type answerPayload struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

// HandleAnswers is /v1/answers:
//
//	GET            list all saved answers
//	GET ?name=     fetch one
//	POST           upsert {"name":..., "gender":...}
//	DELETE ?name=  remove (no-op when absent)
func (h *Handler) HandleAnswers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getAnswers(w, r)
	case http.MethodPost:
		h.postAnswer(w, r)
	case http.MethodDelete:
		h.deleteAnswer(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) getAnswers(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		all, err := h.Store.ListAll(r.Context())
		if err != nil {
			h.internalError(w, "list answers", err)
			return
		}
		out := make([]answerPayload, 0, len(all))
		for _, a := range all {
			out = append(out, answerPayload{Name: a.Name, Gender: a.Gender})
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	a, found, err := h.Store.Get(r.Context(), name)
	if err != nil {
		h.internalError(w, "get answer", err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no saved answer for this name"})
		return
	}
	writeJSON(w, http.StatusOK, answerPayload{Name: a.Name, Gender: a.Gender})
}

func (h *Handler) postAnswer(w http.ResponseWriter, r *http.Request) {
	var in answerPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	if ok, msg := validate.Name(in.Name); !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}
	if ok, msg := validate.Gender(in.Gender); !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	if err := h.Store.Upsert(r.Context(), in.Name, in.Gender); err != nil {
		h.internalError(w, "save answer", err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (h *Handler) deleteAnswer(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if err := h.Store.Delete(r.Context(), name); err != nil {
		h.internalError(w, "delete answer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	if h.Logger != nil {
		h.Logger.Error("api store error", zap.String("op", op), zap.Error(err))
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
