package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/samuelfneumann/gotrain/dataset"
	"github.com/samuelfneumann/gotrain/session"
	"github.com/samuelfneumann/gotrain/train"
)

type predictRequest struct {
	Inputs []float64 `json:"inputs"`
}

type classPrediction struct {
	Prediction    int       `json:"prediction"`
	Probabilities []float64 `json:"probabilities"`
	Confidence    float64   `json:"confidence"`
}

type valuePrediction struct {
	Prediction float64 `json:"prediction"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	since := 0
	if raw := r.URL.Query().Get("since_epoch"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.reject(w, http.StatusUnprocessableEntity, fmt.Sprintf(
				"since_epoch must be a non-negative integer, got %q",
				raw))
			return
		}
		since = parsed
	}

	snapshot, err := s.manager.Get(r.Context(),
		mux.Vars(r)["session_id"], since)
	if err != nil {
		s.fail(w, err)
		return
	}

	// Pollers must always see fresh progress.
	w.Header().Set("Cache-Control", "no-store")
	s.respond(w, http.StatusOK, snapshot)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.manager.Pause)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.manager.Resume)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.manager.Stop)
}

// control runs one manager control operation and writes the updated
// snapshot.
func (s *Server) control(w http.ResponseWriter, r *http.Request,
	op func(string) (train.Session, error)) {
	snapshot, err := op(mux.Vars(r)["session_id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, snapshot)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decodeJSON(r, &req); err != nil {
		s.reject(w, http.StatusUnprocessableEntity,
			"invalid request body: "+err.Error())
		return
	}

	pred, err := s.manager.Predict(mux.Vars(r)["session_id"], req.Inputs)
	if err != nil {
		// Lookup and readiness failures keep their usual codes;
		// anything else is a bad inputs payload.
		if errors.Is(err, session.ErrSessionNotFound) ||
			errors.Is(err, session.ErrSessionNotReady) {
			s.fail(w, err)
			return
		}
		s.reject(w, http.StatusBadRequest, err.Error())
		return
	}

	if pred.Task == dataset.Classification {
		s.respond(w, http.StatusOK, classPrediction{
			Prediction:    pred.Class,
			Probabilities: pred.Probabilities,
			Confidence:    pred.Confidence,
		})
		return
	}
	s.respond(w, http.StatusOK, valuePrediction{Prediction: pred.Value})
}
