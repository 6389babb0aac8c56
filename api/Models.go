package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/samuelfneumann/gotrain/arch"
	"github.com/samuelfneumann/gotrain/modelstore"
	"github.com/samuelfneumann/gotrain/session"
	"github.com/samuelfneumann/gotrain/train"
)

// trainRequest is the body of POST /api/models/{model_id}/train.
// DatasetID and Layers are required for model_id "new" and otherwise
// override the stored configuration; the embedded options override
// the dataset's recommended hyperparameters.
type trainRequest struct {
	DatasetID string       `json:"dataset_id,omitempty"`
	Layers    []arch.Layer `json:"layers,omitempty"`
	train.Options
}

// trainResponse acknowledges an admitted session.
type trainResponse struct {
	SessionID           string  `json:"session_id"`
	Status              string  `json:"status"`
	TotalEpochs         int     `json:"total_epochs"`
	PollIntervalSeconds float64 `json:"poll_interval_seconds"`
}

func (s *Server) handleCreateModel(w http.ResponseWriter,
	r *http.Request) {
	var req modelstore.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.reject(w, http.StatusUnprocessableEntity,
			"invalid request body: "+err.Error())
		return
	}

	cfg, err := s.models.Create(req)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, cfg)
}

func (s *Server) handleGetModel(w http.ResponseWriter,
	r *http.Request) {
	cfg, err := s.models.Get(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, cfg)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	modelID := mux.Vars(r)["model_id"]

	var req trainRequest
	if err := decodeJSON(r, &req); err != nil {
		s.reject(w, http.StatusUnprocessableEntity,
			"invalid request body: "+err.Error())
		return
	}

	datasetID, layers := req.DatasetID, req.Layers
	if modelID == "new" {
		if datasetID == "" || len(layers) == 0 {
			s.reject(w, http.StatusBadRequest, `model_id "new" requires `+
				"dataset_id and layers in the request body")
			return
		}
		// Ad-hoc architectures train under a throwaway model id so
		// the single-active-session rule still has something to key
		// on.
		modelID = "temp-" + uuid.NewString()
	} else {
		cfg, err := s.models.Get(modelID)
		if err != nil {
			s.fail(w, err)
			return
		}
		if datasetID == "" {
			datasetID = cfg.DatasetID
		}
		if len(layers) == 0 {
			layers = cfg.Layers
		}
	}

	snapshot, err := s.manager.StartTraining(r.Context(),
		session.StartRequest{
			ModelID:   modelID,
			DatasetID: datasetID,
			Layers:    layers,
			Options:   req.Options,
		})
	if err != nil {
		s.fail(w, err)
		return
	}

	s.respond(w, http.StatusAccepted, trainResponse{
		SessionID:           snapshot.ID,
		Status:              string(snapshot.Status),
		TotalEpochs:         snapshot.TotalEpochs,
		PollIntervalSeconds: snapshot.PollHint,
	})
}
