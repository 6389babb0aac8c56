package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/samuelfneumann/gotrain/dataset"
)

// previewDefault is how many samples a preview returns when the
// request does not say.
const previewDefault = 10

// datasetDetail is a dataset spec plus the derived output shape.
type datasetDetail struct {
	dataset.Spec
	OutputShape []int `json:"output_shape"`
}

type previewResponse struct {
	Features [][]float64 `json:"features"`
	Labels   []float64   `json:"labels"`
}

func (s *Server) handleListDatasets(w http.ResponseWriter,
	_ *http.Request) {
	s.respond(w, http.StatusOK, s.datasets.List())
}

func (s *Server) handleGetDataset(w http.ResponseWriter,
	r *http.Request) {
	spec, err := s.datasets.Spec(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}

	out := []int{1}
	if spec.Task == dataset.Classification {
		out = []int{spec.NumClasses}
	}
	s.respond(w, http.StatusOK, datasetDetail{
		Spec:        spec,
		OutputShape: out,
	})
}

func (s *Server) handlePreviewDataset(w http.ResponseWriter,
	r *http.Request) {
	n := previewDefault
	if raw := r.URL.Query().Get("num_samples"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.reject(w, http.StatusUnprocessableEntity, fmt.Sprintf(
				"num_samples must be an integer, got %q", raw))
			return
		}
		n = parsed
	}
	if n < 1 || n > 100 {
		s.reject(w, http.StatusUnprocessableEntity, fmt.Sprintf(
			"num_samples must be between 1 and 100, got %d", n))
		return
	}

	provider, err := s.datasets.Get(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}

	features, labels, err := dataset.Preview(provider, n)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, previewResponse{
		Features: features,
		Labels:   labels,
	})
}

func (s *Server) handleListTemplates(w http.ResponseWriter,
	r *http.Request) {
	datasetID := r.URL.Query().Get("dataset_id")
	s.respond(w, http.StatusOK, s.models.Templates(datasetID))
}

func (s *Server) handleGetTemplate(w http.ResponseWriter,
	r *http.Request) {
	tpl, err := s.models.Template(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, tpl)
}
