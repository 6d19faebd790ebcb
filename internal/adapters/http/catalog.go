package httpadapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

type stagingRequest struct {
	Disease    string   `json:"disease"`
	Confidence *float64 `json:"confidence"`
	OnsetDate  string   `json:"onset_date"`
}

func (rt *Router) estimateStage(w http.ResponseWriter, r *http.Request) {
	var req stagingRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	disease := strings.TrimSpace(req.Disease)
	if disease == "" || req.Confidence == nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "estimate stage", fmt.Errorf("disease and confidence are required")))
		return
	}
	if *req.Confidence < 0 || *req.Confidence > 1 {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "estimate stage", fmt.Errorf("confidence must be within [0, 1]")))
		return
	}

	result := rt.deps.Stager.Estimate(domain.DiseaseLabel(disease), *req.Confidence, req.OnsetDate)
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) listDiseases(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"diseases": rt.deps.Catalog.List()})
}

func (rt *Router) getDisease(w http.ResponseWriter, r *http.Request) {
	entry, err := rt.deps.Catalog.Lookup(r.PathValue("key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (rt *Router) listStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.deps.Stats.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if stats == nil {
		stats = []domain.DiseaseStat{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}
