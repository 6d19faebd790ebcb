package httpadapter

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
	"github.com/kirillkom/scalp-assistant/internal/core/ports"
)

const multipartMemory = 1 << 20

type predictionResponse struct {
	ID               string              `json:"id"`
	Filename         string              `json:"filename"`
	PredictedClass   domain.DiseaseLabel `json:"predicted_class"`
	Confidence       float64             `json:"confidence"`
	TopPredictions   []domain.LabelScore `json:"top_predictions"`
	SymptomStartDate *string             `json:"symptom_start_date"`
	StageInfo        domain.StageResult  `json:"stage_info"`
	CreatedAt        time.Time           `json:"created_at"`
	Success          bool                `json:"success"`
}

func toPredictionResponse(p domain.Prediction) predictionResponse {
	top := p.TopPredictions
	if top == nil {
		top = []domain.LabelScore{}
	}
	return predictionResponse{
		ID:               p.ID,
		Filename:         p.Filename,
		PredictedClass:   p.PredictedClass,
		Confidence:       p.Confidence,
		TopPredictions:   top,
		SymptomStartDate: p.SymptomStartDate,
		StageInfo:        p.StageInfo,
		CreatedAt:        p.CreatedAt,
		Success:          true,
	}
}

func (rt *Router) createPrediction(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.UploadMaxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request must be multipart/form-data"})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	prediction, err := rt.deps.Predictor.Predict(r.Context(), ports.PredictRequest{
		UserID:           session.UserID,
		Filename:         header.Filename,
		MimeType:         header.Header.Get("Content-Type"),
		Body:             file,
		SymptomStartDate: r.FormValue("symptom_start_date"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordPrediction(serviceName, prediction.PredictedClass.String(), prediction.StageInfo.StageNumber, prediction.Confidence)
	}
	writeJSON(w, http.StatusOK, toPredictionResponse(*prediction))
}

func (rt *Router) listPredictions(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
		return
	}

	predictions, err := rt.deps.Predictions.List(r.Context(), session.UserID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]predictionResponse, 0, len(predictions))
	for _, p := range predictions {
		out = append(out, toPredictionResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": out})
}

func (rt *Router) getPrediction(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	prediction, err := rt.deps.Predictions.Get(r.Context(), session.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionResponse(*prediction))
}

// exportPredictions renders into memory first so a failure can still be reported as JSON.
func (rt *Router) exportPredictions(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	var buf bytes.Buffer
	if err := rt.deps.Predictions.Export(r.Context(), session.UserID, &buf); err != nil {
		writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("predictions-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", rt.deps.Predictions.ExportContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
