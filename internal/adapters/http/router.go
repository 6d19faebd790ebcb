package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kirillkom/scalp-assistant/internal/config"
	"github.com/kirillkom/scalp-assistant/internal/core/ports"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/catalog"
	"github.com/kirillkom/scalp-assistant/internal/observability/metrics"
)

const serviceName = "api"

// DiseaseCatalog is the read side of the embedded disease catalog.
type DiseaseCatalog interface {
	List() []catalog.Entry
	Lookup(key string) (catalog.Entry, error)
}

type Dependencies struct {
	Predictor   ports.ImagePredictor
	Predictions ports.PredictionReader
	Auth        ports.Authenticator
	Stager      ports.StageEstimator
	Stats       ports.StatsService
	Catalog     DiseaseCatalog
	Metrics     *metrics.HTTPServerMetrics
	OpenAPI     []byte
}

type Router struct {
	cfg  config.Config
	deps Dependencies
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	return &Router{cfg: cfg, deps: deps}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}
	mux.HandleFunc("GET /openapi.yaml", rt.openAPIDocument)

	mux.HandleFunc("POST /v1/auth/register", rt.register)
	mux.HandleFunc("POST /v1/auth/login", rt.login)
	mux.HandleFunc("POST /v1/auth/logout", rt.logout)
	mux.HandleFunc("GET /v1/auth/status", rt.authStatus)

	mux.Handle("POST /v1/predictions", rt.requireSession(rt.createPrediction))
	mux.Handle("GET /v1/predictions", rt.requireSession(rt.listPredictions))
	mux.Handle("GET /v1/predictions/export", rt.requireSession(rt.exportPredictions))
	mux.Handle("GET /v1/predictions/{id}", rt.requireSession(rt.getPrediction))

	mux.HandleFunc("POST /v1/staging", rt.estimateStage)
	mux.HandleFunc("GET /v1/diseases", rt.listDiseases)
	mux.HandleFunc("GET /v1/diseases/{key}", rt.getDisease)
	mux.Handle("GET /v1/stats", rt.requireSession(rt.listStats))

	var handler http.Handler = securityHeadersMiddleware(mux)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait, rt.rejected("backpressure"))
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.rejected("rate_limit"))
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) rejected(reason string) func() {
	return func() {
		if rt.deps.Metrics != nil {
			rt.deps.Metrics.RecordRejected(serviceName, reason)
		}
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPIDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rt.deps.OpenAPI)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("write_json_failed", "error", err)
	}
}
