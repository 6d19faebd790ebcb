package modelserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/resilience"
)

const (
	predictPath = "/predict"
	healthPath  = "/health"
)

// Observer receives the outcome ("ok" or "error") and latency of each Classify call.
type Observer func(outcome string, elapsed time.Duration)

type Options struct {
	Timeout            time.Duration
	MaxImageBytes      int64
	ResilienceExecutor *resilience.Executor
	Observer           Observer
}

type Client struct {
	baseURL       string
	httpClient    *http.Client
	maxImageBytes int64
	executor      *resilience.Executor
	observe       Observer
}

func New(baseURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxImageBytes := options.MaxImageBytes
	if maxImageBytes <= 0 {
		maxImageBytes = 10 << 20
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: timeout},
		maxImageBytes: maxImageBytes,
		executor:      options.ResilienceExecutor,
		observe:       options.Observer,
	}
}

type predictResponse struct {
	PredictedClass string   `json:"predicted_class"`
	Confidence     *float64 `json:"confidence"`
	TopPredictions []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"top_predictions"`
	Error string `json:"error"`
}

func (c *Client) Classify(ctx context.Context, filename string, image io.Reader) (result domain.Classification, err error) {
	started := time.Now()
	defer func() {
		if c.observe == nil {
			return
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.observe(outcome, time.Since(started))
	}()

	payload, contentType, err := c.encodeImage(filename, image)
	if err != nil {
		return domain.Classification{}, err
	}

	var response predictResponse
	call := func(callCtx context.Context) error {
		response = predictResponse{}
		return c.postMultipart(callCtx, predictPath, contentType, payload, &response)
	}
	if c.executor != nil {
		err = c.executor.Execute(ctx, "modelserver.predict", call, classifyModelServerError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.Classification{}, wrapTemporaryIfNeeded("model server predict", err)
	}

	return toClassification(response)
}

// Health probes GET /health; any non-2xx status is an error.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapTemporaryIfNeeded("model server health", fmt.Errorf("model server health request: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return wrapTemporaryIfNeeded("model server health", &HTTPStatusError{
			Operation:  "health",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		})
	}
	return nil
}

func toClassification(response predictResponse) (domain.Classification, error) {
	if strings.TrimSpace(response.Error) != "" {
		return domain.Classification{}, fmt.Errorf("model server predict: %s", strings.TrimSpace(response.Error))
	}
	label := strings.TrimSpace(response.PredictedClass)
	if label == "" || response.Confidence == nil {
		return domain.Classification{}, domain.WrapError(domain.ErrTemporary, "model server predict",
			fmt.Errorf("incomplete response: predicted_class=%q", label))
	}

	result := domain.Classification{
		Label:      domain.DiseaseLabel(label),
		Confidence: *response.Confidence,
		Top:        make([]domain.LabelScore, 0, len(response.TopPredictions)),
	}
	for _, item := range response.TopPredictions {
		result.Top = append(result.Top, domain.LabelScore{
			Label:      domain.DiseaseLabel(strings.TrimSpace(item.Label)),
			Confidence: item.Confidence,
		})
	}
	if !result.Label.IsKnown() {
		slog.Warn("model_server_unknown_label", "label", label)
	}
	return result, nil
}
