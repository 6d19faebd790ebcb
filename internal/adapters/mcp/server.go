// Package mcpadapter exposes stage estimation and the disease catalog as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
	"github.com/kirillkom/scalp-assistant/internal/core/ports"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/catalog"
)

const (
	serverName = "scalp-assistant"

	toolEstimateStage = "estimate_disease_stage"
	toolListDiseases  = "list_diseases"
)

type DiseaseCatalog interface {
	List() []catalog.Entry
	Lookup(key string) (catalog.Entry, error)
}

type Tools struct {
	stager  ports.StageEstimator
	catalog DiseaseCatalog
}

func NewTools(stager ports.StageEstimator, diseases DiseaseCatalog) *Tools {
	return &Tools{stager: stager, catalog: diseases}
}

// NewServer registers the tools on a fresh MCP server.
func NewServer(version string, tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool(toolEstimateStage,
		mcp.WithDescription("Estimate the clinical stage of a scalp condition from the predicted disease, model confidence and symptom onset date."),
		mcp.WithString("disease",
			mcp.Required(),
			mcp.Description("Disease label as returned by the classifier (e.g. \"Head Lice\") or its catalog slug."),
		),
		mcp.WithNumber("confidence",
			mcp.Required(),
			mcp.Description("Model confidence in [0, 1]."),
			mcp.Min(0),
			mcp.Max(1),
		),
		mcp.WithString("onset_date",
			mcp.Description("Symptom onset date, YYYY-MM-DD. Omit when unknown."),
		),
	), tools.EstimateStage)

	s.AddTool(mcp.NewTool(toolListDiseases,
		mcp.WithDescription("List the scalp conditions the classifier recognises with their progression class and stage bands."),
	), tools.ListDiseases)

	return s
}

func (t *Tools) EstimateStage(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	disease, err := request.RequireString("disease")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	confidence, err := request.RequireFloat("confidence")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if confidence < 0 || confidence > 1 {
		return mcp.NewToolResultError("confidence must be within [0, 1]"), nil
	}
	onset := strings.TrimSpace(request.GetString("onset_date", ""))

	label := domain.DiseaseLabel(strings.TrimSpace(disease))
	if entry, err := t.catalog.Lookup(string(label)); err == nil {
		label = entry.Label
	}

	result := t.stager.Estimate(label, confidence, onset)
	slog.Info("mcp_stage_estimated",
		"disease", label.String(),
		"stage_number", result.StageNum(),
		"confidence_level", result.ConfidenceLevel,
	)
	return jsonResult(result)
}

func (t *Tools) ListDiseases(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"diseases": t.catalog.List()})
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
