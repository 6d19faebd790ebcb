package openapi

import (
	"context"
	"testing"
)

func TestLoadValidatesEmbeddedDocument(t *testing.T) {
	doc, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, path := range []string{"/v1/predictions", "/v1/predictions/{id}", "/v1/staging", "/v1/auth/login"} {
		if doc.Paths.Value(path) == nil {
			t.Fatalf("expected path %s in document", path)
		}
	}
	stage := doc.Components.Schemas["StageResult"]
	if stage == nil || stage.Value.Properties["stage_number"] == nil {
		t.Fatalf("expected StageResult schema with stage_number")
	}
}

func TestDocumentReturnsCopy(t *testing.T) {
	first := Document()
	first[0] = 'X'
	if Document()[0] == 'X' {
		t.Fatalf("Document() must return a copy")
	}
}
