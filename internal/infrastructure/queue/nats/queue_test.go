package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

func TestClassifyNATSError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "no servers", err: fmt.Errorf("nats publish: %w", nats.ErrNoServers), retryable: true, record: true},
		{name: "connection closed", err: nats.ErrConnectionClosed, retryable: true, record: true},
		{name: "canceled", err: context.Canceled, retryable: false, record: false},
		{name: "bad subject", err: nats.ErrBadSubject, retryable: false, record: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			class := classifyNATSError(tc.err)
			if class.Retryable != tc.retryable || class.RecordFailure != tc.record {
				t.Fatalf("classifyNATSError(%v) = %+v", tc.err, class)
			}
		})
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	if err := wrapTemporaryIfNeeded(nats.ErrNoServers); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	plain := errors.New("bad payload")
	if err := wrapTemporaryIfNeeded(plain); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("permanent errors must not become temporary")
	}
}

func TestDecodeEvent(t *testing.T) {
	event, err := decodeEvent([]byte(`{"prediction_id":"p-1","predicted_class":"Psoriasis","confidence":0.8,"stage_number":3,"progression_class":"moderate"}`))
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	if event.PredictedClass != domain.Psoriasis || event.StageNumber == nil || *event.StageNumber != 3 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.ProgressionClass != domain.ProgressionModerate {
		t.Fatalf("unexpected progression class %q", event.ProgressionClass)
	}

	if _, err := decodeEvent([]byte(`{"predicted_class":"Psoriasis"}`)); err == nil {
		t.Fatalf("expected error for event without id")
	}
	if _, err := decodeEvent([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
