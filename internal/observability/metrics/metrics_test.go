package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("operation", "resume"),
		attribute.String("account_id", "456"),
		attribute.String("status", "active"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "operation" && attrs[1].Key != "operation" {
		t.Fatalf("expected operation to be retained")
	}
	if attrs[0].Key != "status" && attrs[1].Key != "status" {
		t.Fatalf("expected status to be retained")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordPostPublished(context.Background())
	m.RecordLogin(context.Background(), "success")
	m.RecordSubscriptionTransition(context.Background(), "cancel", "canceled")
	m.RecordRateLimitDenied(context.Background(), "login", "rate")
}

func TestNoopMetricsRecord(t *testing.T) {
	m := NewNoop()
	if m == nil {
		t.Fatal("expected metrics")
	}
	m.RecordRateLimitAllowed(context.Background(), "login")
}
