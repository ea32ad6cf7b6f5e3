package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatusWithoutChecksIsOK(t *testing.T) {
	status, ok := NewService().Status(context.Background())
	if !ok || status["ok"] != true {
		t.Fatalf("expected ok, got %v", status)
	}
	if _, present := status["dependencies"]; present {
		t.Fatalf("expected no dependencies key, got %v", status)
	}
}

func TestStatusReportsFailingDependency(t *testing.T) {
	s := NewService()
	s.Register("database", func(ctx context.Context) error { return nil })
	s.Register("redis", func(ctx context.Context) error { return errors.New("connection refused") })

	status, ok := s.Status(context.Background())
	if ok {
		t.Fatalf("expected failure, got %v", status)
	}
	deps := status["dependencies"].(map[string]string)
	if deps["database"] != "ok" || deps["redis"] != "connection refused" {
		t.Fatalf("unexpected dependencies %v", deps)
	}
}
