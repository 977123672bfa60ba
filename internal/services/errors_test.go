package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"zxmeta/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "scan", "extract", "7za failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"scan", "extract", "7za failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
}

func TestLookupFailureClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", services.Wrap(services.ErrNotFound, "zxinfo", "filecheck", "unknown hash", nil), true},
		{"timeout", services.Wrap(services.ErrTimeout, "zxinfo", "game", "", nil), true},
		{"deadline", fmt.Errorf("lookup: %w", context.DeadlineExceeded), true},
		{"config", services.Wrap(services.ErrConfiguration, "config", "", "bad", nil), false},
	}
	for _, tc := range cases {
		if got := services.IsLookupFailure(tc.err); got != tc.want {
			t.Errorf("%s: IsLookupFailure = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFailureReason(t *testing.T) {
	if got := services.FailureReason(fmt.Errorf("x: %w", context.DeadlineExceeded)); got != "timeout" {
		t.Fatalf("expected timeout, got %q", got)
	}
	if got := services.FailureReason(services.Wrap(services.ErrNotFound, "", "", "", nil)); got != "not found" {
		t.Fatalf("expected not found, got %q", got)
	}
	if !services.IsSetupFailure(services.Wrap(services.ErrExternalTool, "preflight", "", "7za missing", nil)) {
		t.Fatal("expected external tool error to be a setup failure")
	}
}
