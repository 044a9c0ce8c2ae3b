package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"aotw/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternal, "spotify", "lookup album", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"spotify", "lookup album", "request failed"} {
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
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestCategory(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: services.Wrap(services.ErrValidation, "album", "validate", "bad", nil), want: "validation"},
		{name: "not found", err: services.Wrap(services.ErrNotFound, "spotify", "lookup", "", nil), want: "not_found"},
		{name: "external", err: services.Wrap(services.ErrExternal, "github", "put", "", errors.New("io")), want: "external"},
		{name: "wrapped twice", err: fmt.Errorf("publish: %w", services.Wrap(services.ErrTimeout, "github", "get", "", nil)), want: "timeout"},
		{name: "plain", err: errors.New("plain"), want: "unclassified"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Category(tc.err); got != tc.want {
				t.Fatalf("Category() = %q, want %q", got, tc.want)
			}
		})
	}
}
