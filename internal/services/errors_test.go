package services_test

import (
	"errors"
	"strings"
	"testing"

	"imgsauce/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrStorage, "catalog", "insert image", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"catalog", "insert image", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected external marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want services.Kind
	}{
		{"quota", services.Wrap(services.ErrQuotaExhausted, "saucenao", "search", "", nil), services.KindQuota},
		{"skip", services.Wrap(services.ErrSkipFile, "scan", "read", "", errors.New("gone")), services.KindSkip},
		{"credential", services.Wrap(services.ErrCredential, "danbooru", "posts", "", nil), services.KindFatal},
		{"storage", services.Wrap(services.ErrStorage, "catalog", "upsert", "", nil), services.KindFatal},
		{"transient", services.Wrap(services.ErrTransient, "saucenao", "search", "", nil), services.KindFatal},
		{"plain", errors.New("plain"), services.KindFatal},
	}
	for _, tc := range cases {
		if got := services.Classify(tc.err); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !services.IsRetryable(services.Wrap(services.ErrTransient, "saucenao", "search", "http 521", nil)) {
		t.Fatal("expected transient error to be retryable")
	}
	if services.IsRetryable(services.Wrap(services.ErrCredential, "saucenao", "search", "http 403", nil)) {
		t.Fatal("expected credential error to be final")
	}
}

func TestIsFatal(t *testing.T) {
	if services.IsFatal(nil) {
		t.Fatal("nil must not be fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrSkipFile, "scan", "decode", "", nil)) {
		t.Fatal("skip must not be fatal")
	}
	if !services.IsFatal(services.Wrap(services.ErrStorage, "catalog", "delete", "", nil)) {
		t.Fatal("storage error must be fatal")
	}
}
