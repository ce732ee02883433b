package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFormattingIncludesMessageAndCause(t *testing.T) {
	err := New(
		"connections",
		CodePollTimeout,
		WithMessage("waited 100ms for an idle object"),
		WithRemediation("increase maxPoolSize or pollTimeout"),
		WithCause(errors.New("deque empty")),
	)

	out := err.Error()
	if !strings.Contains(out, "pool=connections") {
		t.Fatalf("expected pool marker in error string: %s", out)
	}
	if !strings.Contains(out, "code=poll_timeout") {
		t.Fatalf("expected code marker in error string: %s", out)
	}
	if !strings.Contains(out, `message="waited 100ms for an idle object"`) {
		t.Fatalf("expected message in error string: %s", out)
	}
	if !strings.Contains(out, `remediation="increase maxPoolSize or pollTimeout"`) {
		t.Fatalf("expected remediation in error string: %s", out)
	}
	if !strings.Contains(out, `cause="deque empty"`) {
		t.Fatalf("expected wrapped cause in error string: %s", out)
	}
}

func TestUnnamedPoolDefaultsToUnnamed(t *testing.T) {
	err := New("  ", CodeInvalid)
	if !strings.Contains(err.Error(), "pool=unnamed") {
		t.Fatalf("expected default pool marker, got %s", err.Error())
	}
}

func TestNilErrorString(t *testing.T) {
	var e *E
	if got := e.Error(); got != "<nil>" {
		t.Fatalf("expected <nil> string for nil error, got %q", got)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := New("connections", CodePoolClosed, WithMessage("first"))
	b := New("other", CodePoolClosed, WithMessage("second"))
	c := New("connections", CodeNotInPool)

	if !errors.Is(a, b) {
		t.Fatalf("expected errors with the same code to match via errors.Is")
	}
	if errors.Is(a, c) {
		t.Fatalf("expected errors with different codes not to match")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("dial refused")
	err := New("connections", CodeCreateFailed, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatalf("expected Unwrap to expose the underlying cause")
	}
}
