package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}

	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestCopiesMatchSentinelsByCode(t *testing.T) {
	err := fmt.Errorf("team service: %w", Store(stdErrors.New("disk full"), "create team"))

	if !stdErrors.Is(err, ErrStore) {
		t.Fatal("expected wrapped store error to match ErrStore")
	}
	if stdErrors.Is(err, ErrNotFound) {
		t.Fatal("store error must not match ErrNotFound")
	}
	if !stdErrors.Is(NewValidation("bad time"), ErrValidation) {
		t.Fatal("expected validation copy to match ErrValidation")
	}
	if Code(err) != "STORE_ERROR" {
		t.Fatalf("unexpected code %q", Code(err))
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}
