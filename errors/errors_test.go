package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	apperrors "github.com/Skryldev/steg-extractor/errors"
)

func TestProcessingError_Format(t *testing.T) {
	err := apperrors.New(apperrors.CategoryDecode, "decode.carrier", stderrors.New("bad header"))
	want := "[decode] decode.carrier: bad header"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap_NilPassthrough(t *testing.T) {
	if err := apperrors.Wrap(apperrors.CategoryStorage, "op", nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if !apperrors.IsRetryable(apperrors.Transient("fetch.get", stderrors.New("timeout"))) {
		t.Error("Transient errors must be retryable")
	}
	if apperrors.IsRetryable(apperrors.New(apperrors.CategoryDecode, "op", stderrors.New("x"))) {
		t.Error("New errors must not be retryable")
	}
	if apperrors.IsRetryable(stderrors.New("plain")) {
		t.Error("plain errors must not be retryable")
	}
	// Wrapped retryable errors keep their retryability.
	wrapped := fmt.Errorf("outer: %w", apperrors.Transient("op", stderrors.New("x")))
	if !apperrors.IsRetryable(wrapped) {
		t.Error("retryability must survive wrapping")
	}
}

func TestIsCategory(t *testing.T) {
	err := apperrors.New(apperrors.CategoryExtract, "extract.recover", apperrors.ErrNoPayload)
	if !apperrors.IsCategory(err, apperrors.CategoryExtract) {
		t.Error("expected extract category")
	}
	if apperrors.IsCategory(err, apperrors.CategoryDecode) {
		t.Error("category must not match a different one")
	}
}

func TestIsNoPayload(t *testing.T) {
	direct := apperrors.New(apperrors.CategoryExtract, "extract.recover", apperrors.ErrNoPayload)
	if !apperrors.IsNoPayload(direct) {
		t.Error("wrapped ErrNoPayload must be recognized")
	}
	if apperrors.IsNoPayload(apperrors.New(apperrors.CategoryExtract, "op", stderrors.New("other"))) {
		t.Error("unrelated errors must not look like a negative result")
	}
}
