package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidSecret, "secret must decode to %d bytes", 20)

	if err.Code != ErrCodeInvalidSecret {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidSecret)
	}
	if err.Message != "secret must decode to 20 bytes" {
		t.Errorf("Message = %q", err.Message)
	}
	if !strings.Contains(err.Error(), "INVALID_SECRET") {
		t.Errorf("Error() = %q, want code prefix", err.Error())
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "fetch user %d", 42)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeUnauthorized, "token expired")

	if !Is(err, ErrCodeUnauthorized) {
		t.Error("Is() should match the error's code")
	}
	if Is(err, ErrCodeForbidden) {
		t.Error("Is() should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeUnauthorized) {
		t.Error("Is() should not match a non-structured error")
	}
}

func TestIsWrappedChain(t *testing.T) {
	inner := New(ErrCodeNotFound, "user 7 not found")
	outer := fmt.Errorf("get user: %w", inner)

	if !Is(outer, ErrCodeNotFound) {
		t.Error("Is() should unwrap fmt-wrapped chains")
	}
	if GetCode(outer) != ErrCodeNotFound {
		t.Errorf("GetCode() = %q, want NOT_FOUND", GetCode(outer))
	}
}

func TestGetCodePlainError(t *testing.T) {
	if code := GetCode(stderrors.New("plain")); code != "" {
		t.Errorf("GetCode() = %q, want empty", code)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeRejected, "insufficient balance")
	if got := UserMessage(err); got != "insufficient balance" {
		t.Errorf("UserMessage() = %q", got)
	}

	plain := stderrors.New("plain failure")
	if got := UserMessage(plain); got != "plain failure" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestRateLimitedError(t *testing.T) {
	err := &RateLimitedError{RetryAfter: 30}
	if !strings.Contains(err.Error(), "30 seconds") {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Code() != ErrCodeRateLimited {
		t.Errorf("Code() = %q", err.Code())
	}

	bare := &RateLimitedError{}
	if bare.Error() != "rate limited" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
