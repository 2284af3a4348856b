package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRecover_PassesThroughError(t *testing.T) {
	want := errors.New("plain failure")
	got := Recover(func() error { return want })
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRecover_NilOnSuccess(t *testing.T) {
	if err := Recover(func() error { return nil }); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestRecover_ConvertsPanic(t *testing.T) {
	err := Recover(func() error { panic("boom") })
	if err == nil {
		t.Fatal("expected an error from a panicking fn")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected *PanicError, got %T", err)
	}
	if panicErr.Value != "boom" {
		t.Errorf("expected panic value boom, got %v", panicErr.Value)
	}
	if panicErr.StackTrace == "" {
		t.Error("expected a captured stack trace")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error text should mention the panic value, got %q", err.Error())
	}
}

func TestMultiError(t *testing.T) {
	t.Run("empty returns nil", func(t *testing.T) {
		m := &MultiError{}
		if err := m.ErrorOrNil(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("nil appends ignored", func(t *testing.T) {
		m := &MultiError{}
		m.Append(nil)
		if err := m.ErrorOrNil(); err != nil {
			t.Errorf("expected nil after appending nil, got %v", err)
		}
	})

	t.Run("single error returned directly", func(t *testing.T) {
		m := &MultiError{}
		want := errors.New("only one")
		m.Append(want)
		if got := m.ErrorOrNil(); got != want {
			t.Errorf("expected the single error back, got %v", got)
		}
	})

	t.Run("multiple errors combined", func(t *testing.T) {
		m := &MultiError{}
		m.Append(errors.New("first"))
		m.Append(errors.New("second"))

		err := m.ErrorOrNil()
		if err == nil {
			t.Fatal("expected combined error")
		}
		msg := err.Error()
		if !strings.Contains(msg, "first") || !strings.Contains(msg, "second") {
			t.Errorf("combined message should mention both errors, got %q", msg)
		}
		if !strings.Contains(msg, "2 errors") {
			t.Errorf("combined message should report the count, got %q", msg)
		}
	})

	t.Run("unwrap works with errors.Is", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		m := &MultiError{}
		m.Append(fmt.Errorf("wrapped: %w", sentinel))
		m.Append(errors.New("other"))
		if !errors.Is(m.ErrorOrNil(), sentinel) {
			t.Error("errors.Is should find the sentinel through MultiError")
		}
	})
}

func TestTransientError(t *testing.T) {
	base := errors.New("rate limited")
	err := NewTransientError("model call", base)

	if !IsTransient(err) {
		t.Error("expected IsTransient to report true")
	}
	if !errors.Is(err, base) {
		t.Error("expected unwrap to reach the base error")
	}
	if !strings.Contains(err.Error(), "model call") {
		t.Errorf("error text should include the operation, got %q", err.Error())
	}

	wrapped := fmt.Errorf("round 3: %w", err)
	if !IsTransient(wrapped) {
		t.Error("IsTransient should see through wrapping")
	}

	if IsTransient(errors.New("permanent")) {
		t.Error("plain errors must not classify as transient")
	}
}
